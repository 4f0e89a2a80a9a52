package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("insert alice 1 a@x")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if stmt.Insert == nil || stmt.Select != nil {
		t.Fatalf("expected Insert statement, got %+v", stmt)
	}
	if stmt.Insert.Username != "alice" || stmt.Insert.ID != 1 || stmt.Insert.Email != "a@x" {
		t.Fatalf("unexpected fields: %+v", stmt.Insert)
	}
}

func TestParseNumericUsername(t *testing.T) {
	stmt, err := Parse("insert 123 1 a@x")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if stmt.Insert == nil || stmt.Insert.Username != "123" {
		t.Fatalf("numeric username not captured: %+v", stmt.Insert)
	}
}

func TestParseSelect(t *testing.T) {
	stmt, err := Parse("select")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if stmt.Select == nil || stmt.Insert != nil {
		t.Fatalf("expected Select statement, got %+v", stmt)
	}
}

func TestParseNegativeIDRejected(t *testing.T) {
	_, err := Parse("insert alice -1 a@x")
	if !errors.Is(err, ErrNegativeID) {
		t.Fatalf("Parse() error = %v, want ErrNegativeID", err)
	}
}

func TestParseOversizedUsernameRejected(t *testing.T) {
	long := strings.Repeat("a", 33)
	_, err := Parse("insert " + long + " 1 a@x")
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("Parse() error = %v, want ErrStringTooLong", err)
	}
}

func TestParseOversizedEmailRejected(t *testing.T) {
	long := strings.Repeat("a", 256)
	_, err := Parse("insert alice 1 " + long)
	if !errors.Is(err, ErrStringTooLong) {
		t.Fatalf("Parse() error = %v, want ErrStringTooLong", err)
	}
}

func TestParseGarbageIsSyntaxError(t *testing.T) {
	_, err := Parse("xyzzy plugh")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("Parse() error = %v, want ErrSyntax", err)
	}
}

func TestParseMissingFieldIsSyntaxError(t *testing.T) {
	_, err := Parse("insert alice 1")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("Parse() error = %v, want ErrSyntax", err)
	}
}

func TestParseNonNumericIDIsSyntaxError(t *testing.T) {
	_, err := Parse("insert alice abc a@x")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("Parse() error = %v, want ErrSyntax", err)
	}
}

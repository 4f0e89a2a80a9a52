package engine

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"minisql/internal/parser"
	"minisql/internal/table"
)

func openEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	tbl, err := table.Open(path)
	if err != nil {
		t.Fatalf("table.Open() error: %v", err)
	}
	t.Cleanup(func() { tbl.Close() })

	var out bytes.Buffer
	return New(tbl, &out), &out
}

func mustParse(t *testing.T, line string) *parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(line)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", line, err)
	}
	return stmt
}

func TestExecuteSelectOnEmptyTablePrintsDBIsEmpty(t *testing.T) {
	e, out := openEngine(t)

	if err := e.Execute(mustParse(t, "select")); err != nil {
		t.Fatalf("Execute(select) error: %v", err)
	}

	if got := out.String(); got != "DB is empty.\n" {
		t.Fatalf("got %q, want %q", got, "DB is empty.\n")
	}
}

func TestExecuteInsertThenSelectPrintsRow(t *testing.T) {
	e, out := openEngine(t)

	if err := e.Execute(mustParse(t, "insert alice 1 a@x")); err != nil {
		t.Fatalf("Execute(insert) error: %v", err)
	}
	out.Reset()

	if err := e.Execute(mustParse(t, "select")); err != nil {
		t.Fatalf("Execute(select) error: %v", err)
	}

	want := "(1, alice, a@x)\n"
	if got := out.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecuteDuplicateInsertPrintsError(t *testing.T) {
	e, out := openEngine(t)

	if err := e.Execute(mustParse(t, "insert alice 1 a@x")); err != nil {
		t.Fatalf("first Execute(insert) error: %v", err)
	}
	out.Reset()

	if err := e.Execute(mustParse(t, "insert alice2 1 a2@x")); err != nil {
		t.Fatalf("Execute(insert duplicate) error: %v", err)
	}

	if got := out.String(); got != "Error: Duplicate key.\n" {
		t.Fatalf("got %q, want duplicate-key message", got)
	}

	out.Reset()
	if err := e.Execute(mustParse(t, "select")); err != nil {
		t.Fatalf("Execute(select) error: %v", err)
	}
	if got := out.String(); got != "(1, alice, a@x)\n" {
		t.Fatalf("select after rejected duplicate changed: %q", got)
	}
}

func TestExecuteOutOfOrderInsertsSelectInAscendingOrder(t *testing.T) {
	e, out := openEngine(t)

	for _, line := range []string{"insert z 3 z@x", "insert a 1 a@x", "insert m 2 m@x"} {
		if err := e.Execute(mustParse(t, line)); err != nil {
			t.Fatalf("Execute(%q) error: %v", line, err)
		}
	}
	out.Reset()

	if err := e.Execute(mustParse(t, "select")); err != nil {
		t.Fatalf("Execute(select) error: %v", err)
	}

	want := "(1, a, a@x)\n(2, m, m@x)\n(3, z, z@x)\n"
	if got := out.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecuteMetaConstantsMentionsRowSize(t *testing.T) {
	e, out := openEngine(t)

	exit, err := e.ExecuteMeta(".constants")
	if err != nil {
		t.Fatalf("ExecuteMeta(.constants) error: %v", err)
	}
	if exit {
		t.Fatalf(".constants should not request exit")
	}
	if !strings.Contains(out.String(), "ROW_SIZE: 293") {
		t.Fatalf(".constants output missing ROW_SIZE: %q", out.String())
	}
}

func TestExecuteMetaExitRequestsExit(t *testing.T) {
	e, _ := openEngine(t)

	exit, err := e.ExecuteMeta(".exit")
	if err != nil {
		t.Fatalf("ExecuteMeta(.exit) error: %v", err)
	}
	if !exit {
		t.Fatalf(".exit should request exit")
	}
}

func TestExecuteMetaUnrecognizedReportsLine(t *testing.T) {
	e, _ := openEngine(t)

	exit, err := e.ExecuteMeta(".frobnicate")
	if exit {
		t.Fatalf("unrecognized meta-command should not request exit")
	}
	if !errors.Is(err, ErrUnrecognizedMetaCommand) {
		t.Fatalf("ExecuteMeta(.frobnicate) error = %v, want ErrUnrecognizedMetaCommand", err)
	}
	want := "Unrecognized command '.frobnicate'"
	if got := err.Error(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExecuteMetaBtreeShowsLeafAfterInserts(t *testing.T) {
	e, out := openEngine(t)

	for _, line := range []string{"insert a 1 a@x", "insert b 2 b@x"} {
		if err := e.Execute(mustParse(t, line)); err != nil {
			t.Fatalf("Execute(%q) error: %v", line, err)
		}
	}

	if _, err := e.ExecuteMeta(".btree"); err != nil {
		t.Fatalf("ExecuteMeta(.btree) error: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "- leaf (size 2)") {
		t.Fatalf(".btree output missing leaf size: %q", got)
	}
	if !strings.Contains(got, "- 1") || !strings.Contains(got, "- 2") {
		t.Fatalf(".btree output missing keys: %q", got)
	}
}

package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestNewWithoutBinaryReturnsNoopTranslator(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	translator := New()
	_, err := translator.Translate(context.Background(), "anything")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Translate() error = %v, want ErrUnavailable", err)
	}
}

func TestNoopTranslatorAlwaysUnavailable(t *testing.T) {
	var tr noopTranslator
	if _, err := tr.Translate(context.Background(), "ignored"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Translate() error = %v, want ErrUnavailable", err)
	}
}

package repl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"minisql/internal/assistant"
	"minisql/internal/engine"
	"minisql/internal/table"
)

func newREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	tbl, err := table.Open(path)
	if err != nil {
		t.Fatalf("table.Open() error: %v", err)
	}
	t.Cleanup(func() { tbl.Close() })

	var out bytes.Buffer
	e := engine.New(tbl, &out)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(e, &out, log), &out
}

// run feeds script (one line per dispatch) through Run and returns
// everything written to Out, with the `db > ` prompts stripped so
// assertions can focus on command output.
func run(t *testing.T, r *REPL, out *bytes.Buffer, script string) string {
	t.Helper()
	if err := r.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return strings.ReplaceAll(out.String(), "db > ", "")
}

func TestRunInsertAndSelect(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "insert alice 1 a@x\ninsert bob 2 b@x\nselect\n.exit\n")

	want := "(1, alice, a@x)\n(2, bob, b@x)\n"
	if !strings.Contains(got, want) {
		t.Fatalf("output %q does not contain %q", got, want)
	}
}

func TestRunEmptySelect(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "select\n.exit\n")
	if !strings.Contains(got, "DB is empty.\n") {
		t.Fatalf("output %q missing empty-DB message", got)
	}
}

func TestRunDuplicateKeyIsRecoverable(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "insert alice 1 a@x\ninsert alice2 1 a2@x\nselect\n.exit\n")
	if !strings.Contains(got, "Error: Duplicate key.\n") {
		t.Fatalf("output %q missing duplicate-key message", got)
	}
	if !strings.Contains(got, "(1, alice, a@x)\n") {
		t.Fatalf("output %q should still show the first row", got)
	}
}

func TestRunUnrecognizedKeyword(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "frobnicate\n.exit\n")
	if !strings.Contains(got, "Unrecognized keyword at start of 'frobnicate'.") {
		t.Fatalf("output %q missing unrecognized-keyword message", got)
	}
}

func TestRunUppercaseKeywordIsUnrecognized(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "INSERT alice 1 a@x\n.exit\n")
	if !strings.Contains(got, "Unrecognized keyword at start of 'INSERT alice 1 a@x'.") {
		t.Fatalf("output %q missing case-sensitive unrecognized-keyword message", got)
	}
}

func TestRunNumericUsernameAccepted(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "insert 123 1 a@x\nselect\n.exit\n")
	if !strings.Contains(got, "(1, 123, a@x)\n") {
		t.Fatalf("output %q missing row with numeric username", got)
	}
}

func TestRunUnrecognizedMetaCommand(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, ".frobnicate\n.exit\n")
	if !strings.Contains(got, "Unrecognized command '.frobnicate'") {
		t.Fatalf("output %q missing unrecognized-command message", got)
	}
}

func TestRunNegativeIDRejected(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, "insert alice -1 a@x\nselect\n.exit\n")
	if !strings.Contains(got, "ID must be positive.") {
		t.Fatalf("output %q missing negative-id message", got)
	}
	if !strings.Contains(got, "DB is empty.\n") {
		t.Fatalf("rejected insert should not have mutated the table: %q", got)
	}
}

func TestRunOversizedStringRejected(t *testing.T) {
	r, out := newREPL(t)

	long := strings.Repeat("a", 33)
	got := run(t, r, out, "insert "+long+" 1 a@x\nselect\n.exit\n")
	if !strings.Contains(got, "String is too long.") {
		t.Fatalf("output %q missing string-too-long message", got)
	}
}

func TestRunStopsOnExit(t *testing.T) {
	r, out := newREPL(t)

	got := run(t, r, out, ".exit\nselect\n")
	if strings.Contains(got, "DB is empty.") {
		t.Fatalf("commands after .exit should not run: %q", got)
	}
}

// fakeTranslator stands in for the out-of-process assistant: it never
// shells out, just maps one canned request to one canned statement.
type fakeTranslator struct {
	reply string
	err   error
}

func (f fakeTranslator) Translate(ctx context.Context, request string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestRunAdaPrefixDelegatesToTranslator(t *testing.T) {
	r, out := newREPL(t)
	r.Translator = fakeTranslator{reply: "insert carol 3 c@x"}

	got := run(t, r, out, "Ada add carol with id 3 and email c@x\nselect\n.exit\n")
	if !strings.Contains(got, "(3, carol, c@x)\n") {
		t.Fatalf("translated insert did not take effect: %q", got)
	}
}

func TestRunAdaPrefixUnavailableIsRecoverable(t *testing.T) {
	r, out := newREPL(t)
	r.Translator = fakeTranslator{err: assistant.ErrUnavailable}

	got := run(t, r, out, "Ada do something\nselect\n.exit\n")
	if !strings.Contains(got, "assistant unavailable") {
		t.Fatalf("output %q missing assistant-unavailable message", got)
	}
	if !strings.Contains(got, "DB is empty.\n") {
		t.Fatalf("failed translation should not have mutated the table: %q", got)
	}
}

func TestRunConnectBannerPrintedWhenDBPathSet(t *testing.T) {
	r, out := newREPL(t)
	r.DBPath = "/tmp/example.db"
	r.FileSize = 8192

	run(t, r, out, ".exit\n")

	if !strings.Contains(out.String(), "Connected to /tmp/example.db") {
		t.Fatalf("output %q missing connect banner", out.String())
	}
}

func TestRunNoBannerWhenDBPathUnset(t *testing.T) {
	r, out := newREPL(t)

	run(t, r, out, ".exit\n")

	if strings.Contains(out.String(), "Connected to") {
		t.Fatalf("output %q should have no banner when DBPath is empty", out.String())
	}
}

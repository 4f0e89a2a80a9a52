// Package repl is the shell loop spec.md §1 keeps explicitly in scope:
// it prints the `db > ` prompt, reads a line, and dispatches it to the
// meta-command handler, the assistant, or the parser+executor.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"minisql/internal/assistant"
	"minisql/internal/engine"
	"minisql/internal/parser"
	"minisql/internal/xerrors"
)

// assistantPrefix is the line prefix that routes input through the
// out-of-process natural-language assistant before parsing.
const assistantPrefix = "Ada "

// REPL owns the engine it drives plus the I/O streams and logger the
// teacher threads explicitly rather than reaching for package-level
// globals.
type REPL struct {
	Engine     *engine.Engine
	Translator assistant.Translator
	Out        io.Writer
	Log        *slog.Logger

	// When DBPath is non-empty, DBPath and FileSize are printed as a
	// one-line connect banner before the first prompt.
	DBPath   string
	FileSize int64
}

// New builds a REPL over an already-open engine.
func New(e *engine.Engine, out io.Writer, log *slog.Logger) *REPL {
	return &REPL{
		Engine:     e,
		Translator: assistant.New(),
		Out:        out,
		Log:        log,
	}
}

// Run drives the prompt/read/dispatch loop against in until EOF, a
// clean `.exit`, or a fatal error. It returns nil on a clean exit.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	if r.DBPath != "" {
		fmt.Fprintf(r.Out, "Connected to %s (%s on disk)\n", r.DBPath, humanize.Bytes(uint64(r.FileSize)))
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(r.Out, "db > ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return xerrors.Fatal(fmt.Errorf("reading input: %w", err))
			}
			return nil
		}

		line := scanner.Text()
		exit, err := r.dispatch(ctx, line)
		if err != nil {
			if xerrors.IsFatal(err) {
				r.Log.Error("fatal error", "error", err)
				return err
			}
			fmt.Fprintln(r.Out, err.Error())
			continue
		}
		if exit {
			return nil
		}
	}
}

func (r *REPL) dispatch(ctx context.Context, line string) (exit bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false, nil
	}

	if strings.HasPrefix(trimmed, ".") {
		return r.Engine.ExecuteMeta(trimmed)
	}

	if strings.HasPrefix(line, assistantPrefix) {
		translated, tErr := r.Translator.Translate(ctx, strings.TrimPrefix(line, assistantPrefix))
		if tErr != nil {
			if errors.Is(tErr, assistant.ErrUnavailable) {
				return false, errors.New("assistant unavailable; use insert/select directly")
			}
			return false, fmt.Errorf("assistant request failed: %w", tErr)
		}
		line = translated
		trimmed = strings.TrimSpace(line)
	}

	stmt, pErr := parser.Parse(line)
	if pErr != nil {
		if errors.Is(pErr, parser.ErrSyntax) {
			keyword := firstWord(trimmed)
			if !isKnownKeyword(keyword) {
				return false, parser.UnrecognizedKeyword(trimmed)
			}
		}
		return false, pErr
	}

	return false, r.Engine.Execute(stmt)
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// isKnownKeyword reports whether word is a statement keyword the
// grammar recognizes. The comparison is case-sensitive, matching both
// the grammar's Keyword lexer rule and the original's
// strncmp(buffer, "insert", 6) / strcmp(buffer, "select") dispatch, so
// "INSERT alice 1 a@x" is an unrecognized keyword rather than a
// syntax error in a recognized statement.
func isKnownKeyword(word string) bool {
	switch word {
	case "insert", "select":
		return true
	default:
		return false
	}
}

package engine

import (
	"errors"
	"fmt"
	"io"

	"minisql/internal/parser"
	"minisql/internal/row"
	"minisql/internal/table"
	"minisql/internal/tree"
	"minisql/internal/xerrors"
)

// Engine binds an open table to the output stream the REPL prints
// through, mirroring the teacher's convention of keeping the
// destination of printed output an explicit field rather than a global
// os.Stdout reference (see database/file.go's DB holding its own file
// handle rather than reaching for a package-level one).
type Engine struct {
	Table *table.Table
	Out   io.Writer
}

// New binds an Engine to an already-open table.
func New(t *table.Table, out io.Writer) *Engine {
	return &Engine{Table: t, Out: out}
}

// Execute runs one parsed statement (spec.md §4.7). Recoverable
// failures — duplicate key, empty table on select — are printed to Out
// and reported as a nil error so the REPL's caller knows to keep
// going. Only I/O and tree-invariant failures propagate as fatal
// errors.
func (e *Engine) Execute(stmt *parser.Statement) error {
	switch {
	case stmt.Insert != nil:
		return e.executeInsert(stmt.Insert)
	case stmt.Select != nil:
		return e.executeSelect()
	default:
		return xerrors.Fatalf("statement has neither insert nor select set")
	}
}

func (e *Engine) executeInsert(ins *parser.Insert) error {
	r := row.Row{
		ID:       uint32(ins.ID),
		Username: ins.Username,
		Email:    ins.Email,
	}

	err := e.Table.Tree.Insert(r.ID, r)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tree.ErrDuplicateKey):
		fmt.Fprintln(e.Out, "Error: Duplicate key.")
		return nil
	default:
		return xerrors.Fatal(err)
	}
}

func (e *Engine) executeSelect() error {
	c, err := e.Table.Tree.Start()
	if err != nil {
		return xerrors.Fatal(err)
	}

	if c.EndOfTable {
		fmt.Fprintln(e.Out, "DB is empty.")
		return nil
	}

	for !c.EndOfTable {
		raw, err := c.Value()
		if err != nil {
			return xerrors.Fatal(err)
		}
		r := row.Deserialize(raw)
		fmt.Fprintf(e.Out, "(%d, %s, %s)\n", r.ID, r.Username, r.Email)

		if err := c.Advance(); err != nil {
			return xerrors.Fatal(err)
		}
	}
	return nil
}

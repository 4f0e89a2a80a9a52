// Package table owns the lifecycle of one open database: bootstrapping
// an empty root on first open, and flushing everything on close.
//
// Open's "create the pager, then goto fail on any setup error so
// cleanup runs once" shape is lifted straight from the teacher's
// database/file.go DB.Open, which uses the same goto-based single exit
// path for its mmap + meta-page bootstrap.
package table

import (
	"minisql/internal/pager"
	"minisql/internal/tree"
)

// RootPageNum is always 0 for the lifetime of a database (spec.md §3).
const RootPageNum = 0

// Table is the open handle a REPL session operates against: a pager
// plus the tree rooted at page 0.
type Table struct {
	Pager *pager.Pager
	Tree  *tree.Tree
}

// Open opens (or creates) the database file at path and, if it is
// brand new, bootstraps an empty leaf root at page 0.
func Open(path string) (t *Table, err error) {
	p, err := pager.Open(path)
	if err != nil {
		return nil, err
	}

	if p.NumPages() == 0 {
		root, getErr := p.Get(RootPageNum)
		if getErr != nil {
			err = getErr
			goto fail
		}
		root.InitializeLeaf()
		root.SetIsRoot(true)
	}

	return &Table{Pager: p, Tree: tree.New(p, RootPageNum)}, nil

fail:
	_ = p.Close()
	return nil, err
}

// Close flushes every resident page and releases the underlying file.
func (t *Table) Close() error {
	return t.Pager.Close()
}

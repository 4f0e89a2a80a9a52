package engine

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"minisql/internal/node"
	"minisql/internal/pager"
	"minisql/internal/row"
	"minisql/internal/table"
	"minisql/internal/xerrors"
)

// ExecuteMeta runs a `.`-prefixed command (spec.md §6). line is the
// full command as typed, including the leading dot, so unrecognized
// commands can echo it back verbatim.
func (e *Engine) ExecuteMeta(line string) (exit bool, err error) {
	switch line {
	case ".exit":
		return true, nil
	case ".btree":
		return false, e.printTree()
	case ".constants":
		e.printConstants()
		return false, nil
	default:
		return false, fmt.Errorf("%w '%s'", ErrUnrecognizedMetaCommand, line)
	}
}

func (e *Engine) printTree() error {
	return e.printSubtree(table.RootPageNum, 0)
}

func (e *Engine) printSubtree(pageNum uint32, indent int) error {
	n, err := e.Table.Pager.Get(pageNum)
	if err != nil {
		return xerrors.Fatal(err)
	}

	pad := strings.Repeat("  ", indent)

	switch n.NodeType() {
	case node.Leaf:
		numCells := n.LeafNumCells()
		fmt.Fprintf(e.Out, "%s- leaf (size %d)\n", pad, numCells)
		for i := uint32(0); i < numCells; i++ {
			fmt.Fprintf(e.Out, "%s  - %d\n", pad, n.LeafKey(i))
		}
		return nil

	case node.Internal:
		numKeys := n.InternalNumKeys()
		fmt.Fprintf(e.Out, "%s- internal (size %d)\n", pad, numKeys)
		for i := uint32(0); i < numKeys; i++ {
			child, err := n.InternalChild(i)
			if err != nil {
				return xerrors.Fatal(err)
			}
			if err := e.printSubtree(child, indent+1); err != nil {
				return err
			}
			fmt.Fprintf(e.Out, "%s  - key %d\n", pad, n.InternalKey(i))
		}
		right, err := n.InternalChild(numKeys)
		if err != nil {
			return xerrors.Fatal(err)
		}
		return e.printSubtree(right, indent+1)

	default:
		return xerrors.Fatalf("page %d has uninitialized node type", pageNum)
	}
}

func (e *Engine) printConstants() {
	fmt.Fprintln(e.Out, "Constants:")
	fmt.Fprintf(e.Out, "ROW_SIZE: %d\n", row.Size)
	fmt.Fprintf(e.Out, "COMMON_NODE_HEADER_SIZE: %d\n", node.CommonHeaderSize)
	fmt.Fprintf(e.Out, "LEAF_NODE_HEADER_SIZE: %d\n", node.LeafHeaderSize)
	fmt.Fprintf(e.Out, "LEAF_NODE_CELL_SIZE: %d\n", node.LeafCellSize)
	fmt.Fprintf(e.Out, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", node.LeafSpaceForCells)
	fmt.Fprintf(e.Out, "LEAF_NODE_MAX_CELLS: %d\n", node.LeafMaxCells)
	fmt.Fprintf(e.Out, "PAGE_SIZE: %s (%d bytes)\n", humanize.Bytes(uint64(node.PageSize)), node.PageSize)
	fmt.Fprintf(e.Out, "TABLE_MAX_PAGES: %d\n", pager.TableMaxPages)
}

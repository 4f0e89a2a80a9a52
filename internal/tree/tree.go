// Package tree implements the B+ tree algorithms over pages handed out
// by a pager.Pager: search (Find), leaf insert, leaf split, internal
// insert, internal split, root split, and parent-key fix-up.
//
// The split/insert control flow is grounded on the teacher's own
// recursive node-rewriting style in BPlusTree/insertion.go
// (kvInsert/leafInsert/intrnNodeInsert/nodeSplit3) and
// BPlusTree/auxiliary.go (appendKVRange/appendSingleKV/nodeUpdateAndReplace):
// the teacher mutates by allocating a new node and copying ranges across
// the split point. This package keeps that "split by redistributing a
// virtual MAX+1-length run across two pages" shape but specializes it to
// spec.md §4.5's exact in-place fixed-cell layout (no copy-on-write, no
// variable-length KV), since the fixed Row schema makes in-place
// node mutation both simpler and required by the on-disk format in
// spec.md §3.
package tree

import (
	"errors"

	"minisql/internal/node"
	"minisql/internal/pager"
	"minisql/internal/row"
	"minisql/internal/xerrors"
)

// ErrDuplicateKey is returned by Insert when key already has a cell in
// the tree.
var ErrDuplicateKey = errors.New("duplicate key")

// Tree is a B+ tree rooted at RootPageNum (always 0 for the lifetime of
// a database, per spec.md §3) backed by pager.
type Tree struct {
	Pager       *pager.Pager
	RootPageNum uint32
}

// New wraps an already-open pager as a tree rooted at rootPageNum.
func New(p *pager.Pager, rootPageNum uint32) *Tree {
	return &Tree{Pager: p, RootPageNum: rootPageNum}
}

// Find descends from the root to the leaf that would hold key, and
// returns a cursor at the first cell with key >= the target (or one
// past the last cell if key exceeds everything present). It does not
// set EndOfTable.
func (t *Tree) Find(key uint32) (*Cursor, error) {
	return t.findFrom(t.RootPageNum, key)
}

func (t *Tree) findFrom(pageNum uint32, key uint32) (*Cursor, error) {
	n, err := t.Pager.Get(pageNum)
	if err != nil {
		return nil, err
	}

	switch n.NodeType() {
	case node.Leaf:
		return &Cursor{tree: t, PageNum: pageNum, CellNum: leafFindCellNum(n, key)}, nil
	case node.Internal:
		index := internalFindChildIndex(n, key)
		childPage, err := n.InternalChild(index)
		if err != nil {
			return nil, err
		}
		return t.findFrom(childPage, key)
	default:
		return nil, xerrors.Fatalf("page %d has neither leaf nor internal node type", pageNum)
	}
}

// Start returns a cursor at the leftmost leaf cell (Find(0), since leaf
// cells are sorted ascending and 0 is <= every stored key), with
// EndOfTable set iff that leaf is empty.
func (t *Tree) Start() (*Cursor, error) {
	c, err := t.Find(0)
	if err != nil {
		return nil, err
	}
	leaf, err := t.Pager.Get(c.PageNum)
	if err != nil {
		return nil, err
	}
	c.EndOfTable = leaf.LeafNumCells() == 0
	return c, nil
}

// leafFindCellNum performs the binary search spec.md §4.4 describes
// over a leaf's cells for the first index with key >= target.
func leafFindCellNum(n node.Node, key uint32) uint32 {
	lo, hi := uint32(0), n.LeafNumCells()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if n.LeafKey(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// internalFindChildIndex performs the binary search spec.md §4.4
// describes over an internal node's keys for the smallest index i such
// that key[i] >= target.
func internalFindChildIndex(n node.Node, key uint32) uint32 {
	lo, hi := uint32(0), n.InternalNumKeys()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if n.InternalKey(mid) >= key {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Insert performs spec.md §4.5's execute_insert: find the target cell,
// reject an exact-key duplicate, otherwise insert into the leaf
// (possibly splitting).
func (t *Tree) Insert(key uint32, r row.Row) error {
	c, err := t.Find(key)
	if err != nil {
		return err
	}

	leaf, err := t.Pager.Get(c.PageNum)
	if err != nil {
		return err
	}
	if c.CellNum < leaf.LeafNumCells() && leaf.LeafKey(c.CellNum) == key {
		return ErrDuplicateKey
	}

	return t.leafInsert(c, key, r)
}

func (t *Tree) leafInsert(c *Cursor, key uint32, r row.Row) error {
	leaf, err := t.Pager.Get(c.PageNum)
	if err != nil {
		return err
	}

	if leaf.LeafNumCells() >= node.LeafMaxCells {
		return t.leafSplitAndInsert(c, key, r)
	}

	numCells := leaf.LeafNumCells()
	for i := numCells; i > c.CellNum; i-- {
		copy(leaf.LeafCell(i), leaf.LeafCell(i-1))
	}
	leaf.SetLeafNumCells(numCells + 1)
	leaf.SetLeafKey(c.CellNum, key)
	row.Serialize(r, leaf.LeafValue(c.CellNum))
	return nil
}

// leafSplitAndInsert distributes the LeafMaxCells existing cells plus
// the new one across two leaves, following spec.md §4.5: iterate the
// virtual MAX+1-cell run from the top down, writing the new cell at
// its cursor position and copying every other cell from its pre-split
// index, so old and new indices never collide mid-copy.
func (t *Tree) leafSplitAndInsert(c *Cursor, key uint32, r row.Row) error {
	oldPageNum := c.PageNum
	oldNode, err := t.Pager.Get(oldPageNum)
	if err != nil {
		return err
	}
	oldMax, err := t.maxKey(oldPageNum)
	if err != nil {
		return err
	}

	newPageNum := t.Pager.UnusedPageNum()
	newNode, err := t.Pager.Get(newPageNum)
	if err != nil {
		return err
	}
	newNode.InitializeLeaf()
	newNode.SetParentPage(oldNode.ParentPage())
	newNode.SetLeafNextLeaf(oldNode.LeafNextLeaf())
	oldNode.SetLeafNextLeaf(newPageNum)

	for i := int(node.LeafMaxCells); i >= 0; i-- {
		idx := uint32(i)
		var dest node.Node
		var destIndex uint32
		if idx >= node.LeafLeftSplitCount {
			dest = newNode
			destIndex = idx - node.LeafLeftSplitCount
		} else {
			dest = oldNode
			destIndex = idx
		}

		switch {
		case idx == c.CellNum:
			dest.SetLeafKey(destIndex, key)
			row.Serialize(r, dest.LeafValue(destIndex))
		case idx > c.CellNum:
			copy(dest.LeafCell(destIndex), oldNode.LeafCell(idx-1))
		default:
			copy(dest.LeafCell(destIndex), oldNode.LeafCell(idx))
		}
	}

	oldNode.SetLeafNumCells(node.LeafLeftSplitCount)
	newNode.SetLeafNumCells(node.LeafRightSplitCount)

	if oldNode.IsRoot() {
		return t.createNewRoot(newPageNum)
	}

	parentPageNum := oldNode.ParentPage()
	newOldMax, err := t.maxKey(oldPageNum)
	if err != nil {
		return err
	}
	if err := t.updateInternalNodeKey(parentPageNum, oldMax, newOldMax); err != nil {
		return err
	}
	return t.internalNodeInsert(parentPageNum, newPageNum)
}

// createNewRoot copies the current root (page 0) into a freshly
// allocated left child, reparents the copy's own children if it was
// internal, then reinitializes page 0 as a two-child internal root.
func (t *Tree) createNewRoot(rightChildPageNum uint32) error {
	root, err := t.Pager.Get(t.RootPageNum)
	if err != nil {
		return err
	}
	rightChild, err := t.Pager.Get(rightChildPageNum)
	if err != nil {
		return err
	}

	leftChildPageNum := t.Pager.UnusedPageNum()
	leftChild, err := t.Pager.Get(leftChildPageNum)
	if err != nil {
		return err
	}
	copy(leftChild, root)
	leftChild.SetIsRoot(false)

	if leftChild.NodeType() == node.Internal {
		numKeys := leftChild.InternalNumKeys()
		for i := uint32(0); i <= numKeys; i++ {
			childPageNum, err := leftChild.InternalChild(i)
			if err != nil {
				return err
			}
			child, err := t.Pager.Get(childPageNum)
			if err != nil {
				return err
			}
			child.SetParentPage(leftChildPageNum)
		}
	}

	root.InitializeInternal()
	root.SetIsRoot(true)
	root.SetInternalNumKeys(1)
	root.SetInternalChild(0, leftChildPageNum)

	leftMax, err := t.maxKey(leftChildPageNum)
	if err != nil {
		return err
	}
	root.SetInternalKey(0, leftMax)
	root.SetInternalRightChild(rightChildPageNum)

	leftChild.SetParentPage(t.RootPageNum)
	rightChild.SetParentPage(t.RootPageNum)

	return nil
}

// internalNodeInsert inserts childPage into parentPage, splitting the
// parent first if it is already full.
func (t *Tree) internalNodeInsert(parentPageNum uint32, childPageNum uint32) error {
	parent, err := t.Pager.Get(parentPageNum)
	if err != nil {
		return err
	}

	if parent.InternalNumKeys() >= node.InternalMaxKeys {
		return t.internalNodeSplitAndInsert(parentPageNum, childPageNum)
	}

	childMax, err := t.maxKey(childPageNum)
	if err != nil {
		return err
	}

	if parent.InternalRightChild() == node.InvalidPage {
		parent.SetInternalRightChild(childPageNum)
		return nil
	}

	index := internalFindChildIndex(parent, childMax)
	rightChildPageNum := parent.InternalRightChild()
	rightChildMax, err := t.maxKey(rightChildPageNum)
	if err != nil {
		return err
	}

	oldNumKeys := parent.InternalNumKeys()
	parent.SetInternalNumKeys(oldNumKeys + 1)

	if childMax > rightChildMax {
		parent.SetInternalChild(oldNumKeys, rightChildPageNum)
		parent.SetInternalKey(oldNumKeys, rightChildMax)
		parent.SetInternalRightChild(childPageNum)
		return nil
	}

	for i := oldNumKeys; i > index; i-- {
		copy(parent.InternalCellBytes(i), parent.InternalCellBytes(i-1))
	}
	parent.SetInternalChild(index, childPageNum)
	parent.SetInternalKey(index, childMax)
	return nil
}

// internalNodeSplitAndInsert implements spec.md §4.5's
// internal_node_split_and_insert: peel the top half of a full parent's
// keys plus its right child into a sibling, fix up whichever of the two
// halves the new child belongs in, then fix the grandparent's key and
// (unless the parent was the root) insert the sibling there too.
func (t *Tree) internalNodeSplitAndInsert(parentPageNum uint32, childPageNum uint32) error {
	oldPageNum := parentPageNum
	oldNode, err := t.Pager.Get(oldPageNum)
	if err != nil {
		return err
	}
	oldMax, err := t.maxKey(oldPageNum)
	if err != nil {
		return err
	}
	childMax, err := t.maxKey(childPageNum)
	if err != nil {
		return err
	}

	splittingRoot := oldNode.IsRoot()
	var parentOfOld uint32
	var newPageNum uint32

	if splittingRoot {
		newPageNum = t.Pager.UnusedPageNum()
		if err := t.createNewRoot(newPageNum); err != nil {
			return err
		}
		rootNode, err := t.Pager.Get(t.RootPageNum)
		if err != nil {
			return err
		}
		oldPageNum, err = rootNode.InternalChild(0)
		if err != nil {
			return err
		}
		oldNode, err = t.Pager.Get(oldPageNum)
		if err != nil {
			return err
		}
		parentOfOld = t.RootPageNum
	} else {
		parentOfOld = oldNode.ParentPage()
		newPageNum = t.Pager.UnusedPageNum()
	}

	newNode, err := t.Pager.Get(newPageNum)
	if err != nil {
		return err
	}
	newNode.InitializeInternal()

	oldRightChildPageNum := oldNode.InternalRightChild()
	oldRightChild, err := t.Pager.Get(oldRightChildPageNum)
	if err != nil {
		return err
	}
	if err := t.internalNodeInsert(newPageNum, oldRightChildPageNum); err != nil {
		return err
	}
	oldRightChild.SetParentPage(newPageNum)
	oldNode.SetInternalRightChild(node.InvalidPage)

	for i := node.InternalMaxKeys - 1; i > node.InternalMaxKeys/2; i-- {
		movedPageNum, err := oldNode.InternalChild(uint32(i))
		if err != nil {
			return err
		}
		if err := t.internalNodeInsert(newPageNum, movedPageNum); err != nil {
			return err
		}
		moved, err := t.Pager.Get(movedPageNum)
		if err != nil {
			return err
		}
		moved.SetParentPage(newPageNum)
		oldNode.SetInternalNumKeys(oldNode.InternalNumKeys() - 1)
	}

	lastIndex := oldNode.InternalNumKeys() - 1
	promotedPageNum, err := oldNode.InternalChild(lastIndex)
	if err != nil {
		return err
	}
	oldNode.SetInternalRightChild(promotedPageNum)
	oldNode.SetInternalNumKeys(oldNode.InternalNumKeys() - 1)

	newOldMaxForDestination, err := t.maxKey(oldPageNum)
	if err != nil {
		return err
	}

	destinationPageNum := newPageNum
	if childMax < newOldMaxForDestination {
		destinationPageNum = oldPageNum
	}
	if err := t.internalNodeInsert(destinationPageNum, childPageNum); err != nil {
		return err
	}
	childNode, err := t.Pager.Get(childPageNum)
	if err != nil {
		return err
	}
	childNode.SetParentPage(destinationPageNum)

	newOldMax, err := t.maxKey(oldPageNum)
	if err != nil {
		return err
	}
	if err := t.updateInternalNodeKey(parentOfOld, oldMax, newOldMax); err != nil {
		return err
	}

	if !splittingRoot {
		newNode.SetParentPage(parentOfOld)
		if err := t.internalNodeInsert(parentOfOld, newPageNum); err != nil {
			return err
		}
	}

	return nil
}

// updateInternalNodeKey finds the child slot whose key equals oldKey
// and overwrites it with newKey. Per spec.md §9, it is a documented
// no-op when node has no key matching oldKey (the child was reached via
// right_child and has no key slot of its own).
func (t *Tree) updateInternalNodeKey(pageNum uint32, oldKey uint32, newKey uint32) error {
	n, err := t.Pager.Get(pageNum)
	if err != nil {
		return err
	}
	index := internalFindChildIndex(n, oldKey)
	if index < n.InternalNumKeys() && n.InternalKey(index) == oldKey {
		n.SetInternalKey(index, newKey)
	}
	return nil
}

// maxKey returns the largest key reachable in the subtree rooted at
// pageNum: the last leaf cell's key, or recursively the max_key of the
// right_child for an internal node.
func (t *Tree) maxKey(pageNum uint32) (uint32, error) {
	n, err := t.Pager.Get(pageNum)
	if err != nil {
		return 0, err
	}
	if n.NodeType() == node.Leaf {
		numCells := n.LeafNumCells()
		if numCells == 0 {
			return 0, nil
		}
		return n.LeafKey(numCells - 1), nil
	}
	return t.maxKey(n.InternalRightChild())
}

// Package node provides pure byte-offset accessors over a raw page
// buffer, interpreting it as either an internal or a leaf B+ tree node.
// The accessor-over-[]byte style (getX/setX methods keyed off constant
// offsets computed from a header layout) is the teacher's own idiom —
// see B-Tree/node.go and BPlusTree/node.go's getNodeType/setHeader/getPtr
// family — generalized here from the teacher's variable-length KV
// layout to spec.md §3's fixed common/leaf/internal header layout.
package node

import (
	"encoding/binary"

	"minisql/internal/row"
	"minisql/internal/xerrors"
)

// PageSize is the fixed width of every page, on disk and in memory.
const PageSize = 4096

// Type distinguishes a page's role.
type Type uint8

const (
	Uninitialized Type = 0
	Internal      Type = 1
	Leaf          Type = 2
)

// InvalidPage marks an uninitialized right_child of a freshly
// initialized, empty internal node.
const InvalidPage uint32 = 1<<32 - 1

// Common node header, present on every page: node_type(1) is_root(1)
// parent_page(4).
const (
	nodeTypeOffset      = 0
	nodeTypeSize        = 1
	isRootOffset        = nodeTypeOffset + nodeTypeSize
	isRootSize          = 1
	parentPointerOffset = isRootOffset + isRootSize
	parentPointerSize   = 4

	CommonHeaderSize = parentPointerOffset + parentPointerSize // 6
)

// Leaf header, following the common header: num_cells(4) next_leaf(4).
const (
	leafNumCellsOffset = CommonHeaderSize
	leafNumCellsSize   = 4
	leafNextLeafOffset = leafNumCellsOffset + leafNumCellsSize
	leafNextLeafSize   = 4

	LeafHeaderSize = leafNextLeafOffset + leafNextLeafSize // 14

	LeafCellKeySize   = 4
	LeafCellValueSize = row.Size
	LeafCellSize      = LeafCellKeySize + LeafCellValueSize

	LeafSpaceForCells = PageSize - LeafHeaderSize
	LeafMaxCells      = LeafSpaceForCells / LeafCellSize

	// LeafRightSplitCount/LeafLeftSplitCount implement spec.md §4.5's
	// "RIGHT = (MAX+1)/2, LEFT = (MAX+1) - RIGHT" split distribution.
	LeafRightSplitCount = (LeafMaxCells + 1) / 2
	LeafLeftSplitCount  = (LeafMaxCells + 1) - LeafRightSplitCount
)

// Internal header, following the common header: num_keys(4)
// right_child(4).
const (
	internalNumKeysOffset    = CommonHeaderSize
	internalNumKeysSize      = 4
	internalRightChildOffset = internalNumKeysOffset + internalNumKeysSize
	internalRightChildSize   = 4

	InternalHeaderSize = internalRightChildOffset + internalRightChildSize // 14

	internalChildSize = 4
	internalKeySize   = 4
	InternalCellSize  = internalChildSize + internalKeySize

	// InternalMaxKeys is kept small (spec.md §3) to exercise splits
	// without needing thousands of inserts.
	InternalMaxKeys = 3
)

// Node is a page buffer interpreted as a B+ tree node. It never copies:
// all accessors read and write through the same backing array the Pager
// owns.
type Node []byte

// NodeType/SetNodeType get and set the common header's node kind.
func (n Node) NodeType() Type {
	return Type(n[nodeTypeOffset])
}

func (n Node) SetNodeType(t Type) {
	n[nodeTypeOffset] = byte(t)
}

// IsRoot/SetIsRoot get and set whether this page is page 0's current
// root.
func (n Node) IsRoot() bool {
	return n[isRootOffset] != 0
}

func (n Node) SetIsRoot(isRoot bool) {
	if isRoot {
		n[isRootOffset] = 1
	} else {
		n[isRootOffset] = 0
	}
}

// ParentPage/SetParentPage get and set the owning internal node's page
// number. Unused on the root.
func (n Node) ParentPage() uint32 {
	return binary.LittleEndian.Uint32(n[parentPointerOffset:])
}

func (n Node) SetParentPage(pageNum uint32) {
	binary.LittleEndian.PutUint32(n[parentPointerOffset:], pageNum)
}

// --- leaf accessors ---

func (n Node) LeafNumCells() uint32 {
	return binary.LittleEndian.Uint32(n[leafNumCellsOffset:])
}

func (n Node) SetLeafNumCells(numCells uint32) {
	binary.LittleEndian.PutUint32(n[leafNumCellsOffset:], numCells)
}

func (n Node) LeafNextLeaf() uint32 {
	return binary.LittleEndian.Uint32(n[leafNextLeafOffset:])
}

func (n Node) SetLeafNextLeaf(pageNum uint32) {
	binary.LittleEndian.PutUint32(n[leafNextLeafOffset:], pageNum)
}

func (n Node) leafCellOffset(cellNum uint32) int {
	return LeafHeaderSize + int(cellNum)*LeafCellSize
}

// LeafCell returns the raw key+row bytes at cellNum.
func (n Node) LeafCell(cellNum uint32) []byte {
	off := n.leafCellOffset(cellNum)
	return n[off : off+LeafCellSize]
}

func (n Node) LeafKey(cellNum uint32) uint32 {
	return binary.LittleEndian.Uint32(n.LeafCell(cellNum))
}

func (n Node) SetLeafKey(cellNum uint32, key uint32) {
	binary.LittleEndian.PutUint32(n.LeafCell(cellNum), key)
}

// LeafValue returns the serialized-Row slot for cellNum.
func (n Node) LeafValue(cellNum uint32) []byte {
	return n.LeafCell(cellNum)[LeafCellKeySize:]
}

// InitializeLeaf resets the page to an empty, non-root leaf.
func (n Node) InitializeLeaf() {
	n.SetNodeType(Leaf)
	n.SetIsRoot(false)
	n.SetLeafNumCells(0)
	n.SetLeafNextLeaf(0)
}

// --- internal accessors ---

func (n Node) InternalNumKeys() uint32 {
	return binary.LittleEndian.Uint32(n[internalNumKeysOffset:])
}

func (n Node) SetInternalNumKeys(numKeys uint32) {
	binary.LittleEndian.PutUint32(n[internalNumKeysOffset:], numKeys)
}

func (n Node) InternalRightChild() uint32 {
	return binary.LittleEndian.Uint32(n[internalRightChildOffset:])
}

func (n Node) SetInternalRightChild(pageNum uint32) {
	binary.LittleEndian.PutUint32(n[internalRightChildOffset:], pageNum)
}

func (n Node) internalCellOffset(cellNum uint32) int {
	return InternalHeaderSize + int(cellNum)*InternalCellSize
}

// internalChildPage returns the raw child pointer at index, without the
// "index == numKeys means right_child" fallback InternalChild applies.
func (n Node) internalChildPage(index uint32) uint32 {
	return binary.LittleEndian.Uint32(n[n.internalCellOffset(index):])
}

func (n Node) setInternalChildPage(index uint32, pageNum uint32) {
	binary.LittleEndian.PutUint32(n[n.internalCellOffset(index):], pageNum)
}

// InternalChild returns the child page number at index. index ==
// numKeys returns right_child; index > numKeys is the fatal
// out-of-bounds access spec.md §4.2/§7 calls out.
func (n Node) InternalChild(index uint32) (uint32, error) {
	numKeys := n.InternalNumKeys()
	if index > numKeys {
		return 0, xerrors.Fatalf("internal node child index %d out of bounds (num_keys=%d)", index, numKeys)
	}
	if index == numKeys {
		return n.InternalRightChild(), nil
	}
	return n.internalChildPage(index), nil
}

// SetInternalChild sets the child pointer at index, including index ==
// numKeys for the right child.
func (n Node) SetInternalChild(index uint32, pageNum uint32) {
	if index == n.InternalNumKeys() {
		n.SetInternalRightChild(pageNum)
		return
	}
	n.setInternalChildPage(index, pageNum)
}

func (n Node) InternalKey(index uint32) uint32 {
	return binary.LittleEndian.Uint32(n[n.internalCellOffset(index)+internalChildSize:])
}

func (n Node) SetInternalKey(index uint32, key uint32) {
	binary.LittleEndian.PutUint32(n[n.internalCellOffset(index)+internalChildSize:], key)
}

// InternalCellBytes returns the raw (child_page, key) cell at a regular
// (non-right-child) slot index, for bulk shifting during insert/split.
func (n Node) InternalCellBytes(index uint32) []byte {
	off := n.internalCellOffset(index)
	return n[off : off+InternalCellSize]
}

// InitializeInternal resets the page to an empty, non-root internal
// node with no valid right child yet.
func (n Node) InitializeInternal() {
	n.SetNodeType(Internal)
	n.SetIsRoot(false)
	n.SetInternalNumKeys(0)
	n.SetInternalRightChild(InvalidPage)
}

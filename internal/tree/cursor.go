package tree

// Cursor is a transient position within the sorted key sequence: a page,
// a cell index within that page, and a flag for "one past the last
// cell anywhere". It is bound to the Tree that created it and is
// expected to be discarded after a mutation.
type Cursor struct {
	tree       *Tree
	PageNum    uint32
	CellNum    uint32
	EndOfTable bool
}

// Value returns the serialized Row bytes at the cursor's current
// position. Undefined if EndOfTable is set.
func (c *Cursor) Value() ([]byte, error) {
	leaf, err := c.tree.Pager.Get(c.PageNum)
	if err != nil {
		return nil, err
	}
	return leaf.LeafValue(c.CellNum), nil
}

// Advance moves the cursor to the next cell, following next_leaf across
// leaf boundaries and setting EndOfTable once the rightmost leaf is
// exhausted.
func (c *Cursor) Advance() error {
	leaf, err := c.tree.Pager.Get(c.PageNum)
	if err != nil {
		return err
	}

	c.CellNum++
	if c.CellNum >= leaf.LeafNumCells() {
		next := leaf.LeafNextLeaf()
		if next == 0 {
			c.EndOfTable = true
		} else {
			c.PageNum = next
			c.CellNum = 0
		}
	}
	return nil
}

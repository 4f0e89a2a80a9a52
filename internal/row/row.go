// Package row maps the fixed-schema Row record to and from its on-disk
// byte layout inside a leaf cell's value slot, grounded on the
// id/key + fixed-width-slot convention the teacher's BPlusTree package
// uses for key/value cells (BPlusTree/node.go, BPlusTree/auxiliary.go),
// but fixed to spec.md's exact schema rather than the teacher's
// variable-length KV.
package row

import "encoding/binary"

const (
	// IDSize is the width in bytes of the primary key on disk.
	IDSize = 4
	// UsernameMaxLen is the largest username spec.md accepts.
	UsernameMaxLen = 32
	// UsernameSlotSize includes one byte for a trailing null.
	UsernameSlotSize = UsernameMaxLen + 1
	// EmailMaxLen is the largest email spec.md accepts.
	EmailMaxLen = 255
	// EmailSlotSize includes one byte for a trailing null.
	EmailSlotSize = EmailMaxLen + 1

	// Size is ROW_SIZE: the fixed width of a serialized Row.
	Size = IDSize + UsernameSlotSize + EmailSlotSize

	idOffset       = 0
	usernameOffset = idOffset + IDSize
	emailOffset    = usernameOffset + UsernameSlotSize
)

// Row is one record: a non-negative u32 primary key plus two UTF-8
// strings bounded by spec.md's fixed slots.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Serialize writes id, then the full fixed username slot, then the full
// fixed email slot into dest, which must be at least Size bytes. Unused
// trailing bytes in each slot are zeroed so that two serializations of
// an equal Row are byte-identical.
func Serialize(r Row, dest []byte) {
	binary.LittleEndian.PutUint32(dest[idOffset:], r.ID)

	usernameSlot := dest[usernameOffset : usernameOffset+UsernameSlotSize]
	clear(usernameSlot)
	copy(usernameSlot, r.Username)

	emailSlot := dest[emailOffset : emailOffset+EmailSlotSize]
	clear(emailSlot)
	copy(emailSlot, r.Email)
}

// Deserialize reverses Serialize, reading a Row out of src.
func Deserialize(src []byte) Row {
	return Row{
		ID:       binary.LittleEndian.Uint32(src[idOffset:]),
		Username: cString(src[usernameOffset : usernameOffset+UsernameSlotSize]),
		Email:    cString(src[emailOffset : emailOffset+EmailSlotSize]),
	}
}

// cString trims a fixed slot at its first null byte, the same
// null-terminated-slot convention the fixed username/email layout uses.
func cString(slot []byte) string {
	for i, b := range slot {
		if b == 0 {
			return string(slot[:i])
		}
	}
	return string(slot)
}

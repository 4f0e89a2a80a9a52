// Package engine executes parsed statements against an open table:
// insert, select, and the `.`-prefixed meta-commands.
//
// Recoverable failures here are plain sentinel errors compared with
// errors.Is, the same convention the rest of this module uses (see
// tree.ErrDuplicateKey) rather than a richer tagged-error type —
// spec.md §7 only asks that these be printed and that the REPL keep
// going, and a sentinel carries exactly that much information.
package engine

import "errors"

// ErrUnrecognizedMetaCommand is returned by ExecuteMeta for any
// `.`-prefixed command this engine doesn't know. ExecuteMeta wraps it
// with the offending line via fmt.Errorf("%w '%s'", ...) rather than
// baking the line into the sentinel itself.
var ErrUnrecognizedMetaCommand = errors.New("Unrecognized command")

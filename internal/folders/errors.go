package folders

import "errors"

// ErrNotFound covers both a missing id and an id the caller has no grant on.
// The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("node not found")

// ErrParentNotFound is returned where the parent/child distinction matters,
// e.g. creating a folder under an explicit parent id.
var ErrParentNotFound = errors.New("parent folder not found")

// ErrInvalidType means a stored node is neither file nor folder. That is data
// corruption and is surfaced, never defaulted.
var ErrInvalidType = errors.New("node has an invalid type")

// ErrPartialNotFound is returned when a multi-id request resolves fewer nodes
// than it asked for.
var ErrPartialNotFound = errors.New("one or more requested nodes could not be resolved")

// ErrNotAFolder is returned when an operation requires a folder target, e.g.
// moving a node under a file.
var ErrNotAFolder = errors.New("target node is not a folder")

// ErrCycle is returned when a move would place a folder inside its own
// subtree.
var ErrCycle = errors.New("cannot move a folder into its own subtree")

package peer

import "errors"

// ErrUnsolicited is returned when a peer sends a reply to a request no
// one is waiting on from them (spec.md §7 protocol-misbehavior class).
var ErrUnsolicited = errors.New("unsolicited reply")

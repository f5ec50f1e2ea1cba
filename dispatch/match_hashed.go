//go:build !gdext_legacy

package dispatch

// Hosts of this generation send the expected signature hash with every
// lookup; an entry compiled against a different hash stays invisible.
func matches(e Entry, hash uint32) bool {
	return e.Hash == hash
}

//go:build gdext_legacy

package dispatch

// Hosts of this generation do not send a hash; the name alone decides.
func matches(Entry, uint32) bool {
	return true
}

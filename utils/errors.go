package utils

// NilPacketError indicates that a nil packet reached a worker input.
type NilPacketError struct {
}

// Error returns the error message for NilPacketError.
func (NilPacketError) Error() string {
	return "nil packet"
}

package mode

// Mode represents enumeration of storage work modes.
type Mode uint32

const (
	// ReadWrite is a Mode value for storage that is available
	// for read and write operations. Default storage mode.
	ReadWrite Mode = iota

	// ReadOnly is a Mode value for storage that does not
	// accept write operations but is readable.
	ReadOnly

	// Degraded is a Mode value for read-only storage whose consistency
	// could not be confirmed on open (it was left in the middle of an
	// operation) and which was not allowed to repair itself. Reads are
	// served but may return stale or missing data.
	Degraded
)

func (m Mode) String() string {
	switch m {
	default:
		return "UNDEFINED"
	case ReadWrite:
		return "READ_WRITE"
	case ReadOnly:
		return "READ_ONLY"
	case Degraded:
		return "DEGRADED"
	}
}

// ReadOnly returns true if m refuses write operations.
func (m Mode) ReadOnly() bool {
	return m != ReadWrite
}

package constants

// Buffer size constants in bytes
const (
	// ReadBufferSize is the size of a single socket read (4KB). It is also
	// the chunking granularity the telnet filter sees, so control sequences
	// regularly straddle two reads of this size.
	ReadBufferSize = 4096

	// CaptureBufferSize is the buffered-writer size in front of the
	// compressed capture spool (64KB).
	CaptureBufferSize = 64 * 1024
)

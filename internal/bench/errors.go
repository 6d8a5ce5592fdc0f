package bench

import "fmt"

// BenchErrorTypes is an enum for the different kinds of failures the
// benchmark harness can surface.
type BenchErrorTypes uint8

const (

	// BadArgument is returned when a numeric flag value is missing,
	// unparsable or not positive.
	BenchBadArgument = iota

	// UnknownFlag is returned when the command line carries a flag the
	// harness does not know.
	BenchUnknownFlag

	// ConfigFile is returned when the YAML configuration file cannot be
	// read or parsed.
	BenchConfigFile

	// WriterFailure is returned when a writer task fails to open or write
	// its output file.
	BenchWriterFailure
)

// BenchError is the error type surfaced by the bench package.
type BenchError struct {
	// Type is the kind of failure that occurred.
	Type BenchErrorTypes
	// Message is a human-readable message that describes the failure.
	Message string
	// Context is a map of key-value pairs that provide additional context.
	Context map[string]string
}

// NewBenchError creates a new BenchError with the given type, message and context.
func NewBenchError(t BenchErrorTypes, m string, c map[string]string) *BenchError {
	return &BenchError{
		Type:    t,
		Message: m,
		Context: c,
	}
}

// Error returns the failure message in respect to the Golang error interface.
func (e *BenchError) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s. Context: %v", e.Message, e.Context)
}

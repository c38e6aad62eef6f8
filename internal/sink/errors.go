package sink

import (
	"errors"
	"fmt"
)

// Configuration errors. All of them match ErrConfiguration with errors.Is and
// are returned by Wrap before any file is opened.
var (
	// ErrConfiguration is the parent of every configuration error.
	ErrConfiguration = errors.New("invalid sink configuration")

	// ErrRotatingFile is returned for Type == TypeRotatingFile.
	ErrRotatingFile = fmt.Errorf("%w: rotating files aren't supported", ErrConfiguration)

	// ErrMissingStream is returned when neither a usable stream nor a path is set.
	ErrMissingStream = fmt.Errorf("%w: missing stream or path", ErrConfiguration)

	// ErrRawUnsupported is returned for raw mode without a RecordWriter to receive records.
	ErrRawUnsupported = fmt.Errorf("%w: raw mode needs a record writer", ErrConfiguration)
)

// ErrMalformedRecord is returned by Sink.Write for a line that is not a JSON
// object, and by Sink.WriteRecord for a nil record.
var ErrMalformedRecord = errors.New("malformed record")

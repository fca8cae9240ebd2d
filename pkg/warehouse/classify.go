package warehouse

import "strings"

// ErrorKind buckets executor failures for logs and metrics. Classification is
// observational only; the breaker treats all failures identically.
type ErrorKind string

// Failure kinds
const (
	ErrorKindSchema  ErrorKind = "schema"
	ErrorKindTimeout ErrorKind = "timeout"
	ErrorKindOther   ErrorKind = "other"
)

var schemaMarkers = []string{
	"Invalid object name",
	"Invalid column name",
	"not exist",
}

var timeoutMarkers = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

// classifyError maps a query error onto an ErrorKind
func classifyError(err error) ErrorKind {
	if err == nil {
		return ErrorKindOther
	}

	msg := err.Error()

	for _, marker := range schemaMarkers {
		if strings.Contains(msg, marker) {
			return ErrorKindSchema
		}
	}

	lower := strings.ToLower(msg)

	for _, marker := range timeoutMarkers {
		if strings.Contains(lower, marker) {
			return ErrorKindTimeout
		}
	}

	return ErrorKindOther
}

package extract

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind string

const (
	// KindUnavailable covers transport failures, timeouts, and
	// throttling from the extraction service.
	KindUnavailable Kind = "unavailable"
	// KindMalformed covers model output that could not be parsed into
	// the expected schema.
	KindMalformed Kind = "malformed"
	// KindNotRelevant means the model classified the article as not a
	// funding announcement.
	KindNotRelevant Kind = "not_relevant"
)

// ExtractionError wraps any failure to turn an article into a
// candidate deal. Raw parse errors never escape without this wrapper.
type ExtractionError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction %s: %s", e.Kind, e.URL)
	}
	return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsNotRelevant reports whether err is a not-relevant classification,
// which callers treat as a clean "no event" outcome rather than a
// failure.
func IsNotRelevant(err error) bool {
	var ee *ExtractionError
	return errors.As(err, &ee) && ee.Kind == KindNotRelevant
}

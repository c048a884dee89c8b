package assemble

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperifyio/epseditorial/internal/exercisecode"
	"github.com/hyperifyio/epseditorial/internal/tokenize"
)

// ErrNoSessionHeaders is returned when no session header declares an
// exercise count.
var ErrNoSessionHeaders = errors.New("no session header declares an exercise count")

// CodeSetError reports block codes that differ from the expected codes.
type CodeSetError struct {
	Missing []string
	Extra   []string
}

func (e *CodeSetError) Error() string {
	var parts []string
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected codes: "+strings.Join(e.Extra, ", "))
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "missing blocks for: "+strings.Join(e.Missing, ", "))
	}
	return strings.Join(parts, "; ")
}

// CountMismatchError reports a record count that differs from the expected
// code count.
type CountMismatchError struct {
	Expected int
	Got      int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("expected %d records, got %d", e.Expected, e.Got)
}

// ExpectedCodes derives the expected code list from the declared per-session
// exercise counts. A later header for the same session replaces the count.
func ExpectedCodes(headers []tokenize.SessionHeader) ([]string, error) {
	counts := make(map[int]int)
	for _, h := range headers {
		if h.Count > 0 {
			counts[h.Session] = h.Count
		}
	}
	if len(counts) == 0 {
		return nil, ErrNoSessionHeaders
	}
	return exercisecode.Expected(counts), nil
}

// Package find matches user supplied name patterns against Trello objects.
//
// Patterns are regular expressions matched anywhere in an object's name. A
// pattern must select exactly one object; anything else is reported as a
// [ResolutionError] naming the pattern and, for conflicts, every candidate.
package find

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MichaelAquilina/tro/internal/trello"
)

// Errors returned by Resolve and Locator.Locate.
var (
	ErrNotFound             = errors.New("not found")
	ErrMultiple             = errors.New("more than one match")
	ErrInvalidPattern       = errors.New("invalid pattern")
	ErrWildcardCardRequired = errors.New("card name must be specified with list '-' wildcard")
)

// ResolutionError reports a pattern that matched zero or several objects.
type ResolutionError struct {
	Kind    string
	Pattern string
	Matches []string
}

func (e *ResolutionError) Error() string {
	if len(e.Matches) == 0 {
		return fmt.Sprintf("%s not found. Specify a more precise filter than '%s'", e.Kind, e.Pattern)
	}

	quoted := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		quoted[i] = "'" + m + "'"
	}

	return fmt.Sprintf("More than one %s found. Specify a more precise filter than '%s' (Found %s)",
		e.Kind, e.Pattern, strings.Join(quoted, ", "))
}

// Is maps the error onto ErrNotFound or ErrMultiple.
func (e *ResolutionError) Is(target error) bool {
	if len(e.Matches) == 0 {
		return target == ErrNotFound
	}

	return target == ErrMultiple
}

// Compile compiles pattern, folding case when ignoreCase is set.
func Compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	expr := pattern
	if ignoreCase {
		expr = "(?i)" + pattern
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrInvalidPattern, pattern, err)
	}

	return re, nil
}

// Resolve returns the single object whose name matches pattern.
func Resolve[T trello.Named](objects []T, pattern string, ignoreCase bool) (T, error) {
	var zero T

	matches, err := Filter(objects, pattern, ignoreCase)
	if err != nil {
		return zero, err
	}

	if len(matches) == 1 {
		return matches[0], nil
	}

	rerr := &ResolutionError{Kind: zero.Kind(), Pattern: pattern}
	for _, m := range matches {
		rerr.Matches = append(rerr.Matches, m.GetName())
	}

	return zero, rerr
}

// Filter returns every object whose name matches pattern, in order.
func Filter[T trello.Named](objects []T, pattern string, ignoreCase bool) ([]T, error) {
	re, err := Compile(pattern, ignoreCase)
	if err != nil {
		return nil, err
	}

	var out []T

	for _, o := range objects {
		if re.MatchString(o.GetName()) {
			out = append(out, o)
		}
	}

	return out, nil
}

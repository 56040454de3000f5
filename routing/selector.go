package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSelector is returned for selectors with fewer than two segments.
var ErrInvalidSelector = errors.New("invalid selector")

// Selector is a parsed [namespace.]Service.Method string.
type Selector struct {
	Namespace string
	Class     string
	Method    string
}

// ParseSelector splits selector on dots. The last segment is the method, the
// one before it the service, and whatever precedes them is the namespace.
func ParseSelector(selector string) (Selector, error) {
	parts := strings.Split(selector, ".")
	if len(parts) < 2 {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}

	n := len(parts)
	return Selector{
		Namespace: strings.Join(parts[:n-2], "."),
		Class:     parts[n-2],
		Method:    parts[n-1],
	}, nil
}

// Service returns the fully-qualified service name.
func (s Selector) Service() string {
	if s.Namespace == "" {
		return s.Class
	}
	return s.Namespace + "." + s.Class
}

func (s Selector) String() string {
	return s.Service() + "." + s.Method
}

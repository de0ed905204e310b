//go:build !windows

package speech

import "fmt"

// NewSAPI is only available on Windows.
func NewSAPI(Options) (Speaker, error) {
	return nil, fmt.Errorf("%w: SAPI requires windows", ErrUnavailable)
}

//go:build !windows

package calendar

import (
	"context"
	"time"

	"dailybrief/internal/model"
)

// Outlook is only available on Windows; elsewhere every read fails with
// ErrUnsupported.
type Outlook struct {
	opts OutlookOptions
}

func NewOutlook(opts OutlookOptions) *Outlook {
	return &Outlook{opts: opts.normalized()}
}

func (o *Outlook) Events(_ context.Context, _, _ time.Time) ([]model.Event, error) {
	return nil, ErrUnsupported
}

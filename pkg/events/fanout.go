package events

import (
	"context"
	"errors"
)

// FanOut publishes every event to each non-nil publisher and joins their errors.
type FanOut []Publisher

func NewFanOut(publishers ...Publisher) FanOut {
	out := make(FanOut, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f FanOut) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package chain runs ordered fallback strategies and stops at the first success.
package chain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned when every strategy failed.
var ErrExhausted = errors.New("all strategies failed")

// Strategy is one attempt in a fallback chain. Run returns ok=false (or an
// error) to pass control to the next strategy.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// First tries strategies in order and returns the first successful value
// together with the name of the strategy that produced it.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	var errs []error

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", errors.Join(append(errs, err)...)
		}

		v, ok, err := s.Run(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		if ok {
			return v, s.Name, nil
		}
	}

	return zero, "", errors.Join(append([]error{ErrExhausted}, errs...)...)
}

// Delayed waits d before running s, unless ctx ends first.
func Delayed[T any](d time.Duration, s Strategy[T]) Strategy[T] {
	if d <= 0 {
		return s
	}
	return Strategy[T]{
		Name: s.Name,
		Run: func(ctx context.Context) (T, bool, error) {
			var zero T
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return zero, false, ctx.Err()
			case <-timer.C:
			}
			return s.Run(ctx)
		},
	}
}

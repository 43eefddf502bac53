package resolve

import (
	"context"
	"errors"
	"fmt"
)

type attempt[T any] struct {
	name string
	run  func(ctx context.Context) (T, error)
}

// firstOf runs attempts in order and returns the first success. If every
// attempt fails the joined errors are returned, each tagged with its name.
func firstOf[T any](ctx context.Context, attempts []attempt[T]) (T, error) {
	var zero T
	errs := make([]error, 0, len(attempts))

	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		value, err := a.run(ctx)
		if err == nil {
			return value, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.name, err))
	}

	if len(errs) == 0 {
		return zero, errors.New("nothing to try")
	}
	return zero, errors.Join(errs...)
}

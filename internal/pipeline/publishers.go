package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

// Publishers fans a snapshot out to every sink in order. All sinks are
// attempted; their errors are joined.
type Publishers []Publisher

func (ps Publishers) Publish(ctx context.Context, snap domain.Snapshot) error {
	var errs []error
	for i, p := range ps {
		if err := p.Publish(ctx, snap); err != nil {
			errs = append(errs, fmt.Errorf("sink %d (%T): %w", i, p, err))
		}
	}
	return errors.Join(errs...)
}

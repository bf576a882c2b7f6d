package generator

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Exclusive collapses concurrent generations for the same license into one
// pipeline run. The file store tolerates racing writers, but running the
// pipeline twice for one license wastes render work and can interleave
// cleanup with a sibling's writes.
type Exclusive struct {
	svc   *Service
	group singleflight.Group
}

func NewExclusive(svc *Service) *Exclusive {
	return &Exclusive{svc: svc}
}

// Generate runs at most one pipeline per license at a time; concurrent
// callers for the same license share the leader's result.
func (e *Exclusive) Generate(ctx context.Context, req Request) (Result, error) {
	v, err, _ := e.group.Do(req.License.ID, func() (any, error) {
		return e.svc.Generate(ctx, req)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Preview is pass-through; previews are read-only and need no collapsing.
func (e *Exclusive) Preview(ctx context.Context, req Request, side Side) ([]byte, error) {
	return e.svc.Preview(ctx, req, side)
}

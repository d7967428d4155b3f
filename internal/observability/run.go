package observability

import (
	"context"
	"time"

	deorbit "github.com/TenessyD/MGA802-projet-final"
)

// RunDecay runs d within a span and records its outcome on the collector, which may be nil.
func RunDecay(ctx context.Context, s *deorbit.Scenario, d *deorbit.Decay, c *Collector) (*deorbit.Result, error) {
	ctx, span := StartRun(ctx, s)
	began := time.Now()
	result, err := d.Run(ctx)
	c.Observe(s.Approach, result, time.Since(began), err)
	EndRun(span, result, err)
	return result, err
}

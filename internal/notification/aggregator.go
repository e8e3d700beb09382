package notification

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/asset-portal/internal/metrics"
	"github.com/frahmantamala/asset-portal/internal/session"
)

type Aggregator struct {
	sources []Source
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewAggregator(sources []Source, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Compute queries every source concurrently. A failing source contributes nothing.
// The result is sorted by ascending priority; ties keep source order.
func (a *Aggregator) Compute(ctx context.Context, viewer session.State) []Notification {
	now := a.now()
	results := make([][]Notification, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			found, err := src.Fetch(ctx, viewer, now)
			if err != nil {
				a.logger.Warn("notification source failed", "source", src.Name, "error", err)
				a.metrics.RecordNotificationFailure(src.Name)
				return nil
			}
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	all := make([]Notification, 0)
	for _, found := range results {
		all = append(all, found...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Priority < all[j].Priority
	})

	a.metrics.SetNotifications(len(all))
	return all
}

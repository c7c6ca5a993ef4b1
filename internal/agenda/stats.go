package agenda

import (
	"context"
	"fmt"
	"time"
)

// StatsInRange counts appointments by status over [from, to], both ends
// inclusive. It issues a single status-only query and tallies locally,
// without touching the cached collection. A query failure yields nil and is
// recorded in the error slot.
func (c *Cache) StatsInRange(ctx context.Context, from, to time.Time) *Stats {
	done := c.begin()
	defer done()

	statuses, err := c.repo.ListStatusesInRange(ctx, from, to)
	if err != nil {
		c.fail("stats", fmt.Errorf("list statuses: %w", err))
		return nil
	}

	s := &Stats{Total: len(statuses)}
	for _, st := range statuses {
		switch st {
		case StatusScheduled:
			s.Scheduled++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCompleted:
			s.Completed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

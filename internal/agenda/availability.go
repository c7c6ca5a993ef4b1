package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Business-hours policy: hourly slots from 08:00 through 17:00, ten per day.
// Fixed by the clinic, not configurable.
const (
	openingHour  = 8
	slotsPerDay  = 10
	slotInterval = time.Hour
)

// Availability computes the bookable instants for a professional on the
// given calendar date. It reads only from the store: booked times are the
// professional's non-cancelled appointments within [day 00:00:00,
// day 23:59:59), and a candidate is blocked only when its formatted
// timestamp matches a booked one exactly. A booking at a non-aligned time
// therefore does not block the nearest slot; that simplification is part of
// the contract.
//
// A query failure yields an empty list and is recorded in the error slot.
func (c *Cache) Availability(ctx context.Context, professionalID uuid.UUID, day time.Time) []time.Time {
	done := c.begin()
	defer done()

	y, m, d := day.Date()
	loc := day.Location()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := time.Date(y, m, d, 23, 59, 59, 0, loc)

	booked, err := c.repo.ListBookedTimes(ctx, professionalID, dayStart, dayEnd)
	if err != nil {
		c.fail("availability", fmt.Errorf("list booked times: %w", err))
		return nil
	}

	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t.UTC().Format(time.RFC3339)] = true
	}

	var free []time.Time
	first := time.Date(y, m, d, openingHour, 0, 0, 0, loc)
	for i := 0; i < slotsPerDay; i++ {
		slot := first.Add(time.Duration(i) * slotInterval)
		if !taken[slot.UTC().Format(time.RFC3339)] {
			free = append(free, slot)
		}
	}
	return free
}

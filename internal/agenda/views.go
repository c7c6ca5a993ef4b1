package agenda

import (
	"sort"
	"time"
)

// Derived views are recomputed from the current collection on every call.
// Time-dependent views take the reference instant explicitly so callers (and
// tests) control what "now" means.

// Today returns the cached appointments scheduled on the same calendar date
// as now, in cache order. The comparison is by date portion only, evaluated
// in now's location.
func (c *Cache) Today(now time.Time) []Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()

	y, m, d := now.Date()
	var out []Appointment
	for _, a := range c.appointments {
		ay, am, ad := a.ScheduledAt.In(now.Location()).Date()
		if ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	return out
}

// Upcoming returns at most 5 appointments strictly after now, soonest first.
func (c *Cache) Upcoming(now time.Time) []Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Appointment
	for _, a := range c.appointments {
		if a.ScheduledAt.After(now) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledAt.Before(out[j].ScheduledAt)
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}

// ByStatus groups the cached appointments by status, preserving cache order
// within each group. Records with no status are grouped as AGENDADO.
func (c *Cache) ByStatus() map[Status][]Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()

	groups := make(map[Status][]Appointment)
	for _, a := range c.appointments {
		status := a.Status
		if status == "" {
			status = StatusScheduled
		}
		groups[status] = append(groups[status], a)
	}
	return groups
}

// Count returns the number of cached appointments.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.appointments)
}

package agenda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Default notes attached by the convenience status helpers when the caller
// gives none. These strings are part of the stored data, so they stay in the
// clinic's language.
const (
	defaultCancelNote   = "Cancelado pelo usuário"
	defaultCompleteNote = "Atendimento realizado"
)

// Cache keeps a local mirror of the remote appointment collection. Every
// operation calls the repository first and only mutates local state with the
// result, so the mirror tracks what the store last confirmed. It is an
// explicit instance, not a package global: callers construct one per process
// and share it.
//
// Reads (List, GetByID, Availability, StatsInRange) swallow repository
// failures into the error slot and degrade to empty results. Writes (Create,
// Update, Remove and their status wrappers) record the failure and also
// return it.
type Cache struct {
	repo Repository
	log  zerolog.Logger

	mu           sync.Mutex
	appointments []Appointment
	current      *Appointment
	busy         bool
	lastErr      string
}

func NewCache(repo Repository, log zerolog.Logger) *Cache {
	return &Cache{repo: repo, log: log.With().Str("component", "agenda-cache").Logger()}
}

// begin marks the cache busy and clears the error slot. The returned func
// releases the busy flag and must run on every exit path.
func (c *Cache) begin() func() {
	c.mu.Lock()
	c.busy = true
	c.lastErr = ""
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}
}

func (c *Cache) fail(op string, err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	c.log.Error().Err(err).Str("op", op).Msg("agenda operation failed")
}

// Busy reports whether an operation is in flight.
func (c *Cache) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// LastError returns the message recorded by the most recent failed
// operation, or "" if the last operation succeeded.
func (c *Cache) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Appointments returns a snapshot of the cached collection.
func (c *Cache) Appointments() []Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Appointment, len(c.appointments))
	copy(out, c.appointments)
	return out
}

// Current returns the currently viewed appointment, or nil.
func (c *Cache) Current() *Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// List refreshes the whole local collection from the store. On success the
// previous contents are replaced entirely, so records deleted remotely
// disappear here too. On failure the collection is left untouched and the
// error is only recorded.
func (c *Cache) List(ctx context.Context, f Filter) []Appointment {
	done := c.begin()
	defer done()

	items, err := c.repo.ListAppointments(ctx, f)
	if err != nil {
		c.fail("list", fmt.Errorf("list appointments: %w", err))
		return nil
	}

	c.mu.Lock()
	c.appointments = items
	out := make([]Appointment, len(items))
	copy(out, items)
	c.mu.Unlock()
	return out
}

// GetByID fetches one appointment with full patient/professional detail and
// makes it the current appointment. Not-found and query failures both leave
// the current slot as it was and return nil.
func (c *Cache) GetByID(ctx context.Context, id uuid.UUID) *Appointment {
	done := c.begin()
	defer done()

	appt, err := c.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		c.fail("get", fmt.Errorf("get appointment %s: %w", id, err))
		return nil
	}

	c.mu.Lock()
	c.current = appt
	c.mu.Unlock()
	cp := *appt
	return &cp
}

// Create inserts the appointment remotely and appends the stored record to
// the local collection.
func (c *Cache) Create(ctx context.Context, n NewAppointment) (*Appointment, error) {
	done := c.begin()
	defer done()

	created, err := c.repo.CreateAppointment(ctx, n)
	if err != nil {
		err = fmt.Errorf("create appointment: %w", err)
		c.fail("create", err)
		return nil, err
	}

	c.mu.Lock()
	c.appointments = append(c.appointments, *created)
	c.mu.Unlock()
	cp := *created
	return &cp, nil
}

// Update stamps the patch with the current instant, applies it remotely and
// replaces the matching local entry in place. The current appointment slot
// is refreshed when it holds the same id.
func (c *Cache) Update(ctx context.Context, id uuid.UUID, p Patch) (*Appointment, error) {
	done := c.begin()
	defer done()

	p.UpdatedAt = time.Now()

	updated, err := c.repo.UpdateAppointment(ctx, id, p)
	if err != nil {
		err = fmt.Errorf("update appointment %s: %w", id, err)
		c.fail("update", err)
		return nil, err
	}

	c.mu.Lock()
	for i := range c.appointments {
		if c.appointments[i].ID == id {
			c.appointments[i] = *updated
			break
		}
	}
	if c.current != nil && c.current.ID == id {
		cp := *updated
		c.current = &cp
	}
	c.mu.Unlock()

	cp := *updated
	return &cp, nil
}

// Cancel sets the appointment to CANCELADO, attaching the reason or a
// default note.
func (c *Cache) Cancel(ctx context.Context, id uuid.UUID, reason string) (*Appointment, error) {
	if reason == "" {
		reason = defaultCancelNote
	}
	status := StatusCancelled
	return c.Update(ctx, id, Patch{Status: &status, Notes: &reason})
}

// Confirm sets the appointment to CONFIRMADO.
func (c *Cache) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	status := StatusConfirmed
	return c.Update(ctx, id, Patch{Status: &status})
}

// MarkCompleted sets the appointment to REALIZADO with the visit notes or a
// default note.
func (c *Cache) MarkCompleted(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	if notes == "" {
		notes = defaultCompleteNote
	}
	status := StatusCompleted
	return c.Update(ctx, id, Patch{Status: &status, Notes: &notes})
}

// Remove deletes the appointment remotely, drops it from the local
// collection and clears the current slot if it pointed at the same record.
func (c *Cache) Remove(ctx context.Context, id uuid.UUID) (bool, error) {
	done := c.begin()
	defer done()

	if err := c.repo.DeleteAppointment(ctx, id); err != nil {
		err = fmt.Errorf("delete appointment %s: %w", id, err)
		c.fail("remove", err)
		return false, err
	}

	c.mu.Lock()
	kept := c.appointments[:0]
	for _, a := range c.appointments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	c.appointments = kept
	if c.current != nil && c.current.ID == id {
		c.current = nil
	}
	c.mu.Unlock()
	return true, nil
}

// Clear resets the collection, the current appointment and the error slot.
// The busy flag is left alone so an in-flight operation still reports busy.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.appointments = nil
	c.current = nil
	c.lastErr = ""
	c.mu.Unlock()
}

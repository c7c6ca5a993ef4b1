package agenda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestSweeperMarksOverdueScheduled(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	overdue := seedAppointment(t, repo, cache, time.Now().Add(-3*time.Hour), StatusScheduled)
	seedAppointment(t, repo, cache, time.Now().Add(-3*time.Hour), StatusConfirmed)
	recent := seedAppointment(t, repo, cache, time.Now().Add(-time.Hour), StatusScheduled)

	s := NewSweeper(repo, 2*time.Hour, zerolog.Nop())
	marked, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if marked != 1 {
		t.Fatalf("Run() marked %d, want 1", marked)
	}

	got := repo.appointments[overdue.ID]
	if got.Status != StatusNoShow {
		t.Errorf("overdue status = %s, want %s", got.Status, StatusNoShow)
	}
	if got.Notes == nil || *got.Notes != "Paciente não compareceu" {
		t.Errorf("overdue notes = %v, want no-show note", got.Notes)
	}
	if repo.appointments[recent.ID].Status != StatusScheduled {
		t.Error("appointment inside the grace window must stay AGENDADO")
	}
}

func TestSweeperNothingOverdue(t *testing.T) {
	repo := newFakeRepo()
	s := NewSweeper(repo, time.Hour, zerolog.Nop())

	marked, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if marked != 0 {
		t.Fatalf("Run() marked %d on empty store, want 0", marked)
	}
}

func TestSweeperQueryFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")
	s := NewSweeper(repo, time.Hour, zerolog.Nop())

	if _, err := s.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}

func TestSweeperSkipsFailedUpdates(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now().Add(-3*time.Hour), StatusScheduled)

	// The update target disappears between the query and the update.
	failing := &vanishingRepo{fakeRepo: repo, vanish: a.ID}
	s := NewSweeper(failing, 2*time.Hour, zerolog.Nop())

	marked, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if marked != 0 {
		t.Fatalf("Run() marked %d, want 0 when the update fails", marked)
	}
}

// vanishingRepo fails updates for one id.
type vanishingRepo struct {
	*fakeRepo
	vanish uuid.UUID
}

func (v *vanishingRepo) UpdateAppointment(ctx context.Context, id uuid.UUID, p Patch) (*Appointment, error) {
	if id == v.vanish {
		return nil, ErrAppointmentNotFound
	}
	return v.fakeRepo.UpdateAppointment(ctx, id, p)
}

package agenda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newTestCache(repo Repository) *Cache {
	return NewCache(repo, zerolog.Nop())
}

func seedAppointment(t *testing.T, repo *fakeRepo, cache *Cache, at time.Time, status Status) Appointment {
	t.Helper()
	created, err := cache.Create(context.Background(), NewAppointment{
		PatientID:      uuid.New(),
		ProfessionalID: uuid.New(),
		ScheduledAt:    at,
		Kind:           KindConsultation,
		Status:         status,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return *created
}

func TestCreateAppendsToCollection(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	created := seedAppointment(t, repo, cache, time.Now().Add(24*time.Hour), StatusScheduled)

	if cache.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", cache.Count())
	}
	got := cache.Appointments()
	if got[0].ID != created.ID {
		t.Errorf("cached id = %s, want %s", got[0].ID, created.ID)
	}
	if cache.LastError() != "" {
		t.Errorf("LastError() = %q, want empty", cache.LastError())
	}
}

func TestCreateFailurePropagatesAndRecords(t *testing.T) {
	repo := newFakeRepo()
	repo.failWith = errors.New("connection refused")
	cache := newTestCache(repo)

	_, err := cache.Create(context.Background(), NewAppointment{ScheduledAt: time.Now()})
	if err == nil {
		t.Fatal("Create() error = nil, want error")
	}
	if cache.LastError() == "" {
		t.Error("LastError() empty after failed create")
	}
	if cache.Count() != 0 {
		t.Errorf("Count() = %d, want 0", cache.Count())
	}
}

func TestListReplacesCollection(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now().Add(2*time.Hour), StatusScheduled)
	seedAppointment(t, repo, cache, time.Now().Add(time.Hour), StatusConfirmed)

	// Remote deletion that the cache has not seen yet.
	delete(repo.appointments, a.ID)

	got := cache.List(context.Background(), Filter{})
	if len(got) != 1 {
		t.Fatalf("List() returned %d items, want 1", len(got))
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d after refresh, want 1", cache.Count())
	}
}

func TestListReturnsAscendingOrder(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	seedAppointment(t, repo, cache, base.Add(3*time.Hour), StatusScheduled)
	seedAppointment(t, repo, cache, base, StatusScheduled)
	seedAppointment(t, repo, cache, base.Add(time.Hour), StatusScheduled)

	got := cache.List(context.Background(), Filter{})
	if len(got) != 3 {
		t.Fatalf("List() returned %d items, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].ScheduledAt.Before(got[i-1].ScheduledAt) {
			t.Fatalf("List() not in ascending order at index %d", i)
		}
	}
}

func TestListFailureKeepsCollection(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	seedAppointment(t, repo, cache, time.Now(), StatusScheduled)

	repo.failWith = errors.New("timeout")
	got := cache.List(context.Background(), Filter{})
	if got != nil {
		t.Errorf("List() = %v on failure, want nil", got)
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d, failed refresh must not drop the collection", cache.Count())
	}
	if cache.LastError() == "" {
		t.Error("LastError() empty after failed list")
	}
}

func TestGetByIDSetsCurrent(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)

	got := cache.GetByID(context.Background(), a.ID)
	if got == nil {
		t.Fatal("GetByID() = nil")
	}
	cur := cache.Current()
	if cur == nil || cur.ID != a.ID {
		t.Errorf("Current() = %v, want id %s", cur, a.ID)
	}
}

func TestGetByIDNotFoundLeavesCurrent(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)
	cache.GetByID(context.Background(), a.ID)

	if got := cache.GetByID(context.Background(), uuid.New()); got != nil {
		t.Fatalf("GetByID(unknown) = %v, want nil", got)
	}
	if cache.LastError() == "" {
		t.Error("LastError() empty after not-found get")
	}
	cur := cache.Current()
	if cur == nil || cur.ID != a.ID {
		t.Error("failed get must leave the current appointment untouched")
	}
}

func TestUpdateReplacesEntryAndStampsTime(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)
	before := a.UpdatedAt

	status := StatusConfirmed
	updated, err := cache.Update(context.Background(), a.ID, Patch{Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("Status = %s, want %s", updated.Status, StatusConfirmed)
	}
	if !updated.UpdatedAt.After(before) {
		t.Errorf("UpdatedAt = %v, want later than %v", updated.UpdatedAt, before)
	}
	if got := cache.Appointments()[0]; got.Status != StatusConfirmed {
		t.Errorf("cached status = %s, want %s", got.Status, StatusConfirmed)
	}
}

func TestUpdateRefreshesCurrent(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)
	cache.GetByID(context.Background(), a.ID)

	status := StatusConfirmed
	if _, err := cache.Update(context.Background(), a.ID, Patch{Status: &status}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	cur := cache.Current()
	if cur == nil || cur.Status != StatusConfirmed {
		t.Error("current appointment not refreshed by update")
	}
}

func TestCancelUsesDefaultReason(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)

	updated, err := cache.Cancel(context.Background(), a.ID, "")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Errorf("Status = %s, want %s", updated.Status, StatusCancelled)
	}
	if updated.Notes == nil || *updated.Notes != "Cancelado pelo usuário" {
		t.Errorf("Notes = %v, want default cancel note", updated.Notes)
	}
}

func TestCancelKeepsGivenReason(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)

	updated, err := cache.Cancel(context.Background(), a.ID, "paciente viajou")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if updated.Notes == nil || *updated.Notes != "paciente viajou" {
		t.Errorf("Notes = %v, want given reason", updated.Notes)
	}
}

func TestMarkCompletedUsesDefaultNote(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusConfirmed)

	updated, err := cache.MarkCompleted(context.Background(), a.ID, "")
	if err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("Status = %s, want %s", updated.Status, StatusCompleted)
	}
	if updated.Notes == nil || *updated.Notes != "Atendimento realizado" {
		t.Errorf("Notes = %v, want default completion note", updated.Notes)
	}
}

func TestRemoveDropsEntryAndClearsCurrent(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)
	b := seedAppointment(t, repo, cache, time.Now().Add(time.Hour), StatusScheduled)
	cache.GetByID(context.Background(), a.ID)

	ok, err := cache.Remove(context.Background(), a.ID)
	if err != nil || !ok {
		t.Fatalf("Remove() = %v, %v, want true, nil", ok, err)
	}
	if cache.Count() != 1 {
		t.Errorf("Count() = %d, want 1", cache.Count())
	}
	if cache.Current() != nil {
		t.Error("Current() not cleared after removing the viewed appointment")
	}
	if cache.Appointments()[0].ID != b.ID {
		t.Error("wrong appointment removed")
	}
}

func TestRemoveFailureKeepsState(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)

	repo.failWith = errors.New("timeout")
	ok, err := cache.Remove(context.Background(), a.ID)
	if ok || err == nil {
		t.Fatalf("Remove() = %v, %v, want false, error", ok, err)
	}
	if cache.Count() != 1 {
		t.Error("failed remove must not drop the local entry")
	}
}

func TestClearResetsEverythingButBusy(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	a := seedAppointment(t, repo, cache, time.Now(), StatusScheduled)
	cache.GetByID(context.Background(), a.ID)
	repo.failWith = errors.New("boom")
	cache.List(context.Background(), Filter{})

	cache.Clear()

	if cache.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", cache.Count())
	}
	if cache.Current() != nil {
		t.Error("Current() not nil after Clear")
	}
	if cache.LastError() != "" {
		t.Errorf("LastError() = %q after Clear, want empty", cache.LastError())
	}
}

func TestSuccessfulOperationClearsLastError(t *testing.T) {
	repo := newFakeRepo()
	cache := newTestCache(repo)

	repo.failWith = errors.New("boom")
	cache.List(context.Background(), Filter{})
	if cache.LastError() == "" {
		t.Fatal("expected recorded error")
	}

	repo.failWith = nil
	cache.List(context.Background(), Filter{})
	if cache.LastError() != "" {
		t.Errorf("LastError() = %q after success, want empty", cache.LastError())
	}
}

package agenda

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrPersonNotFound      = errors.New("person not found")
	ErrAccountNotFound     = errors.New("user account not found")
	ErrProfileNotFound     = errors.New("profile not found")
)

// Repository is the remote persistence facade. All reads and writes against
// the relational store go through it; the cache never talks to the store
// directly.
type Repository interface {
	// ListAppointments returns appointments matching the filter, joined with
	// patient/professional display data, ordered by scheduled time ascending.
	ListAppointments(ctx context.Context, f Filter) ([]Appointment, error)

	// GetAppointmentByID fetches one appointment with the deeper join
	// (patient birth date, professional specialty and license).
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// CreateAppointment inserts and returns the stored record including the
	// generated id and timestamps.
	CreateAppointment(ctx context.Context, n NewAppointment) (*Appointment, error)

	// UpdateAppointment applies a partial update by id and returns the
	// updated record.
	UpdateAppointment(ctx context.Context, id uuid.UUID, p Patch) (*Appointment, error)

	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// ListBookedTimes returns the scheduled times of a professional's
	// non-cancelled appointments within [from, to).
	ListBookedTimes(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error)

	// ListStatusesInRange returns only the status column for appointments
	// scheduled within [from, to], both ends inclusive.
	ListStatusesInRange(ctx context.Context, from, to time.Time) ([]Status, error)

	// FindOverdueScheduled returns appointments still AGENDADO whose
	// scheduled time is before the cutoff.
	FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	// Identity resolution and signup.
	GetAccountByPrincipal(ctx context.Context, principalID uuid.UUID) (*UserAccount, error)
	GetPersonByID(ctx context.Context, id uuid.UUID) (*Person, error)
	GetProfessionalByPerson(ctx context.Context, personID uuid.UUID) (*ProfessionalProfile, error)
	GetPatientByPerson(ctx context.Context, personID uuid.UUID) (*PatientProfile, error)
	CreatePerson(ctx context.Context, p Person) (*Person, error)
	CreateAccount(ctx context.Context, principalID, personID uuid.UUID) (*UserAccount, error)
	CreateProfessionalProfile(ctx context.Context, p ProfessionalProfile) (*ProfessionalProfile, error)
	CreatePatientProfile(ctx context.Context, p PatientProfile) (*PatientProfile, error)
}

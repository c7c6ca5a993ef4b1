package agenda

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository for tests. Setting failWith makes
// every call return that error.
type fakeRepo struct {
	appointments  map[uuid.UUID]Appointment
	persons       map[uuid.UUID]Person
	accounts      map[uuid.UUID]UserAccount
	professionals map[uuid.UUID]ProfessionalProfile
	patients      map[uuid.UUID]PatientProfile

	failWith error
	calls    []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		appointments:  make(map[uuid.UUID]Appointment),
		persons:       make(map[uuid.UUID]Person),
		accounts:      make(map[uuid.UUID]UserAccount),
		professionals: make(map[uuid.UUID]ProfessionalProfile),
		patients:      make(map[uuid.UUID]PatientProfile),
	}
}

func (f *fakeRepo) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failWith
}

func (f *fakeRepo) ListAppointments(_ context.Context, filter Filter) ([]Appointment, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	var out []Appointment
	for _, a := range f.appointments {
		if filter.From != nil && a.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && a.ScheduledAt.After(*filter.To) {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, a)
	}
	// Stable ascending order like the SQL layer.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ScheduledAt.Before(out[j-1].ScheduledAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	if err := f.record("get"); err != nil {
		return nil, err
	}
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, n NewAppointment) (*Appointment, error) {
	if err := f.record("create"); err != nil {
		return nil, err
	}
	now := time.Now()
	a := Appointment{
		ID:             uuid.New(),
		PatientID:      n.PatientID,
		ProfessionalID: n.ProfessionalID,
		ScheduledAt:    n.ScheduledAt,
		Kind:           n.Kind,
		Status:         n.Status,
		Value:          n.Value,
		Notes:          n.Notes,
		PaymentMethod:  n.PaymentMethod,
		Paid:           n.Paid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	f.appointments[a.ID] = a
	return &a, nil
}

func (f *fakeRepo) UpdateAppointment(_ context.Context, id uuid.UUID, p Patch) (*Appointment, error) {
	if err := f.record("update"); err != nil {
		return nil, err
	}
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if p.PatientID != nil {
		a.PatientID = *p.PatientID
	}
	if p.ProfessionalID != nil {
		a.ProfessionalID = *p.ProfessionalID
	}
	if p.ScheduledAt != nil {
		a.ScheduledAt = *p.ScheduledAt
	}
	if p.Kind != nil {
		a.Kind = *p.Kind
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Value != nil {
		a.Value = p.Value
	}
	if p.Notes != nil {
		a.Notes = p.Notes
	}
	if p.PaymentMethod != nil {
		a.PaymentMethod = p.PaymentMethod
	}
	if p.Paid != nil {
		a.Paid = p.Paid
	}
	a.UpdatedAt = p.UpdatedAt
	f.appointments[id] = a
	return &a, nil
}

func (f *fakeRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	if err := f.record("delete"); err != nil {
		return err
	}
	if _, ok := f.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(f.appointments, id)
	return nil
}

func (f *fakeRepo) ListBookedTimes(_ context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	if err := f.record("booked"); err != nil {
		return nil, err
	}
	var out []time.Time
	for _, a := range f.appointments {
		if a.ProfessionalID != professionalID || a.Status == StatusCancelled {
			continue
		}
		if a.ScheduledAt.Before(from) || !a.ScheduledAt.Before(to) {
			continue
		}
		out = append(out, a.ScheduledAt)
	}
	return out, nil
}

func (f *fakeRepo) ListStatusesInRange(_ context.Context, from, to time.Time) ([]Status, error) {
	if err := f.record("statuses"); err != nil {
		return nil, err
	}
	var out []Status
	for _, a := range f.appointments {
		if a.ScheduledAt.Before(from) || a.ScheduledAt.After(to) {
			continue
		}
		out = append(out, a.Status)
	}
	return out, nil
}

func (f *fakeRepo) FindOverdueScheduled(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	if err := f.record("overdue"); err != nil {
		return nil, err
	}
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusScheduled && a.ScheduledAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetAccountByPrincipal(_ context.Context, principalID uuid.UUID) (*UserAccount, error) {
	if err := f.record("account"); err != nil {
		return nil, err
	}
	for _, u := range f.accounts {
		if u.PrincipalID == principalID {
			cp := u
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *fakeRepo) GetPersonByID(_ context.Context, id uuid.UUID) (*Person, error) {
	if err := f.record("person"); err != nil {
		return nil, err
	}
	p, ok := f.persons[id]
	if !ok {
		return nil, ErrPersonNotFound
	}
	return &p, nil
}

func (f *fakeRepo) GetProfessionalByPerson(_ context.Context, personID uuid.UUID) (*ProfessionalProfile, error) {
	if err := f.record("professional"); err != nil {
		return nil, err
	}
	for _, p := range f.professionals {
		if p.PersonID == personID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (f *fakeRepo) GetPatientByPerson(_ context.Context, personID uuid.UUID) (*PatientProfile, error) {
	if err := f.record("patient"); err != nil {
		return nil, err
	}
	for _, p := range f.patients {
		if p.PersonID == personID {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (f *fakeRepo) CreatePerson(_ context.Context, p Person) (*Person, error) {
	if err := f.record("create-person"); err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.persons[p.ID] = p
	return &p, nil
}

func (f *fakeRepo) CreateAccount(_ context.Context, principalID, personID uuid.UUID) (*UserAccount, error) {
	if err := f.record("create-account"); err != nil {
		return nil, err
	}
	u := UserAccount{
		ID:          uuid.New(),
		PrincipalID: principalID,
		PersonID:    personID,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	u.UpdatedAt = u.CreatedAt
	f.accounts[u.ID] = u
	return &u, nil
}

func (f *fakeRepo) CreateProfessionalProfile(_ context.Context, p ProfessionalProfile) (*ProfessionalProfile, error) {
	if err := f.record("create-professional"); err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.professionals[p.ID] = p
	return &p, nil
}

func (f *fakeRepo) CreatePatientProfile(_ context.Context, p PatientProfile) (*PatientProfile, error) {
	if err := f.record("create-patient"); err != nil {
		return nil, err
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.patients[p.ID] = p
	return &p, nil
}

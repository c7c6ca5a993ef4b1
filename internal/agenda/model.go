package agenda

import (
	"time"

	"github.com/google/uuid"
)

// Status values mirror the remote store's status_agendamento column.
type Status string

const (
	StatusScheduled Status = "AGENDADO"
	StatusConfirmed Status = "CONFIRMADO"
	StatusCompleted Status = "REALIZADO"
	StatusCancelled Status = "CANCELADO"
	StatusNoShow    Status = "FALTOU"
)

type Kind string

const (
	KindConsultation Kind = "CONSULTA"
	KindFollowUp     Kind = "RETORNO"
	KindEvaluation   Kind = "AVALIACAO"
	KindSession      Kind = "SESSAO"
)

type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "DINHEIRO"
	PaymentCard      PaymentMethod = "CARTAO"
	PaymentPix       PaymentMethod = "PIX"
	PaymentInsurance PaymentMethod = "CONVENIO"
)

type Role string

const (
	RolePatient        Role = "PACIENTE"
	RoleProfessional   Role = "PROFISSIONAL"
	RoleAdministrative Role = "ADMINISTRATIVO"
)

type Specialty string

const (
	SpecPhysiotherapy       Specialty = "FISIOTERAPIA"
	SpecOccupationalTherapy Specialty = "TERAPIA_OCUPACIONAL"
	SpecSpeechTherapy       Specialty = "FONOAUDIOLOGIA"
	SpecPsychology          Specialty = "PSICOLOGIA"
	SpecPhysicalEducation   Specialty = "EDUCACAO_FISICA"
)

// PatientInfo is the display data joined onto an appointment when listing.
// BirthDate is only populated by the deeper single-record fetch.
type PatientInfo struct {
	Name      string
	Email     *string
	Phone     *string
	BirthDate *time.Time
}

// ProfessionalInfo carries the professional's display data. Specialty and
// License are only populated by the deeper single-record fetch.
type ProfessionalInfo struct {
	Name      string
	Specialty *Specialty
	License   *string
}

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	ProfessionalID uuid.UUID
	ScheduledAt    time.Time
	Kind           Kind
	Status         Status
	Value          *float64
	Notes          *string
	PaymentMethod  *PaymentMethod
	Paid           *bool
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Patient      *PatientInfo
	Professional *ProfessionalInfo
}

// NewAppointment holds the caller-supplied fields of an appointment about to
// be inserted. The store assigns id and timestamps.
type NewAppointment struct {
	PatientID      uuid.UUID
	ProfessionalID uuid.UUID
	ScheduledAt    time.Time
	Kind           Kind
	Status         Status
	Value          *float64
	Notes          *string
	PaymentMethod  *PaymentMethod
	Paid           *bool
}

// Patch is a partial update. Nil fields are left untouched by the store.
type Patch struct {
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	ScheduledAt    *time.Time
	Kind           *Kind
	Status         *Status
	Value          *float64
	Notes          *string
	PaymentMethod  *PaymentMethod
	Paid           *bool
	UpdatedAt      time.Time
}

// Filter narrows a listing. Zero-value fields are ignored.
type Filter struct {
	From           *time.Time
	To             *time.Time
	PatientID      *uuid.UUID
	ProfessionalID *uuid.UUID
	Status         *Status
}

type Person struct {
	ID        uuid.UUID
	FullName  string
	Email     *string
	Phone     *string
	CPF       *string
	BirthDate *time.Time
	Role      Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAccount links an authenticated principal to a Person.
type UserAccount struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	PersonID    uuid.UUID
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProfessionalProfile struct {
	ID          uuid.UUID
	PersonID    uuid.UUID
	Specialty   Specialty
	License     string
	Price       *float64
	DurationMin *int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type PatientProfile struct {
	ID            uuid.UUID
	PersonID      uuid.UUID
	BirthDate     time.Time
	GuardianName  *string
	GuardianPhone *string
	MedicalNotes  *string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stats is the status breakdown returned by the statistics aggregator.
// No-shows are not broken out; they only contribute to the total.
type Stats struct {
	Total     int `json:"total"`
	Scheduled int `json:"agendados"`
	Confirmed int `json:"confirmados"`
	Completed int `json:"realizados"`
	Cancelled int `json:"cancelados"`
}

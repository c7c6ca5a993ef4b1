package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
)

type CreateAppointmentRequest struct {
	PatientID      string   `json:"paciente_id"`
	ProfessionalID string   `json:"profissional_id"`
	ScheduledAt    string   `json:"data_hora"`
	Kind           string   `json:"tipo_atendimento"`
	Status         string   `json:"status_agendamento,omitempty"`
	Value          *float64 `json:"valor,omitempty"`
	Notes          *string  `json:"observacoes,omitempty"`
	PaymentMethod  *string  `json:"forma_pagamento,omitempty"`
	Paid           *bool    `json:"pago,omitempty"`
}

type UpdateAppointmentRequest struct {
	PatientID      *string  `json:"paciente_id,omitempty"`
	ProfessionalID *string  `json:"profissional_id,omitempty"`
	ScheduledAt    *string  `json:"data_hora,omitempty"`
	Kind           *string  `json:"tipo_atendimento,omitempty"`
	Status         *string  `json:"status_agendamento,omitempty"`
	Value          *float64 `json:"valor,omitempty"`
	Notes          *string  `json:"observacoes,omitempty"`
	PaymentMethod  *string  `json:"forma_pagamento,omitempty"`
	Paid           *bool    `json:"pago,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"motivo,omitempty"`
}

type CompleteRequest struct {
	Notes string `json:"observacoes,omitempty"`
}

type PartyResponse struct {
	Name      string  `json:"nome_completo"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"telefone,omitempty"`
	BirthDate *string `json:"data_nascimento,omitempty"`
	Specialty *string `json:"especialidade,omitempty"`
	License   *string `json:"registro_profissional,omitempty"`
}

type AppointmentResponse struct {
	ID             uuid.UUID      `json:"agendamento_id"`
	PatientID      uuid.UUID      `json:"paciente_id"`
	ProfessionalID uuid.UUID      `json:"profissional_id"`
	ScheduledAt    time.Time      `json:"data_hora"`
	Kind           string         `json:"tipo_atendimento"`
	Status         string         `json:"status_agendamento"`
	Value          *float64       `json:"valor,omitempty"`
	Notes          *string        `json:"observacoes,omitempty"`
	PaymentMethod  *string        `json:"forma_pagamento,omitempty"`
	Paid           *bool          `json:"pago,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Patient        *PartyResponse `json:"paciente,omitempty"`
	Professional   *PartyResponse `json:"profissional,omitempty"`
}

type AvailabilityResponse struct {
	ProfessionalID uuid.UUID `json:"profissional_id"`
	Date           string    `json:"data"`
	Slots          []string  `json:"horarios_disponiveis"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"nome_completo"`
	Role     string `json:"tipo_pessoa"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"expires_at"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"tipo_pessoa,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a agenda.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		ProfessionalID: a.ProfessionalID,
		ScheduledAt:    a.ScheduledAt,
		Kind:           string(a.Kind),
		Status:         string(a.Status),
		Value:          a.Value,
		Notes:          a.Notes,
		Paid:           a.Paid,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.PaymentMethod != nil {
		pm := string(*a.PaymentMethod)
		resp.PaymentMethod = &pm
	}
	if a.Patient != nil {
		resp.Patient = &PartyResponse{
			Name:  a.Patient.Name,
			Email: a.Patient.Email,
			Phone: a.Patient.Phone,
		}
		if a.Patient.BirthDate != nil {
			d := a.Patient.BirthDate.Format("2006-01-02")
			resp.Patient.BirthDate = &d
		}
	}
	if a.Professional != nil {
		resp.Professional = &PartyResponse{Name: a.Professional.Name}
		if a.Professional.Specialty != nil {
			s := string(*a.Professional.Specialty)
			resp.Professional.Specialty = &s
		}
		resp.Professional.License = a.Professional.License
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

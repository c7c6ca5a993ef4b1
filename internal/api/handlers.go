package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
)

func listAppointmentsHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := filterFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		items := cache.List(r.Context(), f)
		if items == nil {
			if msg := cache.LastError(); msg != "" {
				writeError(w, http.StatusBadGateway, "store_unavailable", msg)
				return
			}
			items = []agenda.Appointment{}
		}

		resp := make([]AppointmentResponse, 0, len(items))
		for _, a := range items {
			resp = append(resp, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt := cache.GetByID(r.Context(), id)
		if appt == nil {
			writeError(w, http.StatusNotFound, "appointment_not_found", cache.LastError())
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*appt))
	}
}

func createAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		n, err := newAppointmentFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		created, err := cache.Create(r.Context(), *n)
		if err != nil {
			writeError(w, http.StatusBadGateway, "create_failed", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(*created))
	}
}

func updateAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch, err := patchFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		updated, err := cache.Update(r.Context(), id, *patch)
		if err != nil {
			handleWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*updated))
	}
}

func cancelAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		updated, err := cache.Cancel(r.Context(), id, req.Reason)
		if err != nil {
			handleWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*updated))
	}
}

func confirmAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		updated, err := cache.Confirm(r.Context(), id)
		if err != nil {
			handleWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*updated))
	}
}

func completeAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CompleteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		updated, err := cache.MarkCompleted(r.Context(), id, req.Notes)
		if err != nil {
			handleWriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(*updated))
	}
}

func deleteAppointmentHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		if _, err := cache.Remove(r.Context(), id); err != nil {
			handleWriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func availabilityHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		professionalID, err := uuid.Parse(r.URL.Query().Get("profissional_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_professional_id", "profissional_id must be a valid UUID")
			return
		}

		day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("data"), time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "data must be YYYY-MM-DD")
			return
		}

		slots := cache.Availability(r.Context(), professionalID, day)
		if msg := cache.LastError(); msg != "" {
			writeError(w, http.StatusBadGateway, "store_unavailable", msg)
			return
		}

		out := make([]string, 0, len(slots))
		for _, s := range slots {
			out = append(out, s.Format(time.RFC3339))
		}
		writeJSON(w, http.StatusOK, AvailabilityResponse{
			ProfessionalID: professionalID,
			Date:           day.Format("2006-01-02"),
			Slots:          out,
		})
	}
}

func statsHandler(cache *agenda.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("inicio"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_range", "inicio must be RFC3339")
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("fim"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_range", "fim must be RFC3339")
			return
		}

		stats := cache.StatsInRange(r.Context(), from, to)
		if stats == nil {
			writeError(w, http.StatusBadGateway, "store_unavailable", cache.LastError())
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleWriteError(w http.ResponseWriter, err error) {
	if errors.Is(err, agenda.ErrAppointmentNotFound) {
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "store_error", err.Error())
}

// -- request parsing --

func filterFromQuery(r *http.Request) (agenda.Filter, error) {
	var f agenda.Filter
	q := r.URL.Query()

	if v := q.Get("data_inicio"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("data_inicio must be RFC3339")
		}
		f.From = &t
	}
	if v := q.Get("data_fim"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("data_fim must be RFC3339")
		}
		f.To = &t
	}
	if v := q.Get("paciente_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("paciente_id must be a valid UUID")
		}
		f.PatientID = &id
	}
	if v := q.Get("profissional_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, errors.New("profissional_id must be a valid UUID")
		}
		f.ProfessionalID = &id
	}
	if v := q.Get("status"); v != "" {
		s := agenda.Status(v)
		f.Status = &s
	}
	return f, nil
}

func newAppointmentFromRequest(req CreateAppointmentRequest) (*agenda.NewAppointment, error) {
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return nil, errors.New("paciente_id must be a valid UUID")
	}
	professionalID, err := uuid.Parse(req.ProfessionalID)
	if err != nil {
		return nil, errors.New("profissional_id must be a valid UUID")
	}
	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, errors.New("data_hora must be RFC3339")
	}

	n := agenda.NewAppointment{
		PatientID:      patientID,
		ProfessionalID: professionalID,
		ScheduledAt:    scheduledAt,
		Kind:           agenda.Kind(req.Kind),
		Status:         agenda.StatusScheduled,
		Value:          req.Value,
		Notes:          req.Notes,
		Paid:           req.Paid,
	}
	if req.Status != "" {
		n.Status = agenda.Status(req.Status)
	}
	if req.PaymentMethod != nil {
		pm := agenda.PaymentMethod(*req.PaymentMethod)
		n.PaymentMethod = &pm
	}
	return &n, nil
}

func patchFromRequest(req UpdateAppointmentRequest) (*agenda.Patch, error) {
	var p agenda.Patch

	if req.PatientID != nil {
		id, err := uuid.Parse(*req.PatientID)
		if err != nil {
			return nil, errors.New("paciente_id must be a valid UUID")
		}
		p.PatientID = &id
	}
	if req.ProfessionalID != nil {
		id, err := uuid.Parse(*req.ProfessionalID)
		if err != nil {
			return nil, errors.New("profissional_id must be a valid UUID")
		}
		p.ProfessionalID = &id
	}
	if req.ScheduledAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return nil, errors.New("data_hora must be RFC3339")
		}
		p.ScheduledAt = &t
	}
	if req.Kind != nil {
		k := agenda.Kind(*req.Kind)
		p.Kind = &k
	}
	if req.Status != nil {
		s := agenda.Status(*req.Status)
		p.Status = &s
	}
	if req.PaymentMethod != nil {
		pm := agenda.PaymentMethod(*req.PaymentMethod)
		p.PaymentMethod = &pm
	}
	p.Value = req.Value
	p.Notes = req.Notes
	p.Paid = req.Paid
	return &p, nil
}

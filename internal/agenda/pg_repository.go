package agenda

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Column lists shared by the appointment queries. The listing join pulls
// display names through pacientes/profissionais into pessoas; the by-id
// variant additionally carries patient birth date and professional
// credentials.
const apptColumns = `
	a.agendamento_id, a.paciente_id, a.profissional_id, a.data_hora,
	a.tipo_atendimento, a.status_agendamento, a.valor, a.observacoes,
	a.forma_pagamento, a.pago, a.created_at, a.updated_at`

const apptListJoin = `
	FROM agendamentos a
	JOIN pacientes pac ON pac.paciente_id = a.paciente_id
	JOIN pessoas pp ON pp.pessoa_id = pac.pessoa_id
	JOIN profissionais prof ON prof.profissional_id = a.profissional_id
	JOIN pessoas pf ON pf.pessoa_id = prof.pessoa_id`

func scanListedAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var patient PatientInfo
	var professional ProfessionalInfo

	err := row.Scan(
		&a.ID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt,
		&a.Kind, &a.Status, &a.Value, &a.Notes,
		&a.PaymentMethod, &a.Paid, &a.CreatedAt, &a.UpdatedAt,
		&patient.Name, &patient.Email, &patient.Phone,
		&professional.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Patient = &patient
	a.Professional = &professional
	return &a, nil
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter) ([]Appointment, error) {
	query := `SELECT` + apptColumns + `,
		pp.nome_completo, pp.email, pp.telefone,
		pf.nome_completo` + apptListJoin

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.From != nil {
		conds = append(conds, "a.data_hora >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "a.data_hora <= "+arg(*f.To))
	}
	if f.PatientID != nil {
		conds = append(conds, "a.paciente_id = "+arg(*f.PatientID))
	}
	if f.ProfessionalID != nil {
		conds = append(conds, "a.profissional_id = "+arg(*f.ProfessionalID))
	}
	if f.Status != nil {
		conds = append(conds, "a.status_agendamento = "+arg(*f.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY a.data_hora ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanListedAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+apptColumns+`,
			pp.nome_completo, pp.email, pp.telefone, pp.data_nascimento,
			pf.nome_completo, prof.especialidade, prof.registro_profissional`+apptListJoin+`
		WHERE a.agendamento_id = $1
	`, id)

	var a Appointment
	var patient PatientInfo
	var professional ProfessionalInfo

	err := row.Scan(
		&a.ID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt,
		&a.Kind, &a.Status, &a.Value, &a.Notes,
		&a.PaymentMethod, &a.Paid, &a.CreatedAt, &a.UpdatedAt,
		&patient.Name, &patient.Email, &patient.Phone, &patient.BirthDate,
		&professional.Name, &professional.Specialty, &professional.License,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Patient = &patient
	a.Professional = &professional
	return &a, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.ProfessionalID, &a.ScheduledAt,
		&a.Kind, &a.Status, &a.Value, &a.Notes,
		&a.PaymentMethod, &a.Paid, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) CreateAppointment(ctx context.Context, n NewAppointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agendamentos (
			agendamento_id, paciente_id, profissional_id, data_hora,
			tipo_atendimento, status_agendamento, valor, observacoes,
			forma_pagamento, pago, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING agendamento_id, paciente_id, profissional_id, data_hora,
			tipo_atendimento, status_agendamento, valor, observacoes,
			forma_pagamento, pago, created_at, updated_at
	`, uuid.New(), n.PatientID, n.ProfessionalID, n.ScheduledAt,
		n.Kind, n.Status, n.Value, n.Notes, n.PaymentMethod, n.Paid)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, id uuid.UUID, p Patch) (*Appointment, error) {
	sets := []string{}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.PatientID != nil {
		sets = append(sets, "paciente_id = "+arg(*p.PatientID))
	}
	if p.ProfessionalID != nil {
		sets = append(sets, "profissional_id = "+arg(*p.ProfessionalID))
	}
	if p.ScheduledAt != nil {
		sets = append(sets, "data_hora = "+arg(*p.ScheduledAt))
	}
	if p.Kind != nil {
		sets = append(sets, "tipo_atendimento = "+arg(*p.Kind))
	}
	if p.Status != nil {
		sets = append(sets, "status_agendamento = "+arg(*p.Status))
	}
	if p.Value != nil {
		sets = append(sets, "valor = "+arg(*p.Value))
	}
	if p.Notes != nil {
		sets = append(sets, "observacoes = "+arg(*p.Notes))
	}
	if p.PaymentMethod != nil {
		sets = append(sets, "forma_pagamento = "+arg(*p.PaymentMethod))
	}
	if p.Paid != nil {
		sets = append(sets, "pago = "+arg(*p.Paid))
	}
	sets = append(sets, "updated_at = "+arg(p.UpdatedAt))

	query := fmt.Sprintf(`
		UPDATE agendamentos
		SET %s
		WHERE agendamento_id = %s
		RETURNING agendamento_id, paciente_id, profissional_id, data_hora,
			tipo_atendimento, status_agendamento, valor, observacoes,
			forma_pagamento, pago, created_at, updated_at
	`, strings.Join(sets, ", "), arg(id))

	return scanAppointment(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agendamentos WHERE agendamento_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) ListBookedTimes(ctx context.Context, professionalID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT data_hora
		FROM agendamentos
		WHERE profissional_id = $1
		  AND data_hora >= $2
		  AND data_hora < $3
		  AND status_agendamento <> $4
	`, professionalID, from, to, StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *PgRepository) ListStatusesInRange(ctx context.Context, from, to time.Time) ([]Status, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status_agendamento
		FROM agendamentos
		WHERE data_hora >= $1
		  AND data_hora <= $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []Status
	for rows.Next() {
		var s Status
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func (r *PgRepository) FindOverdueScheduled(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT agendamento_id, paciente_id, profissional_id, data_hora,
			tipo_atendimento, status_agendamento, valor, observacoes,
			forma_pagamento, pago, created_at, updated_at
		FROM agendamentos
		WHERE status_agendamento = $1
		  AND data_hora < $2
	`, StatusScheduled, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// -- Identity resolution --

func (r *PgRepository) GetAccountByPrincipal(ctx context.Context, principalID uuid.UUID) (*UserAccount, error) {
	var u UserAccount
	err := r.pool.QueryRow(ctx, `
		SELECT usuario_id, user_id, pessoa_id, ativo, created_at, updated_at
		FROM usuarios
		WHERE user_id = $1
	`, principalID).Scan(&u.ID, &u.PrincipalID, &u.PersonID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) GetPersonByID(ctx context.Context, id uuid.UUID) (*Person, error) {
	var p Person
	err := r.pool.QueryRow(ctx, `
		SELECT pessoa_id, nome_completo, email, telefone, cpf, data_nascimento,
			tipo_pessoa, ativo, created_at, updated_at
		FROM pessoas
		WHERE pessoa_id = $1
	`, id).Scan(&p.ID, &p.FullName, &p.Email, &p.Phone, &p.CPF, &p.BirthDate,
		&p.Role, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetProfessionalByPerson(ctx context.Context, personID uuid.UUID) (*ProfessionalProfile, error) {
	var p ProfessionalProfile
	err := r.pool.QueryRow(ctx, `
		SELECT profissional_id, pessoa_id, especialidade, registro_profissional,
			valor_consulta, tempo_consulta, ativo, created_at, updated_at
		FROM profissionais
		WHERE pessoa_id = $1
	`, personID).Scan(&p.ID, &p.PersonID, &p.Specialty, &p.License,
		&p.Price, &p.DurationMin, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetPatientByPerson(ctx context.Context, personID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.pool.QueryRow(ctx, `
		SELECT paciente_id, pessoa_id, data_nascimento, nome_responsavel,
			telefone_responsavel, observacoes_medicas, ativo, created_at, updated_at
		FROM pacientes
		WHERE pessoa_id = $1
	`, personID).Scan(&p.ID, &p.PersonID, &p.BirthDate, &p.GuardianName,
		&p.GuardianPhone, &p.MedicalNotes, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) CreatePerson(ctx context.Context, p Person) (*Person, error) {
	var out Person
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pessoas (pessoa_id, nome_completo, email, telefone, cpf,
			data_nascimento, tipo_pessoa, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING pessoa_id, nome_completo, email, telefone, cpf, data_nascimento,
			tipo_pessoa, ativo, created_at, updated_at
	`, uuid.New(), p.FullName, p.Email, p.Phone, p.CPF, p.BirthDate, p.Role, p.Active).
		Scan(&out.ID, &out.FullName, &out.Email, &out.Phone, &out.CPF, &out.BirthDate,
			&out.Role, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert pessoa: %w", err)
	}
	return &out, nil
}

func (r *PgRepository) CreateAccount(ctx context.Context, principalID, personID uuid.UUID) (*UserAccount, error) {
	var u UserAccount
	err := r.pool.QueryRow(ctx, `
		INSERT INTO usuarios (usuario_id, user_id, pessoa_id, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, true, now(), now())
		RETURNING usuario_id, user_id, pessoa_id, ativo, created_at, updated_at
	`, uuid.New(), principalID, personID).
		Scan(&u.ID, &u.PrincipalID, &u.PersonID, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert usuario: %w", err)
	}
	return &u, nil
}

func (r *PgRepository) CreateProfessionalProfile(ctx context.Context, p ProfessionalProfile) (*ProfessionalProfile, error) {
	var out ProfessionalProfile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profissionais (profissional_id, pessoa_id, especialidade,
			registro_profissional, valor_consulta, tempo_consulta, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING profissional_id, pessoa_id, especialidade, registro_profissional,
			valor_consulta, tempo_consulta, ativo, created_at, updated_at
	`, uuid.New(), p.PersonID, p.Specialty, p.License, p.Price, p.DurationMin, p.Active).
		Scan(&out.ID, &out.PersonID, &out.Specialty, &out.License,
			&out.Price, &out.DurationMin, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert profissional: %w", err)
	}
	return &out, nil
}

func (r *PgRepository) CreatePatientProfile(ctx context.Context, p PatientProfile) (*PatientProfile, error) {
	var out PatientProfile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pacientes (paciente_id, pessoa_id, data_nascimento,
			nome_responsavel, telefone_responsavel, observacoes_medicas, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING paciente_id, pessoa_id, data_nascimento, nome_responsavel,
			telefone_responsavel, observacoes_medicas, ativo, created_at, updated_at
	`, uuid.New(), p.PersonID, p.BirthDate, p.GuardianName, p.GuardianPhone, p.MedicalNotes, p.Active).
		Scan(&out.ID, &out.PersonID, &out.BirthDate, &out.GuardianName,
			&out.GuardianPhone, &out.MedicalNotes, &out.Active, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert paciente: %w", err)
	}
	return &out, nil
}

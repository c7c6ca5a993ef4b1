package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
	"github.com/nicfuji87/sistema-respira-kids/internal/db"
)

const (
	professionalCount = 8
	patientCount      = 120
	appointmentCount  = 600
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

func main() {
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	professionals, err := seedProfessionals(context.Background(), pool, professionalCount)
	if err != nil {
		log.Fatal().Err(err).Msg("seed professionals")
	}
	patients, err := seedPatients(context.Background(), pool, patientCount)
	if err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAppointments(context.Background(), pool, professionals, patients, appointmentCount); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}
	if err := seedAdminAccount(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("seed admin account")
	}

	log.Info().Msg("seed complete")
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding professionals")

	specialties := []agenda.Specialty{
		agenda.SpecPhysiotherapy,
		agenda.SpecSpeechTherapy,
		agenda.SpecOccupationalTherapy,
		agenda.SpecPsychology,
		agenda.SpecPhysicalEducation,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		personID := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO pessoas (pessoa_id, nome_completo, email, telefone, cpf,
				data_nascimento, tipo_pessoa, ativo, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		`, personID, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(), gofakeit.SSN(),
			gofakeit.DateRange(time.Now().AddDate(-60, 0, 0), time.Now().AddDate(-25, 0, 0)),
			agenda.RoleProfessional)
		if err != nil {
			return nil, err
		}

		professionalID := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]
		price := float64(gofakeit.Number(120, 350))
		_, err = tx.Exec(ctx, `
			INSERT INTO profissionais (profissional_id, pessoa_id, especialidade,
				registro_profissional, valor_consulta, tempo_consulta, ativo, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 60, true, now(), now())
		`, professionalID, personID, spec, gofakeit.DigitN(6), price)
		if err != nil {
			return nil, err
		}
		ids = append(ids, professionalID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("professionals seeded")
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Info().Int("count", count).Msg("seeding patients")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		personID := uuid.New()
		birth := gofakeit.DateRange(time.Now().AddDate(-14, 0, 0), time.Now().AddDate(0, -6, 0))
		_, err := tx.Exec(ctx, `
			INSERT INTO pessoas (pessoa_id, nome_completo, email, telefone, cpf,
				data_nascimento, tipo_pessoa, ativo, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, true, now(), now())
		`, personID, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(), gofakeit.SSN(),
			birth, agenda.RolePatient)
		if err != nil {
			return nil, err
		}

		patientID := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO pacientes (paciente_id, pessoa_id, data_nascimento,
				nome_responsavel, telefone_responsavel, observacoes_medicas, ativo, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULL, true, now(), now())
		`, patientID, personID, birth, gofakeit.Name(), gofakeit.Phone())
		if err != nil {
			return nil, err
		}
		ids = append(ids, patientID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	log.Info().Msg("patients seeded")
	return ids, nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, professionals, patients []uuid.UUID, count int) error {
	log.Info().Int("count", count).Msg("seeding appointments")

	kinds := []agenda.Kind{agenda.KindConsultation, agenda.KindFollowUp, agenda.KindEvaluation, agenda.KindSession}
	statuses := []agenda.Status{agenda.StatusScheduled, agenda.StatusConfirmed, agenda.StatusCompleted, agenda.StatusCancelled}
	payments := []agenda.PaymentMethod{agenda.PaymentCash, agenda.PaymentCard, agenda.PaymentPix, agenda.PaymentInsurance}

	const batchSize = 200
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			// Hourly slots inside the 08:00-17:00 working window.
			day := gofakeit.DateRange(time.Now().AddDate(0, -2, 0), time.Now().AddDate(0, 1, 0))
			slot := time.Date(day.Year(), day.Month(), day.Day(), 8+gofakeit.Number(0, 9), 0, 0, 0, time.Local)

			status := statuses[gofakeit.Number(0, len(statuses)-1)]
			if slot.After(time.Now()) && (status == agenda.StatusCompleted || status == agenda.StatusCancelled) {
				status = agenda.StatusScheduled
			}

			value := float64(gofakeit.Number(120, 350))
			pay := payments[gofakeit.Number(0, len(payments)-1)]
			paid := status == agenda.StatusCompleted

			_, err := tx.Exec(ctx, `
				INSERT INTO agendamentos (
					agendamento_id, paciente_id, profissional_id, data_hora,
					tipo_atendimento, status_agendamento, valor, observacoes,
					forma_pagamento, pago, created_at, updated_at
				)
				VALUES ($1, $2, $3, $4, $5, $6, $7, NULL, $8, $9, now(), now())
			`, uuid.New(),
				patients[gofakeit.Number(0, len(patients)-1)],
				professionals[gofakeit.Number(0, len(professionals)-1)],
				slot,
				kinds[gofakeit.Number(0, len(kinds)-1)],
				status, value, pay, paid)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		log.Info().Int("done", end).Int("total", count).Msg("appointments seeded")
	}

	return nil
}

func seedAdminAccount(ctx context.Context, pool *pgxpool.Pool) error {
	email := "admin@respirakids.com.br"
	password := "admin123"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(map[string]string{
		"nome_completo": "Administrador",
		"tipo_pessoa":   string(agenda.RoleAdministrative),
	})
	if err != nil {
		return err
	}

	principalID := uuid.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO auth_users (user_id, email, password_hash, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (email) DO NOTHING
	`, principalID, email, string(hash), meta)
	if err != nil {
		return err
	}

	personID := uuid.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO pessoas (pessoa_id, nome_completo, email, telefone, cpf,
			data_nascimento, tipo_pessoa, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, NULL, NULL, NULL, $4, true, now(), now())
	`, personID, "Administrador", email, agenda.RoleAdministrative)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO usuarios (usuario_id, user_id, pessoa_id, ativo, created_at, updated_at)
		VALUES ($1, $2, $3, true, now(), now())
	`, uuid.New(), principalID, personID)
	if err != nil {
		return err
	}

	log.Info().Str("email", email).Msg("admin account seeded")
	return nil
}

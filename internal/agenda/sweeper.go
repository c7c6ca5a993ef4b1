package agenda

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const noShowNote = "Paciente não compareceu"

// Sweeper marks overdue appointments as no-shows. It talks straight to the
// repository and keeps no local state; the worker binary runs it on a timer.
type Sweeper struct {
	repo  Repository
	grace time.Duration
	log   zerolog.Logger
}

// NewSweeper builds a sweeper that flags AGENDADO appointments whose
// scheduled time is more than grace in the past.
func NewSweeper(repo Repository, grace time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{repo: repo, grace: grace, log: log.With().Str("component", "noshow-sweeper").Logger()}
}

// Run performs one sweep. Individual update failures are logged and skipped
// so one bad record does not stall the rest.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.grace)

	overdue, err := s.repo.FindOverdueScheduled(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find overdue appointments: %w", err)
	}

	status := StatusNoShow
	note := noShowNote
	marked := 0
	for _, a := range overdue {
		_, err := s.repo.UpdateAppointment(ctx, a.ID, Patch{
			Status:    &status,
			Notes:     &note,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			s.log.Error().Err(err).Stringer("agendamento_id", a.ID).Msg("failed to mark no-show")
			continue
		}
		marked++
	}

	if marked > 0 {
		s.log.Info().Int("marked", marked).Time("cutoff", cutoff).Msg("no-show sweep complete")
	}
	return marked, nil
}

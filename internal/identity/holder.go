package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nicfuji87/sistema-respira-kids/internal/agenda"
)

const fallbackDisplayName = "Usuário"

// Signup placeholder defaults. Profiles are created alongside the person and
// completed later through the profile screens.
const defaultSignupSpecialty = agenda.SpecPhysiotherapy

// Holder owns the process-wide authentication state: the current principal
// and session from the auth service, plus the resolved domain identity
// (person and role profile) from the store. One instance per process,
// constructed at startup.
type Holder struct {
	auth Service
	repo agenda.Repository
	log  zerolog.Logger

	mu           sync.Mutex
	session      *Session
	person       *agenda.Person
	professional *agenda.ProfessionalProfile
	patient      *agenda.PatientProfile
	busy         bool
	lastErr      string
}

func NewHolder(auth Service, repo agenda.Repository, log zerolog.Logger) *Holder {
	return &Holder{auth: auth, repo: repo, log: log.With().Str("component", "identity").Logger()}
}

func (h *Holder) begin() func() {
	h.mu.Lock()
	h.busy = true
	h.lastErr = ""
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		h.busy = false
		h.mu.Unlock()
	}
}

func (h *Holder) fail(op string, err error) error {
	h.mu.Lock()
	h.lastErr = err.Error()
	h.mu.Unlock()
	h.log.Error().Err(err).Str("op", op).Msg("identity operation failed")
	return err
}

// Init restores any persisted session and subscribes to session-change
// notifications for the rest of the process lifetime. A restore failure is
// logged, not fatal: the app simply starts signed out.
func (h *Holder) Init(ctx context.Context) {
	sess, err := h.auth.CurrentSession(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("could not restore persisted session")
	} else if sess != nil {
		h.mu.Lock()
		h.session = sess
		h.mu.Unlock()
		h.resolvePerson(ctx, sess.Principal)
	}

	h.auth.OnSessionChange(func(sess *Session) {
		h.mu.Lock()
		h.session = sess
		h.mu.Unlock()

		if sess != nil {
			resCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			h.resolvePerson(resCtx, sess.Principal)
		} else {
			h.clearIdentity()
		}
	})
}

// SignIn exchanges credentials for a session and resolves the domain
// identity behind the new principal. Auth failures propagate; resolution
// failures leave the session active with no person attached (degraded).
func (h *Holder) SignIn(ctx context.Context, email, password string) (*Session, error) {
	done := h.begin()
	defer done()

	sess, err := h.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, h.fail("signin", fmt.Errorf("sign in: %w", err))
	}

	h.mu.Lock()
	h.session = sess
	h.mu.Unlock()

	h.resolvePerson(ctx, sess.Principal)
	return sess, nil
}

// SignUp creates the auth principal, then the domain identity: person,
// account link and role profile with placeholder defaults. There is no
// compensating rollback; if a later step fails, the earlier inserts stand
// and the error is returned. An orphaned principal is recoverable by
// signing in and completing the profile manually.
func (h *Holder) SignUp(ctx context.Context, email, password, fullName string, role agenda.Role) (*Principal, error) {
	done := h.begin()
	defer done()

	principal, err := h.auth.SignUp(ctx, email, password, map[string]string{
		"nome_completo": fullName,
		"tipo_pessoa":   string(role),
	})
	if err != nil {
		return nil, h.fail("signup", fmt.Errorf("sign up: %w", err))
	}

	person, err := h.repo.CreatePerson(ctx, agenda.Person{
		FullName: fullName,
		Email:    &email,
		Role:     role,
		Active:   true,
	})
	if err != nil {
		return nil, h.fail("signup", fmt.Errorf("create person: %w", err))
	}

	if _, err := h.repo.CreateAccount(ctx, principal.ID, person.ID); err != nil {
		return nil, h.fail("signup", fmt.Errorf("link account: %w", err))
	}

	switch role {
	case agenda.RoleProfessional:
		_, err = h.repo.CreateProfessionalProfile(ctx, agenda.ProfessionalProfile{
			PersonID:  person.ID,
			Specialty: defaultSignupSpecialty,
			License:   "",
			Active:    true,
		})
	case agenda.RolePatient:
		_, err = h.repo.CreatePatientProfile(ctx, agenda.PatientProfile{
			PersonID:  person.ID,
			BirthDate: time.Now(),
			Active:    true,
		})
	}
	if err != nil {
		return nil, h.fail("signup", fmt.Errorf("create role profile: %w", err))
	}

	h.mu.Lock()
	h.person = person
	h.mu.Unlock()

	return principal, nil
}

// SignOut invalidates the session remotely and then clears all local
// identity state. If remote invalidation fails nothing is cleared and the
// error propagates, so local and remote state cannot silently diverge.
func (h *Holder) SignOut(ctx context.Context) error {
	done := h.begin()
	defer done()

	if err := h.auth.SignOut(ctx); err != nil {
		return h.fail("signout", fmt.Errorf("sign out: %w", err))
	}

	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()
	h.clearIdentity()
	return nil
}

func (h *Holder) ResetPassword(ctx context.Context, email string) error {
	done := h.begin()
	defer done()

	if err := h.auth.ResetPasswordForEmail(ctx, email); err != nil {
		return h.fail("reset-password", fmt.Errorf("reset password: %w", err))
	}
	return nil
}

// ExternalProviderSignIn starts an external-provider flow and returns the
// redirect URL. The completed session arrives via the session-change
// subscription set up in Init.
func (h *Holder) ExternalProviderSignIn(ctx context.Context, provider, redirectTo string) (string, error) {
	done := h.begin()
	defer done()

	url, err := h.auth.SignInWithExternalProvider(ctx, provider, redirectTo)
	if err != nil {
		return "", h.fail("external-signin", fmt.Errorf("external provider sign in: %w", err))
	}
	return url, nil
}

// resolvePerson walks principal -> usuario -> pessoa -> role profile. Any
// step failing leaves the remaining identity unset; the session itself stays
// active.
func (h *Holder) resolvePerson(ctx context.Context, principal Principal) {
	account, err := h.repo.GetAccountByPrincipal(ctx, principal.ID)
	if err != nil {
		h.log.Warn().Err(err).Stringer("principal_id", principal.ID).Msg("no domain identity for principal")
		return
	}

	person, err := h.repo.GetPersonByID(ctx, account.PersonID)
	if err != nil {
		h.log.Warn().Err(err).Stringer("pessoa_id", account.PersonID).Msg("could not load person")
		return
	}

	h.mu.Lock()
	h.person = person
	h.professional = nil
	h.patient = nil
	h.mu.Unlock()

	switch person.Role {
	case agenda.RoleProfessional:
		prof, err := h.repo.GetProfessionalByPerson(ctx, person.ID)
		if err != nil {
			h.log.Warn().Err(err).Msg("could not load professional profile")
			return
		}
		h.mu.Lock()
		h.professional = prof
		h.mu.Unlock()
	case agenda.RolePatient:
		pat, err := h.repo.GetPatientByPerson(ctx, person.ID)
		if err != nil {
			h.log.Warn().Err(err).Msg("could not load patient profile")
			return
		}
		h.mu.Lock()
		h.patient = pat
		h.mu.Unlock()
	}
}

func (h *Holder) clearIdentity() {
	h.mu.Lock()
	h.person = nil
	h.professional = nil
	h.patient = nil
	h.mu.Unlock()
}

// -- State accessors and role predicates --

func (h *Holder) Session() *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return nil
	}
	cp := *h.session
	return &cp
}

func (h *Holder) Person() *agenda.Person {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.person == nil {
		return nil
	}
	cp := *h.person
	return &cp
}

func (h *Holder) ProfessionalProfile() *agenda.ProfessionalProfile {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.professional == nil {
		return nil
	}
	cp := *h.professional
	return &cp
}

func (h *Holder) PatientProfile() *agenda.PatientProfile {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.patient == nil {
		return nil
	}
	cp := *h.patient
	return &cp
}

func (h *Holder) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.busy
}

func (h *Holder) LastError() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session != nil
}

func (h *Holder) IsProfessional() bool { return h.hasRole(agenda.RoleProfessional) }
func (h *Holder) IsPatient() bool      { return h.hasRole(agenda.RolePatient) }
func (h *Holder) IsAdmin() bool        { return h.hasRole(agenda.RoleAdministrative) }

func (h *Holder) hasRole(role agenda.Role) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.person != nil && h.person.Role == role
}

// DisplayName prefers the person's full name, then the principal's email,
// then a generic label.
func (h *Holder) DisplayName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.person != nil && h.person.FullName != "" {
		return h.person.FullName
	}
	if h.session != nil && h.session.Principal.Email != "" {
		return h.session.Principal.Email
	}
	return fallbackDisplayName
}

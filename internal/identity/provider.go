package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionKeyPrefix = "auth:session:"
	currentKeyPrefix = "auth:current:"
	resetKeyPrefix   = "auth:reset:"
	sessionChannel   = "auth:session-events"

	resetTokenTTL = 15 * time.Minute
)

// Provider implements Service with credentials in Postgres, sessions in
// Redis and HS256 access tokens. The "current session" pointer keyed by
// client id plays the role a browser's local storage plays for a web
// client: it is what survives restarts.
//
// Session changes are published on a Redis channel and fanned out to
// OnSessionChange subscribers, so externally completed sign-ins (another
// process, an OAuth callback handler) surface here too.
type Provider struct {
	pool       *pgxpool.Pool
	rdb        *redis.Client
	secret     []byte
	sessionTTL time.Duration
	clientID   string
	log        zerolog.Logger

	subscribeOnce sync.Once
	callbacks     chan func(*Session)
}

type sessionEvent struct {
	ClientID    string     `json:"client_id"`
	AccessToken string     `json:"access_token,omitempty"`
	PrincipalID uuid.UUID  `json:"principal_id,omitempty"`
	Email       string     `json:"email,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	SignedOut   bool       `json:"signed_out"`
}

func NewProvider(pool *pgxpool.Pool, rdb *redis.Client, secret string, sessionTTL time.Duration, clientID string, log zerolog.Logger) *Provider {
	return &Provider{
		pool:       pool,
		rdb:        rdb,
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
		clientID:   clientID,
		log:        log.With().Str("component", "identity-provider").Logger(),
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	id := uuid.New()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO auth_users (user_id, email, password_hash, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`, id, email, string(hash), meta)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert auth user: %w", err)
	}

	return &Principal{ID: id, Email: email, Metadata: metadata}, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var id uuid.UUID
	var hash string
	var meta []byte
	err := p.pool.QueryRow(ctx, `
		SELECT user_id, password_hash, metadata
		FROM auth_users
		WHERE email = $1
	`, email).Scan(&id, &hash, &meta)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load auth user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	var metadata map[string]string
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &metadata); err != nil {
			p.log.Warn().Err(err).Str("email", email).Msg("bad metadata payload")
		}
	}

	principal := Principal{ID: id, Email: email, Metadata: metadata}
	sess, err := p.storeSession(ctx, principal)
	if err != nil {
		return nil, err
	}

	p.publish(ctx, sessionEvent{
		ClientID:    p.clientID,
		AccessToken: sess.AccessToken,
		PrincipalID: principal.ID,
		Email:       principal.Email,
		ExpiresAt:   &sess.ExpiresAt,
	})
	return sess, nil
}

func (p *Provider) storeSession(ctx context.Context, principal Principal) (*Session, error) {
	token, jti, expiresAt, err := NewAccessToken(p.secret, principal, p.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	payload, err := json.Marshal(principal)
	if err != nil {
		return nil, fmt.Errorf("encode principal: %w", err)
	}

	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+jti, payload, p.sessionTTL)
	pipe.Set(ctx, currentKeyPrefix+p.clientID, token, p.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &Session{AccessToken: token, Principal: principal, ExpiresAt: expiresAt}, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	token, err := p.rdb.Get(ctx, currentKeyPrefix+p.clientID).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load current session: %w", err)
	}

	claims, err := ParseAccessToken(p.secret, token)
	if err == nil {
		if err := p.rdb.Del(ctx, sessionKeyPrefix+claims.ID).Err(); err != nil {
			return fmt.Errorf("invalidate session: %w", err)
		}
	}
	if err := p.rdb.Del(ctx, currentKeyPrefix+p.clientID).Err(); err != nil {
		return fmt.Errorf("clear current session: %w", err)
	}

	p.publish(ctx, sessionEvent{ClientID: p.clientID, SignedOut: true})
	return nil
}

func (p *Provider) ResetPasswordForEmail(ctx context.Context, email string) error {
	var exists bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM auth_users WHERE email = $1)
	`, email).Scan(&exists)
	if err != nil {
		return fmt.Errorf("look up email: %w", err)
	}
	// Unknown addresses get the same silence a mail-based flow would give.
	if !exists {
		return nil
	}

	token := uuid.NewString()
	if err := p.rdb.Set(ctx, resetKeyPrefix+token, email, resetTokenTTL).Err(); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	p.log.Info().Str("email", email).Str("reset_token", token).Msg("password reset token issued")
	return nil
}

func (p *Provider) SignInWithExternalProvider(ctx context.Context, provider, redirectTo string) (string, error) {
	if provider == "" {
		return "", errors.New("provider name is required")
	}
	q := url.Values{}
	q.Set("provider", provider)
	q.Set("redirect_to", redirectTo)
	q.Set("client_id", p.clientID)
	return "/auth/external/authorize?" + q.Encode(), nil
}

func (p *Provider) CurrentSession(ctx context.Context) (*Session, error) {
	token, err := p.rdb.Get(ctx, currentKeyPrefix+p.clientID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current session: %w", err)
	}

	claims, err := ParseAccessToken(p.secret, token)
	if err != nil {
		// Expired or tampered token: treat as signed out.
		return nil, nil
	}

	payload, err := p.rdb.Get(ctx, sessionKeyPrefix+claims.ID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session record: %w", err)
	}

	var principal Principal
	if err := json.Unmarshal(payload, &principal); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	return &Session{
		AccessToken: token,
		Principal:   principal,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// OnSessionChange starts the pub/sub listener on first use and dispatches
// every subsequent session event to fn.
func (p *Provider) OnSessionChange(fn func(*Session)) {
	p.subscribeOnce.Do(func() {
		p.callbacks = make(chan func(*Session), 16)
		go p.listen()
	})
	p.callbacks <- fn
}

func (p *Provider) listen() {
	ctx := context.Background()
	sub := p.rdb.Subscribe(ctx, sessionChannel)
	ch := sub.Channel()

	var fns []func(*Session)
	for {
		select {
		case fn := <-p.callbacks:
			fns = append(fns, fn)
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev sessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.log.Warn().Err(err).Msg("bad session event payload")
				continue
			}
			if ev.ClientID != p.clientID {
				continue
			}
			sess := p.eventSession(ev)
			for _, fn := range fns {
				fn(sess)
			}
		}
	}
}

func (p *Provider) eventSession(ev sessionEvent) *Session {
	if ev.SignedOut {
		return nil
	}
	sess := &Session{
		AccessToken: ev.AccessToken,
		Principal:   Principal{ID: ev.PrincipalID, Email: ev.Email},
	}
	if ev.ExpiresAt != nil {
		sess.ExpiresAt = *ev.ExpiresAt
	}
	return sess
}

func (p *Provider) publish(ctx context.Context, ev sessionEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.Error().Err(err).Msg("encode session event")
		return
	}
	if err := p.rdb.Publish(ctx, sessionChannel, payload).Err(); err != nil {
		p.log.Warn().Err(err).Msg("publish session event")
	}
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

package session

import (
	"context"
	"log/slog"
	"time"

	"gramline/internal/config"
	"gramline/internal/instaweb"
	"gramline/internal/logging"
	"gramline/internal/services"
)

// Client is the slice of the Instagram client the provider needs.
type Client interface {
	Login(ctx context.Context, username, password string) (instaweb.Tokens, error)
	GetProfile(ctx context.Context, tokens instaweb.Tokens) (instaweb.Profile, error)
}

// Session is a verified, ready-to-post Instagram session.
type Session struct {
	Tokens   instaweb.Tokens
	Username string
	Strategy string
}

// Valid reports whether the session carries the mandatory token pair.
func (s *Session) Valid() bool {
	return s != nil && s.Tokens.Valid()
}

// Strategy names recorded on established sessions and in logs.
const (
	StrategySaved       = "saved_state"
	StrategyTokens      = "manual_tokens"
	StrategyCredentials = "credentials"
)

// Provider runs the login strategy chain.
type Provider struct {
	cfg    config.Instagram
	client Client
	store  Store
	logger *slog.Logger
}

// NewProvider wires a Provider from configuration. The store defaults to a
// JSON file under the state directory.
func NewProvider(cfg *config.Config, client Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{
		cfg:    cfg.Instagram,
		client: client,
		store:  NewFileStore(cfg.SessionStatePath()),
		logger: logging.NewComponentLogger(logger, "session"),
	}
}

// WithStore replaces the persistence layer (used in tests).
func (p *Provider) WithStore(store Store) *Provider {
	p.store = store
	return p
}

// Establish returns an authenticated session, trying each strategy in order.
// When every strategy fails the returned error wraps services.ErrAuth.
func (p *Provider) Establish(ctx context.Context) (*Session, error) {
	if sess := p.trySaved(ctx); sess != nil {
		return sess, nil
	}
	if sess := p.tryManualTokens(ctx); sess != nil {
		return sess, nil
	}
	if sess, err := p.tryCredentials(ctx); err != nil {
		return nil, err
	} else if sess != nil {
		return sess, nil
	}
	return nil, services.Wrap(services.ErrAuth, "session", "establish",
		"all login strategies exhausted", nil)
}

// trySaved reuses the state file from a previous run. Invalid saved state is
// discarded so later runs skip straight to the cheaper-to-reason-about paths.
func (p *Provider) trySaved(ctx context.Context) *Session {
	state, err := p.store.Load()
	if err != nil {
		p.logger.Warn("could not read saved session state", logging.Error(err))
		return nil
	}
	if !state.Tokens.Valid() {
		return nil
	}

	profile, err := p.client.GetProfile(ctx, state.Tokens)
	if err != nil {
		p.logger.Info("saved session no longer valid; discarding",
			logging.String(logging.FieldStrategy, StrategySaved),
			logging.String("sessionid_prefix", secretPrefix(state.Tokens.SessionID)),
			logging.Error(err),
		)
		if discardErr := p.store.Discard(); discardErr != nil {
			p.logger.Warn("failed to discard stale session state", logging.Error(discardErr))
		}
		return nil
	}

	p.logger.Info("reusing saved session",
		logging.String(logging.FieldStrategy, StrategySaved),
		logging.String("username", profile.Username),
	)
	return &Session{Tokens: state.Tokens, Username: profile.Username, Strategy: StrategySaved}
}

// tryManualTokens builds a session from tokens supplied via configuration or
// environment, verifying them with a profile probe before trusting them.
func (p *Provider) tryManualTokens(ctx context.Context) *Session {
	tokens := instaweb.Tokens{
		SessionID: p.cfg.SessionID,
		CSRFToken: p.cfg.CSRFToken,
		UserID:    p.cfg.UserID,
	}
	if !tokens.Valid() {
		return nil
	}

	profile, err := p.client.GetProfile(ctx, tokens)
	if err != nil {
		p.logger.Warn("supplied session tokens rejected",
			logging.String(logging.FieldStrategy, StrategyTokens),
			logging.String("sessionid_prefix", secretPrefix(tokens.SessionID)),
			logging.Error(err),
		)
		return nil
	}

	p.persist(tokens, profile.Username)
	p.logger.Info("authenticated with supplied tokens",
		logging.String(logging.FieldStrategy, StrategyTokens),
		logging.String("username", profile.Username),
	)
	return &Session{Tokens: tokens, Username: profile.Username, Strategy: StrategyTokens}
}

// tryCredentials performs a full username/password login. Unlike the earlier
// strategies this one surfaces its error: there is nothing left to fall back to
// and the caller needs the cause.
func (p *Provider) tryCredentials(ctx context.Context) (*Session, error) {
	if p.cfg.Username == "" || p.cfg.Password == "" {
		return nil, nil
	}

	p.logger.Info("logging in with credentials",
		logging.String(logging.FieldStrategy, StrategyCredentials),
		logging.String("username", p.cfg.Username),
	)
	tokens, err := p.client.Login(ctx, p.cfg.Username, p.cfg.Password)
	if err != nil {
		return nil, services.Wrap(services.ErrAuth, "session", "establish", "credential login failed", err)
	}

	p.persist(tokens, p.cfg.Username)
	return &Session{Tokens: tokens, Username: p.cfg.Username, Strategy: StrategyCredentials}, nil
}

func (p *Provider) persist(tokens instaweb.Tokens, username string) {
	state := State{Tokens: tokens, Username: username, VerifiedAt: time.Now().UTC()}
	if err := p.store.Save(state); err != nil {
		p.logger.Warn("failed to persist session state", logging.Error(err))
	}
}

// secretPrefix returns at most the first ten characters of a secret so logs
// can correlate sessions without leaking them.
func secretPrefix(secret string) string {
	const max = 10
	if len(secret) <= max {
		return secret
	}
	return secret[:max] + "..."
}

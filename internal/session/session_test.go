package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gramline/internal/config"
	"gramline/internal/instaweb"
	"gramline/internal/logging"
	"gramline/internal/services"
	"gramline/internal/session"
	"gramline/internal/testsupport"
)

type fakeClient struct {
	validTokens  instaweb.Tokens
	loginTokens  instaweb.Tokens
	loginErr     error
	loginCalls   int
	profileCalls int
}

func (f *fakeClient) Login(_ context.Context, _, _ string) (instaweb.Tokens, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return instaweb.Tokens{}, f.loginErr
	}
	return f.loginTokens, nil
}

func (f *fakeClient) GetProfile(_ context.Context, tokens instaweb.Tokens) (instaweb.Profile, error) {
	f.profileCalls++
	if tokens == f.validTokens {
		return instaweb.Profile{Username: "alice"}, nil
	}
	return instaweb.Profile{}, services.Wrap(services.ErrAuth, "instaweb", "profile", "stale", nil)
}

func savedState(t *testing.T, cfg *config.Config, tokens instaweb.Tokens) string {
	t.Helper()
	path := cfg.SessionStatePath()
	store := session.NewFileStore(path)
	if err := store.Save(session.State{Tokens: tokens, Username: "alice", VerifiedAt: time.Now()}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	return path
}

func TestEstablishReusesSavedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	good := instaweb.Tokens{SessionID: "saved-sess", CSRFToken: "csrf", UserID: "42"}
	savedState(t, cfg, good)

	client := &fakeClient{validTokens: good}
	sess, err := session.NewProvider(cfg, client, logging.NewNop()).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if sess.Strategy != session.StrategySaved {
		t.Fatalf("strategy = %q, want %q", sess.Strategy, session.StrategySaved)
	}
	if client.loginCalls != 0 {
		t.Fatalf("loginCalls = %d, want 0", client.loginCalls)
	}
}

func TestEstablishDiscardsStaleSavedState(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTokens("cfg-sess", "cfg-csrf", "7"))
	stale := instaweb.Tokens{SessionID: "stale", CSRFToken: "old", UserID: "1"}
	statePath := savedState(t, cfg, stale)

	configured := instaweb.Tokens{SessionID: "cfg-sess", CSRFToken: "cfg-csrf", UserID: "7"}
	client := &fakeClient{validTokens: configured}

	sess, err := session.NewProvider(cfg, client, logging.NewNop()).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if sess.Strategy != session.StrategyTokens {
		t.Fatalf("strategy = %q, want %q", sess.Strategy, session.StrategyTokens)
	}

	// The stale state file must have been replaced with the working tokens.
	reloaded, err := session.NewFileStore(statePath).Load()
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if reloaded.Tokens != configured {
		t.Fatalf("persisted tokens = %+v, want %+v", reloaded.Tokens, configured)
	}
}

func TestEstablishTokensWithoutUserID(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTokens("cfg-sess", "cfg-csrf", ""))

	// Instagram resolves the account from the session cookie, so the token
	// strategy must work with the ds_user_id left blank.
	configured := instaweb.Tokens{SessionID: "cfg-sess", CSRFToken: "cfg-csrf"}
	client := &fakeClient{validTokens: configured}

	sess, err := session.NewProvider(cfg, client, logging.NewNop()).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if sess.Strategy != session.StrategyTokens {
		t.Fatalf("strategy = %q, want %q", sess.Strategy, session.StrategyTokens)
	}
	if !sess.Valid() {
		t.Fatal("session should be valid without a user id")
	}
	if client.loginCalls != 0 {
		t.Fatalf("loginCalls = %d, want 0", client.loginCalls)
	}
}

func TestEstablishFallsBackToCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fresh := instaweb.Tokens{SessionID: "fresh", CSRFToken: "csrf", UserID: "42"}
	client := &fakeClient{loginTokens: fresh}

	sess, err := session.NewProvider(cfg, client, logging.NewNop()).Establish(context.Background())
	if err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if sess.Strategy != session.StrategyCredentials {
		t.Fatalf("strategy = %q, want %q", sess.Strategy, session.StrategyCredentials)
	}
	if !sess.Valid() {
		t.Fatal("session should be valid")
	}

	// Credential logins persist their tokens for the next run.
	reloaded, err := session.NewFileStore(cfg.SessionStatePath()).Load()
	if err != nil {
		t.Fatalf("reload state: %v", err)
	}
	if reloaded.Tokens != fresh {
		t.Fatalf("persisted tokens = %+v, want %+v", reloaded.Tokens, fresh)
	}
}

func TestEstablishCredentialFailureIsAuthError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := &fakeClient{loginErr: errors.New("bad password")}

	_, err := session.NewProvider(cfg, client, logging.NewNop()).Establish(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("err = %v, want services.ErrAuth", err)
	}
}

func TestEstablishNothingConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Instagram.Username = ""
	cfg.Instagram.Password = ""

	_, err := session.NewProvider(cfg, &fakeClient{}, logging.NewNop()).Establish(context.Background())
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("err = %v, want services.ErrAuth", err)
	}
}

func TestFileStoreMissingFileIsEmptyState(t *testing.T) {
	store := session.NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.Tokens.Valid() {
		t.Fatalf("state = %+v, want empty", state)
	}
}

func TestFileStoreDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := session.NewFileStore(path)
	if err := store.Save(session.State{Username: "alice"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Discard(); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stat after discard: %v", err)
	}
	// Discarding again is a no-op.
	if err := store.Discard(); err != nil {
		t.Fatalf("second Discard: %v", err)
	}
}

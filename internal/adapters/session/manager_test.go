package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	domain "seacomms/internal/domain/session"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock is a settable time source shared by manager and tokens.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*Manager, *fakeClock, *[]domain.Event) {
	t.Helper()
	clock := &fakeClock{now: time.Now().Truncate(time.Second)}
	m := NewManager(Config{Secret: testSecret, TTL: time.Hour, Now: clock.Now})
	var events []domain.Event
	sub := m.Subscribe(func(e domain.Event) { events = append(events, e) })
	t.Cleanup(sub.Unsubscribe)
	return m, clock, &events
}

// TestManager_StartResolve verifies a fresh token resolves to its session.
func TestManager_StartResolve(t *testing.T) {
	m, _, events := newTestManager(t)
	ctx := context.Background()

	token, s, err := m.Start(ctx, "u1", "a@x.com")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if token == "" || s.ID == "" {
		t.Fatal("expected token and session id")
	}

	got, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AccountID != "u1" || got.Email != "a@x.com" {
		t.Errorf("unexpected session: %+v", got)
	}
	if len(*events) != 1 || (*events)[0].Kind != domain.EventSignedIn {
		t.Errorf("events = %+v", *events)
	}
}

// TestManager_EndRevokes verifies sign-out revokes the token and is idempotent.
func TestManager_EndRevokes(t *testing.T) {
	m, _, events := newTestManager(t)
	ctx := context.Background()
	token, _, _ := m.Start(ctx, "u1", "a@x.com")

	if err := m.End(ctx, token); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := m.Resolve(ctx, token); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after sign-out, got %v", err)
	}
	if err := m.End(ctx, token); err != nil {
		t.Errorf("second End: %v", err)
	}
	if err := m.End(ctx, "garbage"); err != nil {
		t.Errorf("End(garbage): %v", err)
	}

	kinds := eventKinds(*events)
	if kinds != "signed_in,signed_out" {
		t.Errorf("events = %s", kinds)
	}
}

// TestManager_ExpiredTokenPublishesExpired verifies an expired token is rejected once and reported.
func TestManager_ExpiredTokenPublishesExpired(t *testing.T) {
	m, clock, events := newTestManager(t)
	ctx := context.Background()
	token, _, _ := m.Start(ctx, "u1", "a@x.com")

	clock.Advance(time.Hour + time.Second)

	if _, err := m.Resolve(ctx, token); !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if kinds := eventKinds(*events); kinds != "signed_in,expired" {
		t.Errorf("events = %s", kinds)
	}

	m.Resolve(ctx, token)
	if kinds := eventKinds(*events); kinds != "signed_in,expired" {
		t.Errorf("expired must be published once, events = %s", kinds)
	}
}

// TestManager_SweepRemovesExpired verifies the sweep publishes one event per expired session.
func TestManager_SweepRemovesExpired(t *testing.T) {
	m, clock, events := newTestManager(t)
	ctx := context.Background()
	m.Start(ctx, "u1", "a@x.com")
	m.Start(ctx, "u2", "b@x.com")

	if n, _ := m.Sweep(ctx); n != 0 {
		t.Errorf("Sweep before expiry = %d, want 0", n)
	}

	clock.Advance(2 * time.Hour)
	live, _, _ := m.Start(ctx, "u3", "c@x.com")

	n, err := m.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep = %d, want 2", n)
	}
	if _, err := m.Resolve(ctx, live); err != nil {
		t.Errorf("live session must survive sweep: %v", err)
	}
	if kinds := eventKinds(*events); kinds != "signed_in,signed_in,signed_in,expired,expired" {
		t.Errorf("events = %s", kinds)
	}
}

// TestManager_RejectsForeignTokens verifies tampered and foreign-secret tokens fail.
func TestManager_RejectsForeignTokens(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	token, _, _ := m.Start(ctx, "u1", "a@x.com")

	other := NewManager(Config{Secret: []byte("another-secret-another-secret-32"), TTL: time.Hour})
	foreign, _, _ := other.Start(ctx, "u1", "a@x.com")

	tampered := tamper(token)
	for name, tok := range map[string]string{"tampered": tampered, "foreign": foreign, "malformed": "a.b.c"} {
		if _, err := m.Resolve(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
	if _, err := m.Resolve(ctx, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("empty token: expected ErrNotFound, got %v", err)
	}
}

// TestManager_UnsubscribeStopsEvents verifies unsubscribed listeners miss later events.
func TestManager_UnsubscribeStopsEvents(t *testing.T) {
	m := NewManager(Config{Secret: testSecret})
	count := 0
	sub := m.Subscribe(func(domain.Event) { count++ })

	m.Start(context.Background(), "u1", "a@x.com")
	sub.Unsubscribe()
	sub.Unsubscribe()
	m.Start(context.Background(), "u2", "b@x.com")

	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if m.TTL() != DefaultTTL {
		t.Errorf("TTL = %s, want %s", m.TTL(), DefaultTTL)
	}
}

// TestTokens_Claims verifies the signed claims carry account, session and expiry.
func TestTokens_Claims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tokens := NewTokens(testSecret, func() time.Time { return now })
	s := domain.Session{ID: "sid", AccountID: "u1", Email: "a@x.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	raw, err := tokens.Sign(s)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if strings.Count(raw, ".") != 2 {
		t.Fatalf("not a compact JWT: %q", raw)
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "u1" || claims.ID != "sid" || claims.Email != "a@x.com" || claims.Issuer != Issuer {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(s.ExpiresAt) {
		t.Errorf("exp = %v, want %v", claims.ExpiresAt.Time, s.ExpiresAt)
	}
}

// TestMemoryRegistry_Expire verifies only expired sessions are removed.
func TestMemoryRegistry_Expire(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()
	now := time.Now()
	r.Put(ctx, domain.Session{ID: "old", AccountID: "u1", ExpiresAt: now.Add(-time.Minute)})
	r.Put(ctx, domain.Session{ID: "new", AccountID: "u1", ExpiresAt: now.Add(time.Minute)})

	expired, err := r.Expire(ctx, now)
	if err != nil || len(expired) != 1 || expired[0].ID != "old" {
		t.Errorf("Expire = %+v, %v", expired, err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
	if _, ok, _ := r.Delete(ctx, "old"); ok {
		t.Error("expired session must already be gone")
	}
}

// TestNewSweeper_RejectsShortInterval verifies sub-second schedules are refused.
func TestNewSweeper_RejectsShortInterval(t *testing.T) {
	m := NewManager(Config{Secret: testSecret})
	if _, err := NewSweeper(m, 10*time.Millisecond); err == nil {
		t.Error("expected error for sub-second interval")
	}
	s, err := NewSweeper(m, DefaultSweepInterval)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	s.Start()
	s.Stop()
}

// TestRunSweep_PublishesExpired verifies the scheduled job sweeps through the manager.
func TestRunSweep_PublishesExpired(t *testing.T) {
	m, clock, events := newTestManager(t)
	m.Start(context.Background(), "u1", "a@x.com")
	clock.Advance(2 * time.Hour)

	runSweep(m)

	if kinds := eventKinds(*events); kinds != "signed_in,expired" {
		t.Errorf("events = %s", kinds)
	}
}

func eventKinds(events []domain.Event) string {
	kinds := make([]string, len(events))
	for i, e := range events {
		kinds[i] = string(e.Kind)
	}
	return strings.Join(kinds, ",")
}

// tamper flips one character inside the signature segment.
func tamper(token string) string {
	i := strings.LastIndex(token, ".") + 5
	c := byte('A')
	if token[i] == 'A' {
		c = 'B'
	}
	return token[:i] + string(c) + token[i+1:]
}

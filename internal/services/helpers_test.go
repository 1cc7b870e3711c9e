package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"
	"indorunners-backend-go/internal/testkit"

	"github.com/rs/zerolog"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	fail bool
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type fixture struct {
	store *store.Store
	pub   *recordingPublisher
	deps  Deps
}

func newFixture(t *testing.T, scoped bool) fixture {
	t.Helper()
	s := testkit.OpenStore(t)
	pub := &recordingPublisher{}
	return fixture{
		store: s,
		pub:   pub,
		deps: Deps{
			Store:     s,
			Policy:    policy.Policy{ScopeAdminsToOwnRecords: scoped},
			Publisher: pub,
			Log:       zerolog.Nop(),
			Now:       testkit.Clock(testkit.Now),
		},
	}
}

func (f fixture) at(now time.Time) Deps {
	d := f.deps
	d.Now = testkit.Clock(now)
	return d
}

var fastArgon2 = &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func testTokens() TokenService {
	return TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "indorunners",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		Argon2:     fastArgon2,
	}
}

package services

import (
	"context"
	"strings"
	"time"

	"indorunners-backend-go/internal/policy"
	"indorunners-backend-go/internal/store"

	"github.com/rs/zerolog"
)

// Publisher receives lifecycle messages after a change is committed.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }

// NopPublisher drops every message.
func NopPublisher() Publisher {
	return nopPublisher{}
}

// Deps is what every service is built from.
type Deps struct {
	Store     *store.Store
	Policy    policy.Policy
	Publisher Publisher
	Log       zerolog.Logger
	Now       func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = NopPublisher()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

const publishTimeout = 2 * time.Second

// publish is best effort: a broker failure is logged and never reaches the
// caller.
func (d Deps) publish(ctx context.Context, routingKey string, payload any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := d.Publisher.Publish(ctx, routingKey, payload); err != nil {
		d.Log.Warn().Err(err).Str("routing_key", routingKey).Msg("lifecycle publish failed")
	}
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}

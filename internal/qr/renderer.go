package qr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/rs/zerolog/log"

	"github.com/farellandr/eventease/internal/metrics"
)

type Renderer struct {
	store        Store
	level        Level
	scale        int
	timeout      time.Duration
	storeTimeout time.Duration
	attempts     int
	interval     time.Duration
}

type Option func(*Renderer)

func WithLevel(l Level) Option { return func(r *Renderer) { r.level = l } }

func WithScale(scale int) Option { return func(r *Renderer) { r.scale = scale } }

// WithTimeout bounds encoding and each store attempt separately.
func WithTimeout(encode, store time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = encode
		r.storeTimeout = store
	}
}

func WithAttempts(n int) Option { return func(r *Renderer) { r.attempts = n } }

// WithRetryInterval sets the first backoff interval between store attempts.
func WithRetryInterval(d time.Duration) Option { return func(r *Renderer) { r.interval = d } }

func NewRenderer(store Store, opts ...Option) *Renderer {
	r := &Renderer{
		store:        store,
		level:        LevelQ,
		scale:        DefaultScale,
		timeout:      2 * time.Second,
		storeTimeout: 5 * time.Second,
		attempts:     3,
		interval:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.attempts < 1 {
		r.attempts = 1
	}
	return r
}

func (r *Renderer) Store() Store { return r.store }

// Render encodes code and stores the image under the same key. Encoding is
// attempted once; storing is retried with exponential backoff.
func (r *Renderer) Render(ctx context.Context, code string) error {
	encodeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	png, err := EncodeContext(encodeCtx, code, r.level, r.scale)
	cancel()
	if err != nil {
		metrics.QRRenderFailures.WithLabelValues("encode").Inc()
		return fmt.Errorf("encode qr for %s: %w", code, err)
	}

	put := func() error {
		storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
		defer cancel()
		err := r.store.Put(storeCtx, code, png)
		if errors.Is(err, ErrInvalidKey) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.interval
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.attempts-1)), ctx)

	notify := func(err error, next time.Duration) {
		log.Warn().Err(err).Str("code", code).Dur("retry_in", next).Msg("qr store attempt failed")
	}
	if err := backoff.RetryNotify(put, b, notify); err != nil {
		metrics.QRRenderFailures.WithLabelValues("store").Inc()
		return fmt.Errorf("store qr for %s: %w", code, err)
	}
	return nil
}

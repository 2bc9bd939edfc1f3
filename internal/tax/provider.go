package tax

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-pos-checkout/internal/metrics"
	"go-pos-checkout/internal/poserr"
)

// StorageKey is the persisted-storage key holding the JSON-encoded rate.
const StorageKey = "tax_rate"

// SettingsSource is the remote settings endpoint.
type SettingsSource interface {
	GetTaxRate(ctx context.Context) (float64, error)
}

// Store is the persisted key-value storage that survives restarts.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Provider caches the terminal's tax percentage. It is never refreshed on
// its own: FetchTaxRate needs an authenticated session, so callers invoke it
// after login.
type Provider struct {
	source  SettingsSource
	store   Store
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu    sync.RWMutex
	rate  float64
	group singleflight.Group
}

func NewProvider(source SettingsSource, store Store, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{source: source, store: store, logger: logger}
}

// WithMetrics attaches refresh counters to p.
func (p *Provider) WithMetrics(m *metrics.Metrics) *Provider {
	p.metrics = m
	return p
}

// Load rehydrates the cached rate from storage. A missing or unreadable
// value leaves the rate at 0.
func (p *Provider) Load(ctx context.Context) error {
	raw, ok, err := p.store.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("tax: load persisted rate: %w", err)
	}
	if !ok {
		p.logger.Info("no persisted tax rate, using default", zap.Float64("tax_rate", 0))
		return nil
	}

	var rate float64
	if err := json.Unmarshal(raw, &rate); err != nil || validate(rate) != nil {
		p.logger.Warn("ignoring unreadable persisted tax rate", zap.ByteString("value", raw))
		return nil
	}

	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()

	p.logger.Info("tax rate loaded", zap.Float64("tax_rate", rate))
	return nil
}

// Rate returns the cached percentage.
func (p *Provider) Rate() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate
}

// FetchTaxRate calls the settings source once and overwrites the cache on
// success. On failure the previous rate stays in place and the error is
// returned. Concurrent callers share a single remote call.
func (p *Provider) FetchTaxRate(ctx context.Context) (float64, error) {
	v, err, _ := p.group.Do(StorageKey, func() (any, error) {
		rate, err := p.source.GetTaxRate(ctx)
		if err != nil {
			p.logger.Warn("tax rate fetch failed, keeping cached value",
				zap.Float64("cached_tax_rate", p.Rate()),
				zap.Error(err),
			)
			return nil, err
		}
		if err := validate(rate); err != nil {
			return nil, poserr.Rejected(0, fmt.Sprintf("server returned an invalid tax rate %v", rate))
		}

		p.mu.Lock()
		p.rate = rate
		p.mu.Unlock()

		if err := p.persist(ctx, rate); err != nil {
			p.logger.Error("failed to persist tax rate", zap.Error(err))
		}
		p.logger.Info("tax rate refreshed", zap.Float64("tax_rate", rate))
		return rate, nil
	})
	if err != nil {
		p.metrics.ObserveTaxRate(p.Rate(), err)
		return p.Rate(), err
	}
	p.metrics.ObserveTaxRate(v.(float64), nil)
	return v.(float64), nil
}

// SetTaxRate overrides the cached rate, for manual correction and tests.
func (p *Provider) SetTaxRate(ctx context.Context, rate float64) error {
	if err := validate(rate); err != nil {
		return poserr.Validation(err, "")
	}

	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()

	return p.persist(ctx, rate)
}

func (p *Provider) persist(ctx context.Context, rate float64) error {
	raw, err := json.Marshal(rate)
	if err != nil {
		return err
	}
	if err := p.store.Set(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("tax: persist rate: %w", err)
	}
	return nil
}

func validate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 || rate > 100 {
		return poserr.ErrInvalidTaxRate
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/ein"
	"github.com/mblcrm/lendgate/internal/port/cache"
	"github.com/mblcrm/lendgate/internal/resilience"
)

// EINVerifier is implemented by the real verification client and its
// simulator.
type EINVerifier interface {
	Verify(ctx context.Context, rawEIN, legalName string) (ein.Verification, error)
}

// EINService verifies employer identification numbers with a read-through
// cache in front of the resilient call path. Verification results are
// immutable facts, so real results are cached; simulated results never are.
type EINService struct {
	dep      *resilience.Dependency
	real     EINVerifier
	sim      EINVerifier
	cache    cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewEINService creates a new EINService. The cache may be nil, which
// disables result caching. A nil logger falls back to slog.Default.
func NewEINService(m *resilience.Manager, rcfg config.Resilience, cfg config.EINConfig, real, sim EINVerifier, c cache.Cache, logger *slog.Logger) *EINService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EINService{
		dep:      m.Dependency(DepEINVerification, breakerConfig(rcfg, cfg.Timeout, cfg.Mock)),
		real:     real,
		sim:      sim,
		cache:    c,
		cacheTTL: cfg.CacheTTL,
		logger:   logger,
	}
}

// Verify checks an EIN against the legal business name.
func (s *EINService) Verify(ctx context.Context, rawEIN, legalName string) (call.Outcome[ein.Verification], error) {
	if err := ein.Validate(rawEIN); err != nil {
		return call.Outcome[ein.Verification]{ErrorKind: call.ErrorKindClient, BreakerState: s.dep.State()}, err
	}
	norm := ein.Normalize(rawEIN)
	key := "ein:" + norm + ":" + ein.NameControl(legalName)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var v ein.Verification
			if err := json.Unmarshal(raw, &v); err == nil {
				return call.Outcome[ein.Verification]{
					Success:      true,
					Data:         v,
					Attempts:     0,
					BreakerState: s.dep.State(),
				}, nil
			}
		}
	}

	out, err := resilience.Execute(ctx, s.dep, "verify",
		func(ctx context.Context) (ein.Verification, error) {
			return s.real.Verify(ctx, norm, legalName)
		},
		func(ctx context.Context) (ein.Verification, error) {
			return s.sim.Verify(ctx, norm, legalName)
		},
	)
	if err == nil && out.Success && !out.Simulated && s.cache != nil {
		raw, mErr := json.Marshal(out.Data)
		if mErr == nil {
			mErr = s.cache.Set(ctx, key, raw, s.cacheTTL)
		}
		if mErr != nil {
			s.logger.Warn("failed to cache verification result", "error", mErr)
		}
	}
	return out, err
}

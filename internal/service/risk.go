package service

import (
	"context"

	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/risk"
	"github.com/mblcrm/lendgate/internal/resilience"
)

// RiskAssessor is implemented by the LLM client and its simulator.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, req risk.Request) (risk.Assessment, error)
}

// RiskService scores loan applications through the LLM provider.
type RiskService struct {
	dep  *resilience.Dependency
	real RiskAssessor
	sim  RiskAssessor
}

// NewRiskService creates a new RiskService.
func NewRiskService(m *resilience.Manager, rcfg config.Resilience, cfg config.LLMConfig, real, sim RiskAssessor) *RiskService {
	return &RiskService{
		dep:  m.Dependency(DepLLM, breakerConfig(rcfg, cfg.Timeout, cfg.Mock)),
		real: real,
		sim:  sim,
	}
}

// Assess scores one loan application.
func (s *RiskService) Assess(ctx context.Context, req risk.Request) (call.Outcome[risk.Assessment], error) {
	if err := req.Validate(); err != nil {
		return call.Outcome[risk.Assessment]{ErrorKind: call.ErrorKindClient, BreakerState: s.dep.State()}, err
	}
	return resilience.Execute(ctx, s.dep, "assess",
		func(ctx context.Context) (risk.Assessment, error) {
			return s.real.AssessRisk(ctx, req)
		},
		func(ctx context.Context) (risk.Assessment, error) {
			return s.sim.AssessRisk(ctx, req)
		},
	)
}

package service

import (
	"context"
	"fmt"

	"github.com/mblcrm/lendgate/internal/config"
	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/document"
	"github.com/mblcrm/lendgate/internal/resilience"
)

// maxDocumentBytes caps uploads at what the analysis backend accepts.
const maxDocumentBytes = 8 << 20

// DocumentAnalyzer is implemented by the document intelligence client and
// its simulator.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, fileName string, content []byte) (document.Analysis, error)
}

// DocumentService classifies uploaded loan documents and flags anomalies.
type DocumentService struct {
	dep  *resilience.Dependency
	real DocumentAnalyzer
	sim  DocumentAnalyzer
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(m *resilience.Manager, rcfg config.Resilience, cfg config.DocIntelConfig, real, sim DocumentAnalyzer) *DocumentService {
	return &DocumentService{
		dep:  m.Dependency(DepDocIntel, breakerConfig(rcfg, cfg.Timeout, cfg.Mock)),
		real: real,
		sim:  sim,
	}
}

// Analyze runs document analysis on one uploaded file.
func (s *DocumentService) Analyze(ctx context.Context, fileName string, content []byte) (call.Outcome[document.Analysis], error) {
	if err := validateDocument(fileName, content); err != nil {
		return call.Outcome[document.Analysis]{ErrorKind: call.ErrorKindClient, BreakerState: s.dep.State()}, err
	}
	return resilience.Execute(ctx, s.dep, "analyze",
		func(ctx context.Context) (document.Analysis, error) {
			return s.real.Analyze(ctx, fileName, content)
		},
		func(ctx context.Context) (document.Analysis, error) {
			return s.sim.Analyze(ctx, fileName, content)
		},
	)
}

func validateDocument(fileName string, content []byte) error {
	if fileName == "" {
		return fmt.Errorf("%w: file_name is required", call.ErrValidation)
	}
	if len(content) == 0 {
		return fmt.Errorf("%w: content is empty", call.ErrValidation)
	}
	if len(content) > maxDocumentBytes {
		return fmt.Errorf("%w: content exceeds %d bytes", call.ErrValidation, maxDocumentBytes)
	}
	return nil
}

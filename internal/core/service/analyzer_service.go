package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chainscope/chainscope/internal/core/domain"
)

// AnalyzerService fans a batch of addresses out to the chain analyzers and
// joins the results in input order. Failures are isolated per address:
// nothing here can fail the batch.
type AnalyzerService struct {
	analyzers map[domain.Chain]domain.ChainAnalyzer
	logger    zerolog.Logger
}

func NewAnalyzerService(logger zerolog.Logger, analyzers ...domain.ChainAnalyzer) *AnalyzerService {
	byChain := make(map[domain.Chain]domain.ChainAnalyzer, len(analyzers))
	for _, a := range analyzers {
		byChain[a.Chain()] = a
	}
	return &AnalyzerService{
		analyzers: byChain,
		logger:    logger,
	}
}

// Analyze runs one task per address and returns one report per input
// address, preserving order. windowDays <= 0 means all-time.
func (s *AnalyzerService) Analyze(ctx context.Context, addresses []string, windowDays int) []domain.Report {
	reports := make([]domain.Report, len(addresses))

	g, ctx := errgroup.WithContext(ctx)
	for i, address := range addresses {
		g.Go(func() error {
			reports[i] = s.analyzeOne(ctx, address, windowDays)
			// Per-address failures land in the report slice; returning nil
			// keeps the group from cancelling sibling analyses.
			return nil
		})
	}
	_ = g.Wait()

	return reports
}

func (s *AnalyzerService) analyzeOne(ctx context.Context, address string, windowDays int) domain.Report {
	chain := domain.ClassifyAddress(address)
	if chain == domain.ChainUnknown {
		return &domain.AnalysisError{
			Address: address,
			Chain:   chain,
			Message: "unrecognized address format",
		}
	}

	analyzer, ok := s.analyzers[chain]
	if !ok {
		return &domain.AnalysisError{
			Address: address,
			Chain:   chain,
			Message: "no analyzer configured for chain " + chain.String(),
		}
	}

	report, err := analyzer.Analyze(ctx, address, windowDays)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("chain", chain.String()).
			Str("address", address).
			Msg("address analysis failed")
		return &domain.AnalysisError{
			Address: address,
			Chain:   chain,
			Message: err.Error(),
		}
	}

	return report
}

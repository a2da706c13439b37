package finance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services/dataset"
	"github.com/dunderai/auditcore/services/detector"
	"github.com/dunderai/auditcore/services/evaluator"
	"go.uber.org/zap"
)

// Preview is a compact look at a dataset: its columns and the first rows.
type Preview struct {
	Columns []string     `json:"columns"`
	Rows    []models.Row `json:"preview"`
}

// previewRows caps how many leading rows a preview carries.
const previewRows = 5

// Service bundles the finance agent's data tools: dataset access through
// the cache, the fraud pattern detector and the sandboxed snippet
// evaluator. Every tool resolves an empty source path to the configured
// default dataset.
type Service struct {
	cache         *dataset.Cache
	detector      *detector.Service
	evaluator     *evaluator.Service
	defaultSource string
	logger        *zap.Logger
}

// NewService creates the finance toolset.
func NewService(
	cache *dataset.Cache,
	det *detector.Service,
	eval *evaluator.Service,
	defaultSource string,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:         cache,
		detector:      det,
		evaluator:     eval,
		defaultSource: defaultSource,
		logger:        logger,
	}
}

// resolveSource falls back to the configured default dataset.
func (s *Service) resolveSource(path string) string {
	if path == "" {
		return s.defaultSource
	}
	return path
}

// Verify checks that the default dataset is reachable and pre-warms the
// cache. Used at startup and by readiness probes.
func (s *Service) Verify(ctx context.Context) error {
	_, err := s.cache.Load(ctx, s.defaultSource)
	if err != nil {
		return fmt.Errorf("dataset verification failed: %w", err)
	}
	return nil
}

// Preview returns the dataset's columns and its first rows.
func (s *Service) Preview(ctx context.Context, path string) (*Preview, error) {
	rs, err := s.cache.Load(ctx, s.resolveSource(path))
	if err != nil {
		return nil, err
	}
	return &Preview{
		Columns: rs.Columns,
		Rows:    rs.Head(previewRows),
	}, nil
}

// Statistics renders a describe-style summary of every numeric column:
// count, mean, standard deviation, min and max.
func (s *Service) Statistics(ctx context.Context, path string) (string, error) {
	rs, err := s.cache.Load(ctx, s.resolveSource(path))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, col := range rs.Columns {
		values := rs.NumericColumn(col)
		if len(values) == 0 {
			continue
		}
		mean, sd, min, max := describe(values)
		fmt.Fprintf(&b, "%s: count=%d mean=%.2f std=%.2f min=%.2f max=%.2f\n",
			col, len(values), mean, sd, min, max)
	}
	if b.Len() == 0 {
		return "no numeric columns", nil
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// Scan runs the fraud pattern detector over the dataset.
func (s *Service) Scan(ctx context.Context, path string) ([]models.Finding, error) {
	rs, err := s.cache.Load(ctx, s.resolveSource(path))
	if err != nil {
		return nil, err
	}
	return s.detector.Detect(rs)
}

// Execute evaluates a snippet against the dataset. The returned error is
// non-nil for data source failures and pre-execution snippet rejections;
// runtime evaluation failures come back as descriptive text.
func (s *Service) Execute(ctx context.Context, path, snippet string) (string, error) {
	rs, err := s.cache.Load(ctx, s.resolveSource(path))
	if err != nil {
		return "", err
	}
	return s.evaluator.Evaluate(rs, snippet)
}

// describe computes summary statistics over values.
func describe(values []float64) (mean, sd, min, max float64) {
	min = values[0]
	max = values[0]
	var sum float64
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	sd = math.Sqrt(sq / float64(len(values)))
	return mean, sd, min, max
}

package handlers

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services"
	"github.com/dunderai/auditcore/services/broker"
	"github.com/dunderai/auditcore/services/dataset"
	"github.com/dunderai/auditcore/services/detector"
	"github.com/dunderai/auditcore/services/evaluator"
	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/services/specialists"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCSV = "employee,date,amount,vendor\n" +
	"Jim,2024-01-15,120.50,Office Depot\n" +
	"Pam,2024-01-16,89.99,Staples\n" +
	"Dwight,2024-01-17,45.00,Schrute Farms\n"

func writeExpenseCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte(testCSV), 0o600))
	return path
}

func newTestFinance(t *testing.T, source string) *finance.Service {
	t.Helper()
	logger := zap.NewNop()
	cache := dataset.NewCache(dataset.NewLoader(nil), dataset.DefaultCapacity, logger)
	return finance.NewService(
		cache,
		detector.NewService(logger),
		evaluator.NewService(logger),
		source,
		logger,
	)
}

type stubInvestigator struct {
	mu      sync.Mutex
	report  string
	err     error
	focuses []specialists.InvestigationFocus
}

func (s *stubInvestigator) Investigate(ctx context.Context, focus specialists.InvestigationFocus) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focuses = append(s.focuses, focus)
	return s.report, s.err
}

type stubCompliance struct {
	answer string
	err    error
}

func (s *stubCompliance) CheckCompliance(ctx context.Context, question string) (string, error) {
	return s.answer, s.err
}

func newTestRegistry(inv *stubInvestigator, comp *stubCompliance) *specialists.Registry {
	registry := specialists.NewRegistry()
	if inv != nil {
		registry.RegisterInvestigator(inv)
	}
	if comp != nil {
		registry.RegisterComplianceChecker(comp)
	}
	return registry
}

func newTestBroker(t *testing.T, financeSvc *finance.Service, registry *specialists.Registry) *broker.Broker {
	t.Helper()
	logger := zap.NewNop()

	b := broker.New(logger)
	require.NoError(t, broker.NewHandlerSet(registry, financeSvc, logger).RegisterAll(b))
	return b
}

type memoryVerdicts struct {
	mu       sync.Mutex
	stored   []*models.Verdict
	insertEr error
	listErr  error
}

func (m *memoryVerdicts) Insert(ctx context.Context, verdict *models.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertEr != nil {
		return m.insertEr
	}
	m.stored = append(m.stored, verdict)
	return nil
}

func (m *memoryVerdicts) GetByID(ctx context.Context, id uuid.UUID) (*models.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.stored {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, services.ErrVerdictNotFound
}

func (m *memoryVerdicts) GetRecent(ctx context.Context, limit int) ([]*models.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	if limit > len(m.stored) {
		limit = len(m.stored)
	}
	return m.stored[:limit], nil
}

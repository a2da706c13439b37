package orchestrator

import (
	"context"
	"errors"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubInvestigator struct {
	mu      sync.Mutex
	report  string
	err     error
	calls   int
	focuses []specialists.InvestigationFocus
}

func (s *stubInvestigator) Investigate(ctx context.Context, focus specialists.InvestigationFocus) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.focuses = append(s.focuses, focus)
	return s.report, s.err
}

type stubCompliance struct {
	mu     sync.Mutex
	answer string
	calls  int
	asked  []string
}

func (s *stubCompliance) CheckCompliance(ctx context.Context, question string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.asked = append(s.asked, question)
	return s.answer, nil
}

type memoryVerdicts struct {
	mu       sync.Mutex
	inserted []*models.Verdict
	err      error
}

func (m *memoryVerdicts) Insert(ctx context.Context, verdict *models.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.inserted = append(m.inserted, verdict)
	return nil
}

func (m *memoryVerdicts) GetByID(ctx context.Context, id uuid.UUID) (*models.Verdict, error) {
	return nil, services.ErrVerdictNotFound
}

func (m *memoryVerdicts) GetRecent(ctx context.Context, limit int) ([]*models.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserted, nil
}

type fixture struct {
	svc          *Service
	broker       *broker.Broker
	investigator *stubInvestigator
	compliance   *stubCompliance
	verdicts     *memoryVerdicts
}

func writeCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o600))
	return path
}

const cleanCSV = "employee,date,amount,vendor\n" +
	"Jim,2024-01-15,120.50,Office Depot\n" +
	"Pam,2024-01-16,89.99,Staples\n" +
	"Kevin,2024-01-17,450.00,Vance Refrigeration\n"

func newFixture(t *testing.T, csv string, inv *stubInvestigator, comp *stubCompliance, opts ...Option) *fixture {
	t.Helper()
	logger := zap.NewNop()

	source := writeCSV(t, csv)
	cache := dataset.NewCache(dataset.NewLoader(nil), dataset.DefaultCapacity, logger)
	financeSvc := finance.NewService(
		cache,
		detector.NewService(logger),
		evaluator.NewService(logger),
		source,
		logger,
	)

	registry := specialists.NewRegistry()
	if inv != nil {
		registry.RegisterInvestigator(inv)
	}
	if comp != nil {
		registry.RegisterComplianceChecker(comp)
	}

	b := broker.New(logger)
	require.NoError(t, broker.NewHandlerSet(registry, financeSvc, logger).RegisterAll(b))

	verdicts := &memoryVerdicts{}
	opts = append(opts, WithVerdictRepository(verdicts))

	return &fixture{
		svc:          NewService(b, registry, financeSvc, logger, opts...),
		broker:       b,
		investigator: inv,
		compliance:   comp,
		verdicts:     verdicts,
	}
}

func TestClassify(t *testing.T) {
	s := NewService(nil, nil, nil, zap.NewNop())

	cases := []struct {
		request string
		want    models.Workflow
	}{
		{"Investigate possible fraud in the accounting branch", models.WorkflowComplexFraudAudit},
		{"Houve fraude nas despesas de Scranton?", models.WorkflowComplexFraudAudit},
		{"What was discussed in the secret meeting?", models.WorkflowSocialInvestigation},
		{"Analise o comportamento do Kevin nos emails", models.WorkflowSocialInvestigation},
		{"Is a $300 dinner allowed under the expense policy?", models.WorkflowSimpleRuleCheck},
		{"Posso aprovar minha própria despesa?", models.WorkflowSimpleRuleCheck},
		{"Run a full review of the expense data", models.WorkflowGeneralAudit},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, s.Classify(tc.request), tc.request)
	}
}

func TestRunAudit_EmptyRequest(t *testing.T) {
	f := newFixture(t, cleanCSV, &stubInvestigator{}, &stubCompliance{})

	_, err := f.svc.RunAudit(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
}

func TestComplexFraudAudit_NoEvidenceSkipsRemainingSteps(t *testing.T) {
	inv := &stubInvestigator{report: ""}
	comp := &stubCompliance{answer: "should never be asked"}
	f := newFixture(t, cleanCSV, inv, comp)

	verdict, err := f.svc.RunAudit(context.Background(), "investigate the fraud rumors")
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowComplexFraudAudit, verdict.Workflow)
	assert.True(t, verdict.NoEvidence)
	assert.Equal(t, NoEvidenceOutcome, verdict.Outcome)

	assert.Equal(t, 1, inv.calls)
	assert.Equal(t, 0, comp.calls, "compliance must not run without evidence")
	assert.Empty(t, f.broker.Log(), "no broker traffic may be fabricated")
}

func TestComplexFraudAudit_VagueReportIsNoEvidence(t *testing.T) {
	inv := &stubInvestigator{report: "Nothing conclusive surfaced in the mailbox review."}
	comp := &stubCompliance{}
	f := newFixture(t, cleanCSV, inv, comp)

	verdict, err := f.svc.RunAudit(context.Background(), "look into the kickback scheme")
	require.NoError(t, err)

	assert.True(t, verdict.NoEvidence)
	assert.Equal(t, 0, comp.calls)
}

func TestComplexFraudAudit_FullChain(t *testing.T) {
	inv := &stubInvestigator{
		report: "Kevin Malone arranged a transfer of $450.00 on 2024-01-17 to a private account.",
	}
	comp := &stubCompliance{answer: "A política não permite transferências para contas privadas."}
	f := newFixture(t, cleanCSV, inv, comp)

	verdict, err := f.svc.RunAudit(context.Background(), "audit the suspected fraud by Kevin")
	require.NoError(t, err)

	assert.False(t, verdict.NoEvidence)
	assert.Contains(t, verdict.Outcome, "Kevin Malone")
	assert.Contains(t, verdict.Outcome, "Financial verification")
	assert.Contains(t, verdict.Outcome, "Policy violation confirmed.")
	assert.Equal(t, 1, verdict.HighCount)

	require.Equal(t, []specialists.InvestigationFocus{specialists.FocusFinancial}, inv.focuses)
	require.Len(t, comp.asked, 1)
	assert.Contains(t, comp.asked[0], "$450.00")

	// One finance round trip plus one compliance round trip.
	assert.Len(t, f.broker.Log(), 4)

	require.Len(t, f.verdicts.inserted, 1)
	assert.Equal(t, verdict.ID, f.verdicts.inserted[0].ID)
}

func TestComplexFraudAudit_InvestigatorFailure(t *testing.T) {
	inv := &stubInvestigator{err: errors.New("mailbox index offline")}
	f := newFixture(t, cleanCSV, inv, &stubCompliance{})

	verdict, err := f.svc.RunAudit(context.Background(), "check for fraud")
	require.NoError(t, err)
	assert.Contains(t, verdict.Outcome, CheckFailedOutcome)
	assert.NotContains(t, verdict.Outcome, "mailbox index offline",
		"raw errors stay out of the answer")
}

func TestSocialInvestigation(t *testing.T) {
	t.Run("plain report needs no escalation", func(t *testing.T) {
		inv := &stubInvestigator{report: "Jim and Pam planned a surprise event for the office."}
		comp := &stubCompliance{}
		f := newFixture(t, cleanCSV, inv, comp)

		verdict, err := f.svc.RunAudit(context.Background(), "what was the secret meeting about?")
		require.NoError(t, err)

		assert.Equal(t, models.WorkflowSocialInvestigation, verdict.Workflow)
		assert.False(t, verdict.NoEvidence)
		assert.Equal(t, 0, comp.calls)
		require.Equal(t, []specialists.InvestigationFocus{specialists.FocusSocial}, inv.focuses)
	})

	t.Run("serious infraction escalates to compliance", func(t *testing.T) {
		inv := &stubInvestigator{report: "Several messages describe theft of office supplies."}
		comp := &stubCompliance{answer: "Furto de material não é permitido e é passível de demissão."}
		f := newFixture(t, cleanCSV, inv, comp)

		verdict, err := f.svc.RunAudit(context.Background(), "review the behavior complaints")
		require.NoError(t, err)

		assert.Equal(t, 1, comp.calls)
		assert.Contains(t, verdict.Outcome, "Severity assessment")
		assert.Equal(t, 1, verdict.HighCount)
	})
}

func TestSimpleRuleCheck(t *testing.T) {
	comp := &stubCompliance{answer: "Jantares até $500 são permitidos com nota fiscal."}
	f := newFixture(t, cleanCSV, &stubInvestigator{}, comp)

	verdict, err := f.svc.RunAudit(context.Background(), "is a team dinner allowed on the corporate card?")
	require.NoError(t, err)

	assert.Equal(t, models.WorkflowSimpleRuleCheck, verdict.Workflow)
	assert.Equal(t, comp.answer, verdict.Outcome)
	assert.Equal(t, 0, verdict.HighCount)
	require.Len(t, comp.asked, 1)
	assert.Equal(t, "is a team dinner allowed on the corporate card?", comp.asked[0])
}

func TestGeneralAudit(t *testing.T) {
	t.Run("clean data yields no evidence", func(t *testing.T) {
		f := newFixture(t, cleanCSV, &stubInvestigator{}, &stubCompliance{})

		verdict, err := f.svc.RunAudit(context.Background(), "run the quarterly review")
		require.NoError(t, err)

		assert.Equal(t, models.WorkflowGeneralAudit, verdict.Workflow)
		assert.True(t, verdict.NoEvidence)
		assert.Equal(t, NoEvidenceOutcome, verdict.Outcome)
	})

	t.Run("findings trigger corroboration", func(t *testing.T) {
		flaggedCSV := "employee,date,amount,vendor\n" +
			"Creed,2024-01-15,210.00,Petty Cash\n" +
			"Jim,2024-01-16,120.50,Office Depot\n" +
			"Pam,2024-01-17,89.99,Staples\n"
		inv := &stubInvestigator{report: "Creed mentions withdrawing petty cash repeatedly."}
		f := newFixture(t, flaggedCSV, inv, &stubCompliance{})

		verdict, err := f.svc.RunAudit(context.Background(), "run the quarterly review")
		require.NoError(t, err)

		assert.False(t, verdict.NoEvidence)
		assert.Contains(t, verdict.Outcome, "suspicious_vendors")
		assert.Contains(t, verdict.Outcome, "Corroborating evidence")
		assert.Equal(t, verdict.MediumCount, 1)
		assert.Equal(t, 1, inv.calls)
	})
}

func TestArchiveFailureDoesNotFailAudit(t *testing.T) {
	comp := &stubCompliance{answer: "Permitido."}
	f := newFixture(t, cleanCSV, &stubInvestigator{}, comp)
	f.verdicts.err = errors.New("archive unavailable")

	verdict, err := f.svc.RunAudit(context.Background(), "is coffee allowed?")
	require.NoError(t, err)
	assert.NotNil(t, verdict)
}

func TestExtractEvidence(t *testing.T) {
	ev := extractEvidence("Kevin Malone moved $450.00 and 1200,50 on 2024-01-17 and again on 03/02/2024.")

	assert.Equal(t, []string{"$450.00", "1200,50"}, ev.Amounts)
	assert.Equal(t, []string{"2024-01-17", "03/02/2024"}, ev.Dates)
	assert.Contains(t, ev.Names, "Kevin Malone")
	assert.True(t, ev.concrete())

	assert.False(t, extractEvidence("").concrete())
	assert.False(t, extractEvidence("The review found nothing unusual.").concrete())
}

func TestBuildFinanceQuery(t *testing.T) {
	assert.Equal(t, "len(filter(rows, .amount == 450.00))",
		buildFinanceQuery(evidence{Amounts: []string{"$450.00"}}))
	assert.Equal(t, "len(filter(rows, .amount == 1200.50))",
		buildFinanceQuery(evidence{Amounts: []string{"1200,50"}}))
	assert.Equal(t, "row_count",
		buildFinanceQuery(evidence{Dates: []string{"2024-01-17"}}))
}

package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/repositories"
	"github.com/dunderai/auditcore/services"
	"github.com/dunderai/auditcore/services/broker"
	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/services/specialists"
	"go.uber.org/zap"
)

const (
	// NoEvidenceOutcome is reported when an investigation turns up
	// nothing concrete. Downstream steps are skipped, never fabricated.
	NoEvidenceOutcome = "no evidence found"

	// CheckFailedOutcome prefixes verdicts for requests whose capability
	// calls failed. Raw errors stay in the logs, not in the answer.
	CheckFailedOutcome = "check failed"

	// DefaultStepTimeout bounds each capability round trip. A hung
	// specialist fails its step instead of hanging the audit.
	DefaultStepTimeout = 30 * time.Second
)

// Keyword tables for intake classification, in the two languages
// requests arrive in. Order of the checks encodes priority.
var (
	fraudKeywords = []string{
		"fraud", "fraude", "embezzle", "desvio", "scheme", "esquema",
		"launder", "lavagem", "kickback", "propina",
	}
	socialKeywords = []string{
		"behavior", "comportamento", "meeting", "reunião", "conflict",
		"conflito", "party", "festa", "plan", "plano", "social", "email",
	}
	ruleKeywords = []string{
		"allowed", "permitido", "policy", "política", "compliance",
		"rule", "regra", "can i", "posso", "may i", "pode",
	}

	// seriousInfractionKeywords escalate a social investigation into a
	// compliance severity assessment.
	seriousInfractionKeywords = []string{
		"harass", "assédio", "theft", "roubo", "furto", "fraud", "fraude",
		"threat", "ameaça", "discriminat", "discrimina", "bribe", "suborno",
	}
)

// Patterns for pulling concrete values out of an investigation report.
var (
	amountPattern = regexp.MustCompile(`\$\s?\d+(?:[.,]\d+)?|\b\d+[.,]\d{2}\b`)
	datePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}/\d{2}/\d{4}\b`)
	namePattern   = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)?\b`)
)

// evidence holds the concrete values extracted from an investigation
// report. The follow-up steps only run when something concrete was
// actually named.
type evidence struct {
	Report  string   `json:"report"`
	Amounts []string `json:"amounts,omitempty"`
	Dates   []string `json:"dates,omitempty"`
	Names   []string `json:"names,omitempty"`
}

func (e evidence) concrete() bool {
	return len(e.Amounts) > 0 || len(e.Dates) > 0
}

// Service drives one audit request through its workflow: intake
// classification, the capability calls the workflow prescribes, and
// verdict synthesis. Transitions are one-shot per request; there are no
// loops and no backtracking.
type Service struct {
	broker      *broker.Broker
	registry    *specialists.Registry
	finance     *finance.Service
	verdicts    repositories.VerdictRepository
	stepTimeout time.Duration
	logger      *zap.Logger
}

// Option configures the orchestrator.
type Option func(*Service)

// WithStepTimeout overrides the per-capability-call deadline.
func WithStepTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

// WithVerdictRepository enables verdict archiving. Without it verdicts
// are returned to the caller only.
func WithVerdictRepository(repo repositories.VerdictRepository) Option {
	return func(s *Service) {
		s.verdicts = repo
	}
}

// NewService creates the orchestrator.
func NewService(
	b *broker.Broker,
	registry *specialists.Registry,
	financeSvc *finance.Service,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		broker:      b,
		registry:    registry,
		finance:     financeSvc,
		stepTimeout: DefaultStepTimeout,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify maps a request onto one of the four workflows by keyword.
// Fraud wording wins over social wording wins over rule wording;
// everything else is a general audit.
func (s *Service) Classify(request string) models.Workflow {
	lower := strings.ToLower(request)
	for _, kw := range fraudKeywords {
		if strings.Contains(lower, kw) {
			return models.WorkflowComplexFraudAudit
		}
	}
	for _, kw := range socialKeywords {
		if strings.Contains(lower, kw) {
			return models.WorkflowSocialInvestigation
		}
	}
	for _, kw := range ruleKeywords {
		if strings.Contains(lower, kw) {
			return models.WorkflowSimpleRuleCheck
		}
	}
	return models.WorkflowGeneralAudit
}

// RunAudit processes one audit request end to end and returns the
// synthesized verdict. Capability failures land in the verdict text as
// a check-failed outcome; the only error returned is input validation.
func (s *Service) RunAudit(ctx context.Context, request string) (*models.Verdict, error) {
	if strings.TrimSpace(request) == "" {
		return nil, services.NewDomainError(services.ErrorTypeValidation, "audit request cannot be empty", services.ErrEmptyRequest)
	}

	workflow := s.Classify(request)
	s.logger.Info("audit request classified",
		zap.String("workflow", string(workflow)))

	verdict := models.NewVerdict(request, workflow)
	switch workflow {
	case models.WorkflowComplexFraudAudit:
		s.runComplexFraudAudit(ctx, verdict)
	case models.WorkflowSocialInvestigation:
		s.runSocialInvestigation(ctx, verdict)
	case models.WorkflowSimpleRuleCheck:
		s.runSimpleRuleCheck(ctx, verdict)
	default:
		s.runGeneralAudit(ctx, verdict)
	}

	s.archive(ctx, verdict)
	return verdict, nil
}

// runComplexFraudAudit chains investigation, financial verification and
// compliance judgment. An empty investigation short-circuits straight
// to a no-evidence verdict; steps 2 and 3 are never fabricated.
func (s *Service) runComplexFraudAudit(ctx context.Context, verdict *models.Verdict) {
	report, err := s.investigate(ctx, specialists.FocusFinancial)
	if err != nil {
		s.failCheck(verdict, "investigation", err)
		return
	}

	ev := extractEvidence(report)
	if !ev.concrete() {
		verdict.WithOutcome(NoEvidenceOutcome, true)
		return
	}

	financeQuery := buildFinanceQuery(ev)
	financeResp := s.send(ctx, models.AgentFraudDetector,
		models.FinanceQueryPayload{Query: financeQuery})
	if financeResp.Status == models.StatusError {
		s.failCheck(verdict, "financial verification", fmt.Errorf("%s", financeResp.Error))
		return
	}
	financeResult, _ := financeResp.Response.(models.FinanceResult)

	question := buildComplianceQuestion(ev)
	complianceResp := s.send(ctx, models.AgentCompliance,
		models.CompliancePayload{Question: question})
	if complianceResp.Status == models.StatusError {
		s.failCheck(verdict, "compliance judgment", fmt.Errorf("%s", complianceResp.Error))
		return
	}
	complianceResult, _ := complianceResp.Response.(models.ComplianceResult)

	var b strings.Builder
	fmt.Fprintf(&b, "Investigation: %s\n", strings.TrimSpace(report))
	fmt.Fprintf(&b, "Financial verification (%s): %s\n", financeQuery, financeResult.Result)
	fmt.Fprintf(&b, "Compliance judgment: %s", complianceResult.ComplianceResponse)
	if complianceResult.IsViolation {
		b.WriteString("\nPolicy violation confirmed.")
		verdict.HighCount++
	}

	verdict.WithOutcome(b.String(), false).WithDetails(ev)
}

// runSocialInvestigation scopes the investigator to behavioral risk and
// escalates to compliance only when the report names a serious
// infraction.
func (s *Service) runSocialInvestigation(ctx context.Context, verdict *models.Verdict) {
	report, err := s.investigate(ctx, specialists.FocusSocial)
	if err != nil {
		s.failCheck(verdict, "investigation", err)
		return
	}
	if strings.TrimSpace(report) == "" {
		verdict.WithOutcome(NoEvidenceOutcome, true)
		return
	}

	outcome := "Investigation: " + strings.TrimSpace(report)
	if containsSeriousInfraction(report) {
		resp := s.send(ctx, models.AgentCompliance,
			models.CompliancePayload{
				Question: fmt.Sprintf("How severe is the following conduct under company policy? %s", strings.TrimSpace(report)),
			})
		if resp.Status == models.StatusError {
			s.failCheck(verdict, "compliance severity assessment", fmt.Errorf("%s", resp.Error))
			return
		}
		result, _ := resp.Response.(models.ComplianceResult)
		outcome += "\nSeverity assessment: " + result.ComplianceResponse
		if result.IsViolation {
			verdict.HighCount++
		}
	}

	verdict.WithOutcome(outcome, false)
}

// runSimpleRuleCheck forwards the request to compliance as-is.
func (s *Service) runSimpleRuleCheck(ctx context.Context, verdict *models.Verdict) {
	resp := s.send(ctx, models.AgentCompliance,
		models.CompliancePayload{Question: verdict.RequestText})
	if resp.Status == models.StatusError {
		s.failCheck(verdict, "rule check", fmt.Errorf("%s", resp.Error))
		return
	}
	result, _ := resp.Response.(models.ComplianceResult)
	if result.IsViolation {
		verdict.HighCount++
	}
	verdict.WithOutcome(result.ComplianceResponse, false)
}

// runGeneralAudit scans the default dataset with the pattern detector
// and, when anything was flagged, asks the investigator for
// corroborating narrative evidence.
func (s *Service) runGeneralAudit(ctx context.Context, verdict *models.Verdict) {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	findings, err := s.finance.Scan(stepCtx, "")
	cancel()
	if err != nil {
		s.failCheck(verdict, "pattern scan", err)
		return
	}

	verdict.WithFindings(findings).WithDetails(findings)
	if len(findings) == 0 {
		verdict.WithOutcome(NoEvidenceOutcome, true)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pattern scan flagged %d categories:\n", len(findings))
	for _, f := range findings {
		fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Pattern, f.Description)
	}

	report, err := s.investigate(ctx, specialists.FocusFinancial)
	if err != nil {
		s.logger.Warn("corroboration step failed", zap.Error(err))
		b.WriteString("Corroborating investigation unavailable.")
	} else if strings.TrimSpace(report) == "" {
		b.WriteString("No corroborating narrative evidence.")
	} else {
		b.WriteString("Corroborating evidence: " + strings.TrimSpace(report))
	}

	verdict.WithOutcome(b.String(), false)
}

// send routes one broker round trip under the step deadline.
func (s *Service) send(ctx context.Context, to models.AgentID, payload models.Payload) *models.MessageResponse {
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return s.broker.Send(stepCtx, models.AgentOrchestrator, to, payload)
}

// investigate runs the investigation capability under the step deadline.
func (s *Service) investigate(ctx context.Context, focus specialists.InvestigationFocus) (string, error) {
	investigator, err := s.registry.Investigator()
	if err != nil {
		return "", err
	}
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	return investigator.Investigate(stepCtx, focus)
}

// failCheck records a degraded outcome. The reader learns which step
// failed; the raw error goes to the logs.
func (s *Service) failCheck(verdict *models.Verdict, step string, err error) {
	s.logger.Error("audit step failed",
		zap.String("workflow", string(verdict.Workflow)),
		zap.String("step", step),
		zap.Error(err))
	verdict.WithOutcome(fmt.Sprintf("%s: %s did not complete", CheckFailedOutcome, step), false)
}

// archive persists the verdict when a repository is configured.
// Archiving is best effort and never fails the audit.
func (s *Service) archive(ctx context.Context, verdict *models.Verdict) {
	if s.verdicts == nil {
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, s.stepTimeout)
	defer cancel()
	if err := s.verdicts.Insert(stepCtx, verdict); err != nil {
		s.logger.Warn("verdict archiving failed",
			zap.String("verdict_id", verdict.ID.String()),
			zap.Error(err))
	}
}

// extractEvidence pulls amounts, dates and capitalized names out of an
// investigation report. Common report leading words are not names.
func extractEvidence(report string) evidence {
	ev := evidence{Report: strings.TrimSpace(report)}
	if ev.Report == "" {
		return ev
	}
	ev.Amounts = dedupe(amountPattern.FindAllString(report, -1))
	ev.Dates = dedupe(datePattern.FindAllString(report, -1))
	for _, name := range dedupe(namePattern.FindAllString(report, -1)) {
		if !stopName(name) {
			ev.Names = append(ev.Names, name)
		}
	}
	return ev
}

var nameStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "On": true, "In": true,
	"Found": true, "Evidence": true, "Report": true, "No": true,
	"Investigation": true,
}

func stopName(name string) bool {
	first := strings.SplitN(name, " ", 2)[0]
	return nameStopwords[first]
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// buildFinanceQuery turns the extracted evidence into a snippet for the
// finance capability: count the transactions matching the first
// concrete amount, or fall back to a row count for date-only evidence.
func buildFinanceQuery(ev evidence) string {
	if len(ev.Amounts) > 0 {
		return fmt.Sprintf("len(filter(rows, .amount == %s))", normalizeAmount(ev.Amounts[0]))
	}
	return "row_count"
}

// buildComplianceQuestion phrases the concrete action for the
// compliance capability.
func buildComplianceQuestion(ev evidence) string {
	subject := "an employee"
	if len(ev.Names) > 0 {
		subject = ev.Names[0]
	}
	if len(ev.Amounts) > 0 {
		return fmt.Sprintf("Is an expense of %s by %s allowed under company policy?",
			strings.TrimSpace(ev.Amounts[0]), subject)
	}
	return fmt.Sprintf("Is the activity of %s on %s allowed under company policy?",
		subject, ev.Dates[0])
}

// normalizeAmount strips currency symbols and converts a decimal comma
// so the value parses as a number inside a snippet.
func normalizeAmount(raw string) string {
	cleaned := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	return strings.ReplaceAll(cleaned, ",", ".")
}

func containsSeriousInfraction(report string) bool {
	lower := strings.ToLower(report)
	for _, kw := range seriousInfractionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

package broker

import (
	"context"
	"fmt"
	"strings"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services/finance"
	"github.com/dunderai/auditcore/services/specialists"
	"go.uber.org/zap"
)

// violationMarkers are the negative-decision phrases searched for in a
// compliance answer, in the languages the compliance agent answers in.
// This is a coarse substring heuristic, not a parse of the decision.
var violationMarkers = []string{
	"não permite",
	"não é permitido",
	"não pode",
	"not allowed",
	"not permitted",
	"does not permit",
	"is a violation",
}

// ContainsViolationMarker reports whether a compliance answer reads as a
// negative decision.
func ContainsViolationMarker(answer string) bool {
	lower := strings.ToLower(answer)
	for _, marker := range violationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// HandlerSet wires the specialist capabilities and the finance toolset
// into broker handlers, one per recipient agent.
type HandlerSet struct {
	registry *specialists.Registry
	finance  *finance.Service
	logger   *zap.Logger
}

// NewHandlerSet creates the default handler set.
func NewHandlerSet(registry *specialists.Registry, financeSvc *finance.Service, logger *zap.Logger) *HandlerSet {
	return &HandlerSet{
		registry: registry,
		finance:  financeSvc,
		logger:   logger,
	}
}

// RegisterAll installs one handler per known recipient.
func (h *HandlerSet) RegisterAll(b *Broker) error {
	registrations := []struct {
		agent   models.AgentID
		handler Handler
	}{
		{models.AgentCompliance, h.handleCompliance},
		{models.AgentEmail, h.handleEmail},
		{models.AgentOrchestrator, h.handleDataRequest},
		{models.AgentFraudDetector, h.handleFinance},
	}
	for _, reg := range registrations {
		if err := b.Register(reg.agent, reg.handler); err != nil {
			return err
		}
	}
	return nil
}

// handleCompliance answers COMPLIANCE_CHECK messages. A payload of the
// wrong shape degrades to an empty question rather than a distinct
// error kind.
func (h *HandlerSet) handleCompliance(ctx context.Context, msg *models.AgentMessage) (models.ResponsePayload, error) {
	payload, _ := msg.Payload.(models.CompliancePayload)

	checker, err := h.registry.ComplianceChecker()
	if err != nil {
		return nil, err
	}
	answer, err := checker.CheckCompliance(ctx, payload.Question)
	if err != nil {
		return nil, err
	}

	return models.ComplianceResult{
		ComplianceResponse: answer,
		IsViolation:        ContainsViolationMarker(answer),
		Question:           payload.Question,
	}, nil
}

// handleEmail answers SEND_EMAIL messages.
func (h *HandlerSet) handleEmail(ctx context.Context, msg *models.AgentMessage) (models.ResponsePayload, error) {
	payload, _ := msg.Payload.(models.EmailPayload)

	sender, err := h.registry.EmailSender()
	if err != nil {
		return nil, err
	}
	result, err := sender.SendEmail(ctx, payload.Recipient, payload.Subject, payload.Body)
	if err != nil {
		return nil, err
	}

	return models.EmailResult{
		EmailSent: true,
		Recipient: payload.Recipient,
		Subject:   payload.Subject,
		Result:    result,
	}, nil
}

// handleDataRequest answers DATA_REQUEST messages addressed to the
// orchestrator agent.
func (h *HandlerSet) handleDataRequest(ctx context.Context, msg *models.AgentMessage) (models.ResponsePayload, error) {
	payload, _ := msg.Payload.(models.DataRequestPayload)

	provider, err := h.registry.DataProvider()
	if err != nil {
		return nil, err
	}
	data, err := provider.ProvideData(ctx, payload.Request)
	if err != nil {
		return nil, err
	}

	return models.DataResult{
		Data:    data,
		Request: payload.Request,
	}, nil
}

// handleFinance answers FINANCE_QUERY and FRAUD_SCAN messages addressed
// to the fraud detector agent.
func (h *HandlerSet) handleFinance(ctx context.Context, msg *models.AgentMessage) (models.ResponsePayload, error) {
	switch payload := msg.Payload.(type) {
	case models.FinanceQueryPayload:
		result, err := h.finance.Execute(ctx, "", payload.Query)
		if err != nil {
			return nil, err
		}
		return models.FinanceResult{
			Result: result,
			Query:  payload.Query,
		}, nil

	case models.FraudScanPayload:
		findings, err := h.finance.Scan(ctx, payload.SourcePath)
		if err != nil {
			return nil, err
		}
		return models.ScanResult{
			Findings: findings,
			Source:   payload.SourcePath,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported message type %s for agent %s", msg.Kind, msg.To)
	}
}

// Package scripted provides a deterministic specialist adapter. It
// stands in for the LLM-backed agents during local runs and tests: the
// answers come from configured scripts and keyword rules instead of a
// model, but the contract is identical.
package scripted

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dunderai/auditcore/services/specialists"
	"go.uber.org/zap"
)

// Adapter implements all four specialist interfaces with canned,
// keyword-driven answers.
type Adapter struct {
	logger *zap.Logger

	// FinancialEvidence and SocialEvidence are returned verbatim for
	// investigations of the matching focus. Empty string means "no
	// evidence found".
	FinancialEvidence string
	SocialEvidence    string

	// Rules maps lowercase keywords in a compliance question to a
	// ruling text. Keywords are checked in alphabetical order; the
	// first match wins.
	Rules map[string]string

	// DefaultRuling is returned when no rule matches.
	DefaultRuling string

	// ContextData is returned for any data request.
	ContextData string
}

// New creates a scripted adapter with conservative defaults.
func New(logger *zap.Logger) *Adapter {
	return &Adapter{
		logger: logger,
		Rules: map[string]string{
			"split":    "The policy does not permit splitting a purchase to stay below the approval limit.",
			"cash":     "Cash purchases above 50 are not allowed without a receipt.",
			"personal": "Personal expenses are not permitted on company accounts.",
		},
		DefaultRuling: "The policy has no explicit rule for this action; conservative reading applies.",
		ContextData:   "No additional records available for this request.",
	}
}

// Investigate implements specialists.Investigator.
func (a *Adapter) Investigate(ctx context.Context, focus specialists.InvestigationFocus) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.logger.Debug("scripted investigation", zap.String("focus", string(focus)))

	switch focus {
	case specialists.FocusFinancial:
		return a.FinancialEvidence, nil
	case specialists.FocusSocial:
		return a.SocialEvidence, nil
	default:
		return "", fmt.Errorf("unknown investigation focus: %s", focus)
	}
}

// CheckCompliance implements specialists.ComplianceChecker.
func (a *Adapter) CheckCompliance(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	lower := strings.ToLower(question)
	keywords := make([]string, 0, len(a.Rules))
	for keyword := range a.Rules {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return a.Rules[keyword], nil
		}
	}
	return a.DefaultRuling, nil
}

// ProvideData implements specialists.DataProvider.
func (a *Adapter) ProvideData(ctx context.Context, request string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	a.logger.Debug("scripted data request", zap.String("request", request))
	return a.ContextData, nil
}

// SendEmail implements specialists.EmailSender.
func (a *Adapter) SendEmail(ctx context.Context, recipient, subject, body string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if recipient == "" {
		return "", fmt.Errorf("recipient cannot be empty")
	}
	a.logger.Info("scripted email delivery",
		zap.String("recipient", recipient),
		zap.String("subject", subject))
	return fmt.Sprintf("email queued for %s: %s", recipient, subject), nil
}

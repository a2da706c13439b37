package specialists

import (
	"context"
)

// InvestigationFocus scopes what the investigator looks for in the
// email corpus.
type InvestigationFocus string

const (
	// FocusFinancial targets monetary anomalies: transfers, purchases,
	// amounts and the people attached to them.
	FocusFinancial InvestigationFocus = "FINANCIAL"

	// FocusSocial targets behavioral risk: plans, meetings, conflicts.
	FocusSocial InvestigationFocus = "SOCIAL"
)

// Investigator searches the email corpus for evidence matching a focus.
// The reasoning behind the answer (retrieval, prompting) is an external
// concern; the core only relies on the declared contract: a natural
// language report, empty-ish when nothing was found.
type Investigator interface {
	Investigate(ctx context.Context, focus InvestigationFocus) (string, error)
}

// ComplianceChecker answers whether an action is allowed by company
// policy, in the language of the question.
type ComplianceChecker interface {
	CheckCompliance(ctx context.Context, question string) (string, error)
}

// DataProvider answers free-form requests for additional context data
// (employee history, policy context, cross-references).
type DataProvider interface {
	ProvideData(ctx context.Context, request string) (string, error)
}

// EmailSender delivers a notification to an employee and reports the
// delivery outcome.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient, subject, body string) (string, error)
}

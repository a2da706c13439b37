package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow names the orchestration path taken for an audit request.
type Workflow string

const (
	WorkflowComplexFraudAudit   Workflow = "complex_fraud_audit"
	WorkflowSocialInvestigation Workflow = "social_investigation"
	WorkflowSimpleRuleCheck     Workflow = "simple_rule_check"
	WorkflowGeneralAudit        Workflow = "general_audit"
)

// Verdict is the archived outcome of one audit request.
type Verdict struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	RequestText string          `json:"request_text" db:"request_text"`
	Workflow    Workflow        `json:"workflow" db:"workflow"`
	Outcome     string          `json:"outcome" db:"outcome"`
	NoEvidence  bool            `json:"no_evidence" db:"no_evidence"`
	HighCount   int             `json:"high_count" db:"high_count"`
	MediumCount int             `json:"medium_count" db:"medium_count"`
	LowCount    int             `json:"low_count" db:"low_count"`
	Details     json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Verdict model.
func (Verdict) TableName() string {
	return "audit_verdicts"
}

// NewVerdict creates a verdict for the given request and workflow.
func NewVerdict(requestText string, workflow Workflow) *Verdict {
	return &Verdict{
		ID:          uuid.New(),
		RequestText: requestText,
		Workflow:    workflow,
		CreatedAt:   time.Now(),
	}
}

// WithOutcome sets the synthesized answer text.
func (v *Verdict) WithOutcome(outcome string, noEvidence bool) *Verdict {
	v.Outcome = outcome
	v.NoEvidence = noEvidence
	return v
}

// WithFindings records severity counts from detector findings.
func (v *Verdict) WithFindings(findings []Finding) *Verdict {
	for _, f := range findings {
		switch f.Severity {
		case SeverityHigh:
			v.HighCount++
		case SeverityMedium:
			v.MediumCount++
		case SeverityLow:
			v.LowCount++
		}
	}
	return v
}

// WithDetails attaches arbitrary evidence as JSON.
func (v *Verdict) WithDetails(details any) *Verdict {
	if data, err := json.Marshal(details); err == nil {
		v.Details = data
	}
	return v
}

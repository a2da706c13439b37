package models

// Severity is the priority tag attached to a finding. It is a triage
// signal, not a probability of fraud.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Pattern identifies one of the fixed fraud heuristics.
type Pattern string

const (
	PatternDuplicates          Pattern = "duplicates"
	PatternThresholdSplitting  Pattern = "threshold_splitting"
	PatternRoundNumbers        Pattern = "round_numbers"
	PatternOutliers            Pattern = "outliers"
	PatternWeekendTransactions Pattern = "weekend_transactions"
	PatternHighFrequency       Pattern = "high_frequency"
	PatternSuspiciousVendors   Pattern = "suspicious_vendors"
)

// MaxSampleRows bounds the number of affected rows attached to a finding.
const MaxSampleRows = 5

// Finding is one detected anomaly category. Findings are recomputed on
// every detector invocation and never persisted by the detector itself.
type Finding struct {
	Pattern     Pattern            `json:"pattern"`
	Severity    Severity           `json:"severity"`
	Count       int                `json:"count"`
	Description string             `json:"description"`
	Sample      []Row              `json:"sample,omitempty"`
	Aggregates  map[string]float64 `json:"aggregates,omitempty"`
}

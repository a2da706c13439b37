package models

import (
	"time"

	"github.com/google/uuid"
)

// AgentID identifies a logical agent addressed by the message broker.
// The set of recipients is closed: routing on anything else yields an
// ERROR response without invoking a handler.
type AgentID string

const (
	AgentFraudDetector AgentID = "FRAUD_DETECTOR"
	AgentCompliance    AgentID = "COMPLIANCE"
	AgentEmail         AgentID = "EMAIL"
	AgentOrchestrator  AgentID = "ORCHESTRATOR"
)

// Known reports whether the agent is one of the routable recipients.
func (a AgentID) Known() bool {
	switch a {
	case AgentFraudDetector, AgentCompliance, AgentEmail, AgentOrchestrator:
		return true
	}
	return false
}

// MessageKind enumerates the inter-agent message types.
type MessageKind string

const (
	KindComplianceCheck MessageKind = "COMPLIANCE_CHECK"
	KindSendEmail       MessageKind = "SEND_EMAIL"
	KindDataRequest     MessageKind = "DATA_REQUEST"
	KindFinanceQuery    MessageKind = "FINANCE_QUERY"
	KindFraudScan       MessageKind = "FRAUD_SCAN"
)

// Payload is the closed set of request payloads carried by agent messages.
// Each message kind has exactly one payload type; missing fields stay at
// their zero values rather than producing a distinct error kind.
type Payload interface {
	Kind() MessageKind
}

// CompliancePayload asks the compliance agent whether an action is allowed.
type CompliancePayload struct {
	Question string `json:"question"`
}

// Kind implements Payload.
func (CompliancePayload) Kind() MessageKind { return KindComplianceCheck }

// EmailPayload asks the email agent to deliver a notification.
type EmailPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Kind implements Payload.
func (EmailPayload) Kind() MessageKind { return KindSendEmail }

// DataRequestPayload asks the orchestrator for additional context data.
type DataRequestPayload struct {
	Request string `json:"data_request"`
}

// Kind implements Payload.
func (DataRequestPayload) Kind() MessageKind { return KindDataRequest }

// FinanceQueryPayload asks the finance agent to answer a data question,
// evaluated as a snippet against the cached dataset.
type FinanceQueryPayload struct {
	Query string `json:"query"`
}

// Kind implements Payload.
func (FinanceQueryPayload) Kind() MessageKind { return KindFinanceQuery }

// FraudScanPayload asks the finance agent to run the fixed fraud
// heuristics over the dataset at the given source path. An empty path
// means the configured default source.
type FraudScanPayload struct {
	SourcePath string `json:"source_path"`
}

// Kind implements Payload.
func (FraudScanPayload) Kind() MessageKind { return KindFraudScan }

// AgentMessage is one unit of inter-agent communication. Messages are
// created at send time and never mutated afterwards.
type AgentMessage struct {
	From      AgentID     `json:"from_agent"`
	To        AgentID     `json:"to_agent"`
	Kind      MessageKind `json:"message_type"`
	Payload   Payload     `json:"payload"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewAgentMessage creates a message with a generated request ID when none
// is supplied. Generated IDs are sender-prefixed and unique for the
// process lifetime; the ID is echoed back unchanged in the response.
func NewAgentMessage(from, to AgentID, payload Payload, requestID string) *AgentMessage {
	if requestID == "" {
		requestID = string(from) + "_" + uuid.NewString()
	}
	return &AgentMessage{
		From:      from,
		To:        to,
		Kind:      payload.Kind(),
		Payload:   payload,
		RequestID: requestID,
		Timestamp: time.Now(),
	}
}

// ResponseStatus is the outcome of handling a message.
type ResponseStatus string

const (
	StatusSuccess ResponseStatus = "SUCCESS"
	StatusError   ResponseStatus = "ERROR"
)

// ResponsePayload is the closed set of response payloads.
type ResponsePayload interface {
	isResponse()
}

// ComplianceResult is the response to a COMPLIANCE_CHECK message.
// IsViolation is a coarse marker-phrase heuristic over the answer text,
// not a reliable parse of the compliance decision.
type ComplianceResult struct {
	ComplianceResponse string `json:"compliance_response"`
	IsViolation        bool   `json:"is_violation"`
	Question           string `json:"question"`
}

func (ComplianceResult) isResponse() {}

// EmailResult is the response to a SEND_EMAIL message.
type EmailResult struct {
	EmailSent bool   `json:"email_sent"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Result    string `json:"result"`
}

func (EmailResult) isResponse() {}

// DataResult is the response to a DATA_REQUEST message.
type DataResult struct {
	Data    string `json:"data"`
	Request string `json:"request"`
}

func (DataResult) isResponse() {}

// FinanceResult is the response to a FINANCE_QUERY message.
type FinanceResult struct {
	Result string `json:"result"`
	Query  string `json:"query"`
}

func (FinanceResult) isResponse() {}

// ScanResult is the response to a FRAUD_SCAN message.
type ScanResult struct {
	Findings []Finding `json:"findings"`
	Source   string    `json:"source"`
}

func (ScanResult) isResponse() {}

// MessageResponse is created synchronously by the recipient's handler.
// The request ID always matches the originating message.
type MessageResponse struct {
	Status    ResponseStatus  `json:"status"`
	RequestID string          `json:"request_id"`
	Response  ResponsePayload `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// LogDirection tags message log entries.
type LogDirection string

const (
	DirectionSent     LogDirection = "SENT"
	DirectionReceived LogDirection = "RECEIVED"
)

// MessageLogEntry is one append-only audit record of broker traffic.
// SENT entries carry the message; RECEIVED entries additionally carry
// the handler's response.
type MessageLogEntry struct {
	Direction LogDirection     `json:"direction"`
	Message   *AgentMessage    `json:"message"`
	Response  *MessageResponse `json:"response,omitempty"`
	At        time.Time        `json:"at"`
}

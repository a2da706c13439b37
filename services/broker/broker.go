package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/dunderai/auditcore/models"
	"go.uber.org/zap"
)

// Handler builds the response payload for one recipient. Errors (and
// panics) become ERROR responses; they never escape to the sender.
type Handler func(ctx context.Context, msg *models.AgentMessage) (models.ResponsePayload, error)

// Broker routes typed messages between named agents. Routing and
// handling are in-process and synchronous from the sender's
// perspective: a send is conceptually a direct call dressed as a
// message for uniformity and auditability. Every exchange lands in an
// append-only, process-lifetime message log.
type Broker struct {
	mu       sync.RWMutex
	handlers map[models.AgentID]Handler

	logMu sync.Mutex
	log   []models.MessageLogEntry

	logger *zap.Logger
}

// New creates a broker with no registered handlers.
func New(logger *zap.Logger) *Broker {
	return &Broker{
		handlers: make(map[models.AgentID]Handler),
		logger:   logger,
	}
}

// Register installs the single handler for a recipient. Registering an
// unknown agent or a duplicate handler is a wiring bug and errors out.
func (b *Broker) Register(agent models.AgentID, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	if !agent.Known() {
		return fmt.Errorf("cannot register handler for unknown agent %q", agent)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[agent]; exists {
		return fmt.Errorf("handler already registered for agent %q", agent)
	}
	b.handlers[agent] = handler
	return nil
}

// Send routes a message to the addressed agent's handler and waits for
// its response. The caller's context is passed through to the handler;
// cancellation and deadlines are the caller's responsibility. Both the
// sent message and the received response are logged, including ERROR
// responses.
func (b *Broker) Send(ctx context.Context, from, to models.AgentID, payload models.Payload) *models.MessageResponse {
	msg := models.NewAgentMessage(from, to, payload, "")

	b.appendLog(models.MessageLogEntry{
		Direction: models.DirectionSent,
		Message:   msg,
		At:        msg.Timestamp,
	})
	b.logger.Info("message sent",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("type", string(msg.Kind)),
		zap.String("request_id", msg.RequestID))

	response := b.route(ctx, msg)

	b.appendLog(models.MessageLogEntry{
		Direction: models.DirectionReceived,
		Message:   msg,
		Response:  response,
		At:        msg.Timestamp,
	})
	if response.Status == models.StatusError {
		b.logger.Warn("message handled with error",
			zap.String("request_id", msg.RequestID),
			zap.String("error", response.Error))
	} else {
		b.logger.Info("message handled",
			zap.String("request_id", msg.RequestID))
	}

	return response
}

// route dispatches purely on the recipient field.
func (b *Broker) route(ctx context.Context, msg *models.AgentMessage) *models.MessageResponse {
	b.mu.RLock()
	handler, ok := b.handlers[msg.To]
	b.mu.RUnlock()

	if !msg.To.Known() || !ok {
		return &models.MessageResponse{
			Status:    models.StatusError,
			RequestID: msg.RequestID,
			Error:     fmt.Sprintf("unknown agent: %s", msg.To),
		}
	}

	if err := ctx.Err(); err != nil {
		return &models.MessageResponse{
			Status:    models.StatusError,
			RequestID: msg.RequestID,
			Error:     err.Error(),
		}
	}

	payload, err := b.invoke(ctx, handler, msg)
	if err != nil {
		return &models.MessageResponse{
			Status:    models.StatusError,
			RequestID: msg.RequestID,
			Error:     err.Error(),
		}
	}
	return &models.MessageResponse{
		Status:    models.StatusSuccess,
		RequestID: msg.RequestID,
		Response:  payload,
	}
}

// invoke runs a handler with panic containment.
func (b *Broker) invoke(ctx context.Context, handler Handler, msg *models.AgentMessage) (payload models.ResponsePayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked",
				zap.String("to", string(msg.To)),
				zap.Any("panic", r))
			payload = nil
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, msg)
}

// Log returns a copy of the message log in append order.
func (b *Broker) Log() []models.MessageLogEntry {
	b.logMu.Lock()
	defer b.logMu.Unlock()

	out := make([]models.MessageLogEntry, len(b.log))
	copy(out, b.log)
	return out
}

func (b *Broker) appendLog(entry models.MessageLogEntry) {
	b.logMu.Lock()
	defer b.logMu.Unlock()
	b.log = append(b.log, entry)
}

package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
)

// Publisher is the fire-and-forget side of the broker: each Track call
// returns once the tracking message is enqueued. Confirmation arrives later
// through the consumer as an independent message correlated by transaction
// hash.
type Publisher interface {
	TrackBanTransaction(ctx context.Context, data *BanData) error
	TrackAirdropTransaction(ctx context.Context, data *AirdropData) error
	TrackWhitelistTransaction(ctx context.Context, data *WhitelistData) error
	TrackBuyNftTransaction(ctx context.Context, data *BuyNftData) error
	TrackBuyWhitelistNftTransaction(ctx context.Context, data *BuyNftData) error
	TrackClaimNftTransaction(ctx context.Context, data *ClaimNftData) error
	TrackReferralClaimTransaction(ctx context.Context, data *ReferralClaimData) error
	TrackChangeRoleTransaction(ctx context.Context, data *ChangeRoleData) error
}

// Handlers holds the terminal-outcome callbacks for one action
type Handlers struct {
	OnSuccess func(ctx context.Context, data json.RawMessage) error
	OnFail    func(ctx context.Context, data json.RawMessage) error
}

// Dispatcher routes terminal messages to the handlers registered per action.
// Handler errors are logged and the message is acknowledged anyway: redelivery
// would re-run non-idempotent side effects (emails, socket pushes), so the
// original at-most-once semantics are kept.
type Dispatcher struct {
	handlers map[Action]Handlers
	validate *validator.Validate
	logger   *zap.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Action]Handlers),
		validate: validator.New(),
		logger:   logger,
	}
}

// Register installs the handlers for an action, replacing any previous ones
func (d *Dispatcher) Register(action Action, h Handlers) {
	d.handlers[action] = h
}

// Validate checks a message envelope before dispatch
func (d *Dispatcher) Validate(msg *Message) error {
	return d.validate.Struct(msg)
}

// Dispatch routes one message. Non-terminal (pending) messages are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) {
	if err := d.Validate(msg); err != nil {
		metrics.BrokerMessages.WithLabelValues(string(msg.Action), "invalid").Inc()
		d.logger.Warn("Dropping invalid broker message",
			zap.String("action", string(msg.Action)),
			zap.Error(err))
		return
	}

	if !msg.IsTerminal() {
		metrics.BrokerMessages.WithLabelValues(string(msg.Action), "pending").Inc()
		return
	}

	h, ok := d.handlers[msg.Action]
	if !ok {
		metrics.BrokerMessages.WithLabelValues(string(msg.Action), "unhandled").Inc()
		d.logger.Warn("No handler registered for action",
			zap.String("action", string(msg.Action)))
		return
	}

	var err error
	switch msg.Scenario {
	case ScenarioSuccess:
		if h.OnSuccess != nil {
			err = h.OnSuccess(ctx, msg.Data)
		}
	case ScenarioFail:
		if h.OnFail != nil {
			err = h.OnFail(ctx, msg.Data)
		}
	}

	if err != nil {
		metrics.BrokerMessages.WithLabelValues(string(msg.Action), "handler_error").Inc()
		d.logger.Error("Transaction handler failed",
			zap.String("action", string(msg.Action)),
			zap.String("scenario", string(msg.Scenario)),
			zap.Error(err))
		return
	}

	metrics.BrokerMessages.WithLabelValues(string(msg.Action), "handled").Inc()
}

// DecodeData unmarshals and validates an action payload
func DecodeData[T any](raw json.RawMessage, validate *validator.Validate) (*T, error) {
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := validate.Struct(&data); err != nil {
		return nil, fmt.Errorf("validate payload: %w", err)
	}
	return &data, nil
}

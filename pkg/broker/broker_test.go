package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func terminalMessage(action Action, scenario Scenario) *Message {
	return &Message{
		Action:   action,
		Scenario: scenario,
		Data:     json.RawMessage(`{"transactionHash":"0xabc"}`),
	}
}

func TestDispatch_RoutesByScenario(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var succeeded, failed int
	d.Register(ActionBuyNft, Handlers{
		OnSuccess: func(context.Context, json.RawMessage) error {
			succeeded++
			return nil
		},
		OnFail: func(context.Context, json.RawMessage) error {
			failed++
			return nil
		},
	})

	d.Dispatch(context.Background(), terminalMessage(ActionBuyNft, ScenarioSuccess))
	d.Dispatch(context.Background(), terminalMessage(ActionBuyNft, ScenarioFail))

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestDispatch_PendingIsSkipped(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var calls int
	d.Register(ActionBuyNft, Handlers{
		OnSuccess: func(context.Context, json.RawMessage) error {
			calls++
			return nil
		},
	})

	d.Dispatch(context.Background(), terminalMessage(ActionBuyNft, ScenarioPending))

	assert.Zero(t, calls)
}

func TestDispatch_InvalidMessageIsDropped(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var calls int
	d.Register(ActionBuyNft, Handlers{
		OnSuccess: func(context.Context, json.RawMessage) error {
			calls++
			return nil
		},
	})

	d.Dispatch(context.Background(), &Message{
		Scenario: ScenarioSuccess,
		Data:     json.RawMessage(`{}`),
	})
	d.Dispatch(context.Background(), &Message{
		Action:   ActionBuyNft,
		Scenario: "exploded",
		Data:     json.RawMessage(`{}`),
	})

	assert.Zero(t, calls)
}

func TestDispatch_UnhandledActionIsIgnored(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	// no handlers registered; must not panic
	d.Dispatch(context.Background(), terminalMessage(ActionAirdrop, ScenarioSuccess))
}

func TestDispatch_HandlerErrorDoesNotPropagate(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	d.Register(ActionBan, Handlers{
		OnSuccess: func(context.Context, json.RawMessage) error {
			return errors.New("membership store unavailable")
		},
	})

	// the message is still consumed: errors are logged, never retried
	d.Dispatch(context.Background(), terminalMessage(ActionBan, ScenarioSuccess))
}

func TestMemoryBroker_PublishesPendingMessages(t *testing.T) {
	b := NewMemoryBroker()

	err := b.TrackBuyNftTransaction(context.Background(), &BuyNftData{
		TransactionHash: "0xabc",
		UserToNotify:    uuid.New(),
		DaoID:           uuid.New(),
		DaoAddress:      "0xdao",
		Tier:            "gold",
		WalletAddress:   "0xwallet",
	})
	require.NoError(t, err)

	published := b.Published()
	require.Len(t, published, 1)
	assert.Equal(t, ActionBuyNft, published[0].Action)
	assert.Equal(t, ScenarioPending, published[0].Scenario)
	assert.False(t, published[0].IsTerminal())

	var data BuyNftData
	require.NoError(t, json.Unmarshal(published[0].Data, &data))
	assert.Equal(t, "0xabc", data.TransactionHash)
}

func TestDecodeData(t *testing.T) {
	validate := validator.New()

	t.Run("valid payload", func(t *testing.T) {
		payload, err := json.Marshal(&BuyNftData{
			TransactionHash: "0xabc",
			UserToNotify:    uuid.New(),
			DaoID:           uuid.New(),
			DaoAddress:      "0xdao",
			Tier:            "gold",
			WalletAddress:   "0xwallet",
		})
		require.NoError(t, err)

		data, err := DecodeData[BuyNftData](payload, validate)
		require.NoError(t, err)
		assert.Equal(t, "gold", data.Tier)
	})

	t.Run("missing required field", func(t *testing.T) {
		raw := json.RawMessage(`{"transactionHash":"0xabc"}`)
		_, err := DecodeData[BuyNftData](raw, validate)
		require.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeData[BuyNftData](json.RawMessage(`{`), validate)
		require.Error(t, err)
	})
}

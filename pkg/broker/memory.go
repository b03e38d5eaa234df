package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryBroker is an in-process Publisher used by tests: published messages
// are captured, and Deliver feeds a terminal message straight into a
// dispatcher the way the stream consumer would.
type MemoryBroker struct {
	mu        sync.Mutex
	published []Message
}

// NewMemoryBroker creates an empty in-memory broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{}
}

func (b *MemoryBroker) publish(action Action, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, Message{
		Action:   action,
		Scenario: ScenarioPending,
		Data:     payload,
	})
	return nil
}

// Published returns a copy of everything published so far
func (b *MemoryBroker) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.published))
	copy(out, b.published)
	return out
}

// Deliver dispatches a terminal message built from the given payload
func (b *MemoryBroker) Deliver(ctx context.Context, dispatcher *Dispatcher, action Action, scenario Scenario, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}
	dispatcher.Dispatch(ctx, &Message{Action: action, Scenario: scenario, Data: payload})
	return nil
}

func (b *MemoryBroker) TrackBanTransaction(_ context.Context, data *BanData) error {
	return b.publish(ActionBan, data)
}

func (b *MemoryBroker) TrackAirdropTransaction(_ context.Context, data *AirdropData) error {
	return b.publish(ActionAirdrop, data)
}

func (b *MemoryBroker) TrackWhitelistTransaction(_ context.Context, data *WhitelistData) error {
	return b.publish(ActionWhitelist, data)
}

func (b *MemoryBroker) TrackBuyNftTransaction(_ context.Context, data *BuyNftData) error {
	return b.publish(ActionBuyNft, data)
}

func (b *MemoryBroker) TrackBuyWhitelistNftTransaction(_ context.Context, data *BuyNftData) error {
	return b.publish(ActionBuyWhitelistNft, data)
}

func (b *MemoryBroker) TrackClaimNftTransaction(_ context.Context, data *ClaimNftData) error {
	return b.publish(ActionClaimNft, data)
}

func (b *MemoryBroker) TrackReferralClaimTransaction(_ context.Context, data *ReferralClaimData) error {
	return b.publish(ActionReferralClaim, data)
}

func (b *MemoryBroker) TrackChangeRoleTransaction(_ context.Context, data *ChangeRoleData) error {
	return b.publish(ActionChangeRole, data)
}

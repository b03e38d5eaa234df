// Package socket pushes realtime events to users. The reconciliation core
// does not hold websocket connections itself: events are published to a
// Redis channel the socket gateway subscribes to.
package socket

import (
	"context"

	"github.com/google/uuid"
)

// Event names pushed to clients after transaction outcomes
const (
	EventNftBought        = "nft:bought"
	EventNftBuyFailed     = "nft:buy_failed"
	EventNftClaimed       = "nft:claimed"
	EventNftClaimFailed   = "nft:claim_failed"
	EventNftAirdropped    = "nft:airdropped"
	EventAirdropFailed    = "nft:airdrop_failed"
	EventMemberBanned     = "member:banned"
	EventBanFailed        = "member:ban_failed"
	EventWhitelistUpdated = "whitelist:updated"
	EventRoleChanged      = "member:role_changed"
)

// Notifier pushes a private event to one user
type Notifier interface {
	SendPrivateMessage(ctx context.Context, userID uuid.UUID, event string, payload any) error
}

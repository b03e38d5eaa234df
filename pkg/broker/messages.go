// Package broker decouples on-chain transaction submission from
// confirmation handling. The reconciliation services publish a tracking
// message once a transaction is submitted and, on a separate inbound
// message carrying the terminal outcome, dispatch to the registered
// success/fail handlers. The two operations are connected only by the
// transaction hash.
package broker

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Action discriminates the per-action payload carried by a message
type Action string

const (
	ActionBan             Action = "ban"
	ActionAirdrop         Action = "airdrop"
	ActionWhitelist       Action = "whitelist"
	ActionBuyNft          Action = "buy_nft"
	ActionBuyWhitelistNft Action = "buy_whitelist_nft"
	ActionClaimNft        Action = "claim_nft"
	ActionReferralClaim   Action = "referral_claim"
	ActionChangeRole      Action = "change_role"
)

// Scenario is the delivery phase of a message. Tracking messages are
// published with ScenarioPending; the chain watcher appends a terminal
// message with the same payload once the transaction confirms or reverts.
type Scenario string

const (
	ScenarioPending Scenario = "pending"
	ScenarioSuccess Scenario = "success"
	ScenarioFail    Scenario = "fail"
)

// Message is the broker envelope
type Message struct {
	Action   Action          `json:"action" validate:"required"`
	Scenario Scenario        `json:"scenario" validate:"required,oneof=pending success fail"`
	Data     json.RawMessage `json:"data" validate:"required"`
}

// IsTerminal reports whether the message carries a final outcome
func (m *Message) IsTerminal() bool {
	return m.Scenario == ScenarioSuccess || m.Scenario == ScenarioFail
}

// BanData is the payload for member ban (NFT burn) transactions
type BanData struct {
	TransactionHash string    `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	UserID          uuid.UUID `json:"userId" validate:"required"`
	DaoAddress      string    `json:"daoAddress" validate:"required"`
	ShouldBurn      bool      `json:"shouldBurn"`
	TokenIDs        []string  `json:"tokenIds"`
}

// AirdropItem is one recipient of an admin-initiated batch mint
type AirdropItem struct {
	WalletAddress string   `json:"walletAddress" validate:"required"`
	Tiers         []string `json:"tiers" validate:"required,min=1"`
}

// AirdropData is the payload for batch mint transactions
type AirdropData struct {
	TransactionHash string        `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID     `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID     `json:"daoId" validate:"required"`
	DaoAddress      string        `json:"daoAddress" validate:"required"`
	Items           []AirdropItem `json:"items" validate:"required,min=1,dive"`
}

// WhitelistData is the payload for whitelist update transactions
type WhitelistData struct {
	TransactionHash string    `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	DaoAddress      string    `json:"daoAddress" validate:"required"`
	WalletAddresses []string  `json:"walletAddresses" validate:"required,min=1"`
	Tiers           []string  `json:"tiers"`
}

// BuyNftData is the payload for open-sale and whitelist-sale purchases
type BuyNftData struct {
	TransactionHash string    `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	DaoAddress      string    `json:"daoAddress" validate:"required"`
	Tier            string    `json:"tier" validate:"required"`
	WalletAddress   string    `json:"walletAddress" validate:"required"`
}

// ClaimNftData is the payload for whitelist/email-link claims
type ClaimNftData struct {
	TransactionHash string    `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	DaoAddress      string    `json:"daoAddress" validate:"required"`
	Tier            string    `json:"tier" validate:"required"`
	WalletAddress   string    `json:"walletAddress" validate:"required"`
	// ProvisionalDao marks that the DAO row was created by this claim and
	// must be removed again if the transaction fails
	ProvisionalDao bool `json:"provisionalDao"`
}

// ReferralClaimData is the payload for ambassador referral claims
type ReferralClaimData struct {
	TransactionHash    string    `json:"transactionHash" validate:"required"`
	UserToNotify       uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID              uuid.UUID `json:"daoId" validate:"required"`
	DaoAddress         string    `json:"daoAddress" validate:"required"`
	Tier               string    `json:"tier" validate:"required"`
	WalletAddress      string    `json:"walletAddress" validate:"required"`
	ReferralLinkID     uuid.UUID `json:"referralLinkId" validate:"required"`
	ReferralCampaignID uuid.UUID `json:"referralCampaignId" validate:"required"`
}

// ChangeRoleData is the payload for chain-confirmed role changes
type ChangeRoleData struct {
	TransactionHash string    `json:"transactionHash" validate:"required"`
	UserToNotify    uuid.UUID `json:"userToNotify" validate:"required"`
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	UserID          uuid.UUID `json:"userId" validate:"required"`
	Role            string    `json:"role" validate:"required"`
}

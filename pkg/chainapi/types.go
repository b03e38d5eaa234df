package chainapi

// TierAsset is the collection metadata for a single NFT tier
type TierAsset struct {
	TierID         string   `json:"id"`
	TierName       string   `json:"tierName"`
	Description    string   `json:"description"`
	Currency       string   `json:"currency"`
	TotalPrice     string   `json:"totalPrice"`
	MaxAmount      int      `json:"maxAmount"`
	TotalAmount    int      `json:"totalAmount"`
	IsTransferable bool     `json:"isTransferable"`
	Image          string   `json:"image"`
	AnimationURL   string   `json:"animationUrl"`
	Benefits       []string `json:"benefits"`
}

// OwnedNft is one token held by a wallet in a DAO collection
type OwnedNft struct {
	TokenID  string `json:"tokenId"`
	TierID   string `json:"tierId"`
	TierName string `json:"tierName"`
	Image    string `json:"image"`
	Name     string `json:"name"`
}

// BuyOpenSaleRequest submits an open-sale purchase transaction
type BuyOpenSaleRequest struct {
	DaoAddress    string `json:"daoAddress"`
	Tier          string `json:"tier"`
	WalletAddress string `json:"walletAddress"`
}

// ClaimRequest submits a whitelist claim transaction
type ClaimRequest struct {
	DaoAddress    string `json:"daoAddress"`
	Tier          string `json:"tier"`
	WalletAddress string `json:"walletAddress"`
}

// MintRequest submits a single mint transaction
type MintRequest struct {
	DaoAddress    string `json:"daoAddress"`
	Tier          string `json:"tier"`
	WalletAddress string `json:"walletAddress"`
}

// BatchMintItem is one recipient in a batch mint
type BatchMintItem struct {
	WalletAddress string   `json:"walletAddress"`
	Tiers         []string `json:"tiers"`
}

// BatchMintRequest submits an airdrop batch mint transaction
type BatchMintRequest struct {
	DaoAddress string          `json:"daoAddress"`
	Items      []BatchMintItem `json:"items"`
}

// WhitelistUpdateRequest submits an on-chain whitelist root update
type WhitelistUpdateRequest struct {
	DaoAddress      string   `json:"daoAddress"`
	WalletAddresses []string `json:"walletAddresses"`
	Tiers           []string `json:"tiers"`
}

// ChangeRoleRequest submits an on-chain member role update
type ChangeRoleRequest struct {
	DaoAddress    string `json:"daoAddress"`
	WalletAddress string `json:"walletAddress"`
	Role          string `json:"role"`
}

// BurnRequest submits a token burn transaction for a banned member
type BurnRequest struct {
	DaoAddress    string   `json:"daoAddress"`
	WalletAddress string   `json:"walletAddress"`
	TokenIDs      []string `json:"tokenIds"`
}

type transactionResponse struct {
	TransactionHash string `json:"transactionHash"`
}

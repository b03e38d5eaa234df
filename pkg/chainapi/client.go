// Package chainapi is the HTTP client for the contract gateway, the service
// that holds signing keys and submits collection transactions on behalf of
// the platform. Every submitting call returns the transaction hash only;
// outcomes arrive later through the broker.
package chainapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/superdao/reconciler/pkg/config"
)

const ipfsScheme = "ipfs://"

// Client talks to the contract gateway over HTTP
type Client struct {
	baseURL     string
	ipfsGateway string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a contract gateway client from config
func NewClient(cfg *config.ChainAPIConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		ipfsGateway: strings.TrimRight(cfg.IPFSGatewayURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:      logger,
	}
}

// GetSingleAsset fetches the tier metadata for one collection tier.
// ipfs:// artwork URLs are rewritten to the configured HTTP gateway.
func (c *Client) GetSingleAsset(ctx context.Context, daoAddress, tier string) (*TierAsset, error) {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/tiers/%s",
		c.baseURL, url.PathEscape(daoAddress), url.PathEscape(tier))

	var asset TierAsset
	if err := c.getJSON(ctx, endpoint, &asset); err != nil {
		return nil, err
	}
	asset.Image = c.rewriteIPFS(asset.Image)
	asset.AnimationURL = c.rewriteIPFS(asset.AnimationURL)
	return &asset, nil
}

// GetNftsByUser fetches the tokens a wallet holds in a DAO collection
func (c *Client) GetNftsByUser(ctx context.Context, daoAddress, walletAddress string) ([]OwnedNft, error) {
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/owners/%s",
		c.baseURL, url.PathEscape(daoAddress), url.PathEscape(walletAddress))

	var nfts []OwnedNft
	if err := c.getJSON(ctx, endpoint, &nfts); err != nil {
		return nil, err
	}
	for i := range nfts {
		nfts[i].Image = c.rewriteIPFS(nfts[i].Image)
	}
	return nfts, nil
}

// BuyOpenSale submits an open-sale purchase and returns the tx hash
func (c *Client) BuyOpenSale(ctx context.Context, req *BuyOpenSaleRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/buy-open-sale", req)
}

// Claim submits a whitelist claim and returns the tx hash
func (c *Client) Claim(ctx context.Context, req *ClaimRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/claim", req)
}

// Mint submits a single mint and returns the tx hash
func (c *Client) Mint(ctx context.Context, req *MintRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/mint", req)
}

// BatchMintV2 submits an airdrop batch mint and returns the tx hash
func (c *Client) BatchMintV2(ctx context.Context, req *BatchMintRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/batch-mint-v2", req)
}

// UpdateWhitelist submits an on-chain whitelist update and returns the tx hash
func (c *Client) UpdateWhitelist(ctx context.Context, req *WhitelistUpdateRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/whitelist", req)
}

// ChangeRole submits a member role update and returns the tx hash
func (c *Client) ChangeRole(ctx context.Context, req *ChangeRoleRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/change-role", req)
}

// Burn submits a token burn and returns the tx hash
func (c *Client) Burn(ctx context.Context, req *BurnRequest) (string, error) {
	return c.submit(ctx, "/api/v1/transactions/burn", req)
}

func (c *Client) submit(ctx context.Context, path string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contract gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", readError(resp)
	}

	var tx transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if tx.TransactionHash == "" {
		return "", fmt.Errorf("gateway returned no transaction hash for %s", path)
	}

	c.logger.Debug("transaction submitted",
		zap.String("path", path),
		zap.String("hash", tx.TransactionHash),
		zap.Duration("duration", time.Since(start)))
	return tx.TransactionHash, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("contract gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// rewriteIPFS turns ipfs://<cid>/<path> into a fetchable gateway URL.
// Other URLs pass through untouched.
func (c *Client) rewriteIPFS(raw string) string {
	if !strings.HasPrefix(raw, ipfsScheme) {
		return raw
	}
	return c.ipfsGateway + "/ipfs/" + strings.TrimPrefix(raw, ipfsScheme)
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("contract gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

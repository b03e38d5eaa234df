// Package nft orchestrates the collection flows: purchases, claims,
// airdrops, bans, and whitelist updates. Every mutating flow has the same
// shape: submit the transaction through the contract gateway, record a
// pending log row, publish a tracking message, and return the hash. The
// actual state changes happen later in the outcome handlers.
package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/cache"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/dao"
	"github.com/superdao/reconciler/pkg/membership"
	membershipsvc "github.com/superdao/reconciler/pkg/membership/service"
	txlogsvc "github.com/superdao/reconciler/pkg/txlog/service"
	"github.com/superdao/reconciler/pkg/user"
	"github.com/superdao/reconciler/pkg/whitelist"
)

// ChainAPI is the narrow contract-gateway interface the flows need.
// Defined here to keep the service decoupled from the HTTP client.
type ChainAPI interface {
	GetSingleAsset(ctx context.Context, daoAddress, tier string) (*chainapi.TierAsset, error)
	GetNftsByUser(ctx context.Context, daoAddress, walletAddress string) ([]chainapi.OwnedNft, error)
	BuyOpenSale(ctx context.Context, req *chainapi.BuyOpenSaleRequest) (string, error)
	Claim(ctx context.Context, req *chainapi.ClaimRequest) (string, error)
	Mint(ctx context.Context, req *chainapi.MintRequest) (string, error)
	BatchMintV2(ctx context.Context, req *chainapi.BatchMintRequest) (string, error)
	UpdateWhitelist(ctx context.Context, req *chainapi.WhitelistUpdateRequest) (string, error)
	ChangeRole(ctx context.Context, req *chainapi.ChangeRoleRequest) (string, error)
	Burn(ctx context.Context, req *chainapi.BurnRequest) (string, error)
}

// Service defines the collection flows. Submitting methods return the
// transaction hash; the outcome arrives later through the broker.
type Service interface {
	BuyNftOpenSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error)
	BuyNftWhitelistSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error)
	// ClaimNft submits a whitelist claim. When no DAO row exists for the
	// contract address yet, a provisional row is created first and deleted
	// again if the submission fails.
	ClaimNft(ctx context.Context, executorID uuid.UUID, daoAddress, tier, walletAddress string) (string, error)
	AirdropNft(ctx context.Context, executorID, daoID uuid.UUID, items []broker.AirdropItem) (string, error)
	UpdateWhitelist(ctx context.Context, executorID, daoID uuid.UUID, walletAddresses, tiers []string) (string, error)
	BanMember(ctx context.Context, executorID, daoID, userID uuid.UUID, shouldBurn bool) (string, error)
	// ChangeRole submits an on-chain role update for a member. The membership
	// row is updated once the transaction confirms.
	ChangeRole(ctx context.Context, executorID, daoID, userID uuid.UUID, role membership.Role) (string, error)
	// GetNftsByUser serves the wallet's holdings from cache, reloading from
	// the gateway on miss or when forceReload is set.
	GetNftsByUser(ctx context.Context, daoID uuid.UUID, walletAddress string, forceReload bool) ([]chainapi.OwnedNft, error)
	// GetSingleAsset serves tier metadata from cache, reloading on miss
	GetSingleAsset(ctx context.Context, daoID uuid.UUID, tier string) (*chainapi.TierAsset, error)
}

type nftService struct {
	chain       ChainAPI
	daos        dao.Store
	users       user.Store
	whitelist   whitelist.Store
	memberships membershipsvc.Service
	txlog       txlogsvc.Service
	publisher   broker.Publisher
	cache       cache.Cache
	logger      *zap.Logger
}

// NewService creates the collection flow orchestrator
func NewService(
	chain ChainAPI,
	daos dao.Store,
	users user.Store,
	wl whitelist.Store,
	memberships membershipsvc.Service,
	txlog txlogsvc.Service,
	publisher broker.Publisher,
	c cache.Cache,
	logger *zap.Logger,
) Service {
	return &nftService{
		chain:       chain,
		daos:        daos,
		users:       users,
		whitelist:   wl,
		memberships: memberships,
		txlog:       txlog,
		publisher:   publisher,
		cache:       c,
		logger:      logger,
	}
}

func (s *nftService) BuyNftOpenSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error) {
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}

	hash, err := s.chain.BuyOpenSale(ctx, &chainapi.BuyOpenSaleRequest{
		DaoAddress:    d.ContractAddress,
		Tier:          tier,
		WalletAddress: walletAddress,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit purchase")
	}

	data := &broker.BuyNftData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		DaoAddress:      d.ContractAddress,
		Tier:            tier,
		WalletAddress:   walletAddress,
	}
	if err := s.txlog.LogBuyNftTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackBuyNftTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track purchase: %w", err))
	}
	return hash, nil
}

func (s *nftService) BuyNftWhitelistSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error) {
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}
	if err := s.checkWhitelisted(ctx, daoID, walletAddress, tier); err != nil {
		return "", err
	}

	hash, err := s.chain.Mint(ctx, &chainapi.MintRequest{
		DaoAddress:    d.ContractAddress,
		Tier:          tier,
		WalletAddress: walletAddress,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit whitelist purchase")
	}

	data := &broker.BuyNftData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		DaoAddress:      d.ContractAddress,
		Tier:            tier,
		WalletAddress:   walletAddress,
	}
	if err := s.txlog.LogBuyWhitelistNftTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackBuyWhitelistNftTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track whitelist purchase: %w", err))
	}
	return hash, nil
}

func (s *nftService) ClaimNft(ctx context.Context, executorID uuid.UUID, daoAddress, tier, walletAddress string) (string, error) {
	// compensations undo provisional rows in reverse creation order when the
	// submission fails
	var compensations []func()
	provisional := false

	d, err := s.daos.GetByAddress(ctx, daoAddress)
	if errors.Is(err, dao.ErrDaoNotFound) {
		d = &dao.Dao{
			Slug:            "claimed-" + daoAddress,
			Name:            daoAddress,
			ContractAddress: daoAddress,
		}
		if err := s.daos.Create(ctx, d); err != nil {
			return "", apperrors.GeneralError(fmt.Errorf("failed to create provisional dao: %w", err))
		}
		provisional = true
		daoID := d.ID
		compensations = append(compensations, func() {
			if err := s.daos.Delete(context.WithoutCancel(ctx), daoID); err != nil {
				s.logger.Error("failed to delete provisional dao",
					zap.String("daoId", daoID.String()), zap.Error(err))
			}
		})
	} else if err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to load dao: %w", err))
	}

	if err := s.checkWhitelisted(ctx, d.ID, walletAddress, tier); err != nil {
		s.compensate(compensations)
		return "", err
	}

	// the chain is the source of truth for whether the wallet already took
	// its token: the whitelist entry alone cannot tell a pending claim from
	// a fresh one
	owned, err := s.chain.GetNftsByUser(ctx, daoAddress, walletAddress)
	if err != nil {
		s.compensate(compensations)
		return "", apperrors.DependencyError(err, "failed to load wallet holdings")
	}
	for _, n := range owned {
		if n.TierID == tier {
			s.compensate(compensations)
			return "", apperrors.ConflictError(nil, "tier already claimed by this wallet")
		}
	}

	hash, err := s.chain.Claim(ctx, &chainapi.ClaimRequest{
		DaoAddress:    daoAddress,
		Tier:          tier,
		WalletAddress: walletAddress,
	})
	if err != nil {
		s.compensate(compensations)
		return "", apperrors.DependencyError(err, "failed to submit claim")
	}

	data := &broker.ClaimNftData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           d.ID,
		DaoAddress:      daoAddress,
		Tier:            tier,
		WalletAddress:   walletAddress,
		ProvisionalDao:  provisional,
	}
	if err := s.txlog.LogClaimNftTransaction(ctx, executorID, data); err != nil {
		s.compensate(compensations)
		return "", err
	}
	if err := s.publisher.TrackClaimNftTransaction(ctx, data); err != nil {
		s.compensate(compensations)
		return "", apperrors.GeneralError(fmt.Errorf("failed to track claim: %w", err))
	}
	return hash, nil
}

func (s *nftService) AirdropNft(ctx context.Context, executorID, daoID uuid.UUID, items []broker.AirdropItem) (string, error) {
	if err := s.memberships.CheckAccess(ctx, daoID, executorID, adminRoles()...); err != nil {
		return "", err
	}
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}

	mintItems := make([]chainapi.BatchMintItem, 0, len(items))
	for _, item := range items {
		mintItems = append(mintItems, chainapi.BatchMintItem{
			WalletAddress: item.WalletAddress,
			Tiers:         item.Tiers,
		})
	}
	hash, err := s.chain.BatchMintV2(ctx, &chainapi.BatchMintRequest{
		DaoAddress: d.ContractAddress,
		Items:      mintItems,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit airdrop")
	}

	data := &broker.AirdropData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		DaoAddress:      d.ContractAddress,
		Items:           items,
	}
	if err := s.txlog.LogAirdropTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackAirdropTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track airdrop: %w", err))
	}
	return hash, nil
}

func (s *nftService) UpdateWhitelist(ctx context.Context, executorID, daoID uuid.UUID, walletAddresses, tiers []string) (string, error) {
	if err := s.memberships.CheckAccess(ctx, daoID, executorID, adminRoles()...); err != nil {
		return "", err
	}
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}

	hash, err := s.chain.UpdateWhitelist(ctx, &chainapi.WhitelistUpdateRequest{
		DaoAddress:      d.ContractAddress,
		WalletAddresses: walletAddresses,
		Tiers:           tiers,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit whitelist update")
	}

	for _, addr := range walletAddresses {
		if _, err := s.whitelist.GetByWallet(ctx, daoID, addr); err == nil {
			continue
		}
		entry := &whitelist.Entry{DaoID: daoID, WalletAddress: addr, Tiers: tiers}
		if err := s.whitelist.Create(ctx, entry); err != nil {
			return "", apperrors.GeneralError(fmt.Errorf("failed to store whitelist entry: %w", err))
		}
	}

	data := &broker.WhitelistData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		DaoAddress:      d.ContractAddress,
		WalletAddresses: walletAddresses,
		Tiers:           tiers,
	}
	if err := s.txlog.LogWhitelistTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackWhitelistTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track whitelist update: %w", err))
	}
	return hash, nil
}

func (s *nftService) BanMember(ctx context.Context, executorID, daoID, userID uuid.UUID, shouldBurn bool) (string, error) {
	if err := s.memberships.CheckAccess(ctx, daoID, executorID, adminRoles()...); err != nil {
		return "", err
	}
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", apperrors.NotFoundError(err, "user not found")
		}
		return "", apperrors.GeneralError(fmt.Errorf("failed to load user: %w", err))
	}

	var tokenIDs []string
	if shouldBurn {
		nfts, err := s.chain.GetNftsByUser(ctx, d.ContractAddress, u.WalletAddress)
		if err != nil {
			return "", apperrors.DependencyError(err, "failed to load member tokens")
		}
		for _, n := range nfts {
			tokenIDs = append(tokenIDs, n.TokenID)
		}
	}

	hash, err := s.chain.Burn(ctx, &chainapi.BurnRequest{
		DaoAddress:    d.ContractAddress,
		WalletAddress: u.WalletAddress,
		TokenIDs:      tokenIDs,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit ban")
	}

	data := &broker.BanData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		UserID:          userID,
		DaoAddress:      d.ContractAddress,
		ShouldBurn:      shouldBurn,
		TokenIDs:        tokenIDs,
	}
	if err := s.txlog.LogBanTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackBanTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track ban: %w", err))
	}
	return hash, nil
}

func (s *nftService) ChangeRole(ctx context.Context, executorID, daoID, userID uuid.UUID, role membership.Role) (string, error) {
	if role != membership.RoleAdmin && role != membership.RoleMember {
		return "", apperrors.ValidationError(nil, "role must be ADMIN or MEMBER")
	}
	if err := s.memberships.CheckAccess(ctx, daoID, executorID, adminRoles()...); err != nil {
		return "", err
	}
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", apperrors.NotFoundError(err, "user not found")
		}
		return "", apperrors.GeneralError(fmt.Errorf("failed to load user: %w", err))
	}

	hash, err := s.chain.ChangeRole(ctx, &chainapi.ChangeRoleRequest{
		DaoAddress:    d.ContractAddress,
		WalletAddress: u.WalletAddress,
		Role:          string(role),
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit role change")
	}

	data := &broker.ChangeRoleData{
		TransactionHash: hash,
		UserToNotify:    executorID,
		DaoID:           daoID,
		UserID:          userID,
		Role:            string(role),
	}
	if err := s.txlog.LogChangeRoleTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackChangeRoleTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track role change: %w", err))
	}
	return hash, nil
}

func (s *nftService) GetNftsByUser(ctx context.Context, daoID uuid.UUID, walletAddress string, forceReload bool) ([]chainapi.OwnedNft, error) {
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return nil, err
	}

	raw, err := s.cache.HGetAndUpdate(ctx,
		cache.NftsKey(),
		cache.NftsField(walletAddress, d.ContractAddress),
		func(ctx context.Context) (string, error) {
			nfts, err := s.chain.GetNftsByUser(ctx, d.ContractAddress, walletAddress)
			if err != nil {
				return "", err
			}
			encoded, err := json.Marshal(nfts)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
		forceReload,
	)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load wallet holdings")
	}

	var nfts []chainapi.OwnedNft
	if err := json.Unmarshal([]byte(raw), &nfts); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to decode cached holdings: %w", err))
	}
	return nfts, nil
}

func (s *nftService) GetSingleAsset(ctx context.Context, daoID uuid.UUID, tier string) (*chainapi.TierAsset, error) {
	d, err := s.loadDao(ctx, daoID)
	if err != nil {
		return nil, err
	}

	raw, err := s.cache.HGetAndUpdate(ctx,
		cache.CollectionTiersKey(),
		cache.CollectionTierField(d.ContractAddress, tier),
		func(ctx context.Context) (string, error) {
			asset, err := s.chain.GetSingleAsset(ctx, d.ContractAddress, tier)
			if err != nil {
				return "", err
			}
			encoded, err := json.Marshal(asset)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
		false,
	)
	if err != nil {
		return nil, apperrors.DependencyError(err, "failed to load tier metadata")
	}

	asset := new(chainapi.TierAsset)
	if err := json.Unmarshal([]byte(raw), asset); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to decode cached tier: %w", err))
	}
	return asset, nil
}

func (s *nftService) loadDao(ctx context.Context, daoID uuid.UUID) (*dao.Dao, error) {
	d, err := s.daos.GetByID(ctx, daoID)
	if err != nil {
		if errors.Is(err, dao.ErrDaoNotFound) {
			return nil, apperrors.NotFoundError(err, "dao not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to load dao: %w", err))
	}
	if d.ContractAddress == "" {
		return nil, apperrors.ValidationError(nil, "dao has no collection contract")
	}
	return d, nil
}

func (s *nftService) checkWhitelisted(ctx context.Context, daoID uuid.UUID, walletAddress, tier string) error {
	entry, err := s.whitelist.GetByWallet(ctx, daoID, walletAddress)
	if err != nil {
		if errors.Is(err, whitelist.ErrEntryNotFound) {
			return apperrors.ForbiddenError(err, "wallet is not whitelisted")
		}
		return apperrors.GeneralError(fmt.Errorf("failed to check whitelist: %w", err))
	}
	if !entry.Allows(tier) {
		return apperrors.ForbiddenError(nil, "wallet is not whitelisted for this tier")
	}
	return nil
}

// compensate runs the recorded undo actions newest first
func (s *nftService) compensate(compensations []func()) {
	for i := len(compensations) - 1; i >= 0; i-- {
		compensations[i]()
	}
}

func adminRoles() []membership.Role {
	return []membership.Role{membership.RoleSudo, membership.RoleCreator, membership.RoleAdmin}
}

package referral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/cache"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/dao"
	"github.com/superdao/reconciler/pkg/membership"
	membershipsvc "github.com/superdao/reconciler/pkg/membership/service"
	txlogsvc "github.com/superdao/reconciler/pkg/txlog/service"
	"github.com/superdao/reconciler/pkg/user"
)

// ChainAPI is the narrow contract-gateway surface the referral flow needs
type ChainAPI interface {
	Claim(ctx context.Context, req *chainapi.ClaimRequest) (string, error)
}

// Service defines the referral business logic
type Service interface {
	CreateCampaign(ctx context.Context, executorID uuid.UUID, c *Campaign) error
	// CreateLink mints a link for the referrer with the campaign's use budget
	CreateLink(ctx context.Context, campaignID, referrerID uuid.UUID) (*Link, error)
	// ClaimReferral submits the claim transaction for a link holder. The
	// link's budget is only consumed when the transaction confirms.
	ClaimReferral(ctx context.Context, executorID, linkID uuid.UUID, walletAddress string) (string, error)
	GetLink(ctx context.Context, id uuid.UUID) (*Link, error)
}

type referralService struct {
	store       Store
	daos        dao.Store
	chain       ChainAPI
	memberships membershipsvc.Service
	txlog       txlogsvc.Service
	publisher   broker.Publisher
	logger      *zap.Logger
}

// NewService creates the referral service
func NewService(
	store Store,
	daos dao.Store,
	chain ChainAPI,
	memberships membershipsvc.Service,
	txlog txlogsvc.Service,
	publisher broker.Publisher,
	logger *zap.Logger,
) Service {
	return &referralService{
		store:       store,
		daos:        daos,
		chain:       chain,
		memberships: memberships,
		txlog:       txlog,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *referralService) CreateCampaign(ctx context.Context, executorID uuid.UUID, c *Campaign) error {
	if err := s.memberships.CheckAccess(ctx, c.DaoID, executorID,
		membership.RoleSudo, membership.RoleCreator, membership.RoleAdmin); err != nil {
		return err
	}
	if err := s.store.CreateCampaign(ctx, c); err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to create campaign: %w", err))
	}
	return nil
}

func (s *referralService) CreateLink(ctx context.Context, campaignID, referrerID uuid.UUID) (*Link, error) {
	c, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return nil, apperrors.NotFoundError(err, "campaign not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to load campaign: %w", err))
	}

	l := &Link{
		CampaignID: campaignID,
		ReferrerID: referrerID,
		Limit:      c.LinkLimit,
		LimitLeft:  c.LinkLimit,
	}
	if err := s.store.CreateLink(ctx, l); err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to create link: %w", err))
	}
	return l, nil
}

func (s *referralService) ClaimReferral(ctx context.Context, executorID, linkID uuid.UUID, walletAddress string) (string, error) {
	l, err := s.store.GetLink(ctx, linkID)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return "", apperrors.NotFoundError(err, "referral link not found")
		}
		return "", apperrors.GeneralError(fmt.Errorf("failed to load link: %w", err))
	}
	if l.LimitLeft <= 0 {
		return "", apperrors.ForbiddenError(ErrLinkExhausted, "referral link has no uses left")
	}

	c, err := s.store.GetCampaign(ctx, l.CampaignID)
	if err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to load campaign: %w", err))
	}
	d, err := s.daos.GetByID(ctx, c.DaoID)
	if err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to load dao: %w", err))
	}

	hash, err := s.chain.Claim(ctx, &chainapi.ClaimRequest{
		DaoAddress:    d.ContractAddress,
		Tier:          c.Tier,
		WalletAddress: walletAddress,
	})
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to submit referral claim")
	}

	data := &broker.ReferralClaimData{
		TransactionHash:    hash,
		UserToNotify:       executorID,
		DaoID:              c.DaoID,
		DaoAddress:         d.ContractAddress,
		Tier:               c.Tier,
		WalletAddress:      walletAddress,
		ReferralLinkID:     linkID,
		ReferralCampaignID: c.ID,
	}
	if err := s.txlog.LogReferralClaimTransaction(ctx, executorID, data); err != nil {
		return "", err
	}
	if err := s.publisher.TrackReferralClaimTransaction(ctx, data); err != nil {
		return "", apperrors.GeneralError(fmt.Errorf("failed to track referral claim: %w", err))
	}
	return hash, nil
}

func (s *referralService) GetLink(ctx context.Context, id uuid.UUID) (*Link, error) {
	l, err := s.store.GetLink(ctx, id)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			return nil, apperrors.NotFoundError(err, "referral link not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to load link: %w", err))
	}
	return l, nil
}

// OutcomeHandlers applies confirmed referral claims
type OutcomeHandlers struct {
	store       Store
	users       user.Store
	memberships membershipsvc.Service
	txlog       txlogsvc.Service
	cache       cache.Cache
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewOutcomeHandlers creates the referral outcome handler set
func NewOutcomeHandlers(
	store Store,
	users user.Store,
	memberships membershipsvc.Service,
	txlog txlogsvc.Service,
	c cache.Cache,
	logger *zap.Logger,
) *OutcomeHandlers {
	return &OutcomeHandlers{
		store:       store,
		users:       users,
		memberships: memberships,
		txlog:       txlog,
		cache:       c,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Register installs the referral handlers on the dispatcher
func (h *OutcomeHandlers) Register(d *broker.Dispatcher) {
	d.Register(broker.ActionReferralClaim, broker.Handlers{
		OnSuccess: h.onClaimSuccess,
		OnFail:    h.onClaimFail,
	})
}

func (h *OutcomeHandlers) onClaimSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ReferralClaimData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioSuccess); err != nil {
		return err
	}

	u, err := h.ensureUser(ctx, data.WalletAddress)
	if err != nil {
		return err
	}

	err = h.store.AddMember(ctx, &Member{
		CampaignID:    data.ReferralCampaignID,
		LinkID:        data.ReferralLinkID,
		UserID:        u.ID,
		WalletAddress: data.WalletAddress,
	})
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		h.logger.Warn("referral claim confirmed twice for the same user",
			zap.String("hash", data.TransactionHash))
	case errors.Is(err, ErrLinkExhausted):
		// the chain confirmed the claim, so the membership still stands; the
		// exhausted link just stops handing out further uses
		h.logger.Warn("referral link exhausted after confirmed claim",
			zap.String("linkId", data.ReferralLinkID.String()))
	case err != nil:
		return err
	}

	if err := h.memberships.AddMember(ctx, data.DaoID, u.ID, membership.RoleMember, []string{data.Tier}); err != nil {
		return err
	}

	h.invalidateHoldings(ctx, data.WalletAddress, data.DaoAddress, data.Tier)

	campaign, err := h.store.GetCampaign(ctx, data.ReferralCampaignID)
	if err != nil {
		return err
	}
	if campaign.IsRecursive {
		// the new member gets a link of their own
		if err := h.store.CreateLink(ctx, &Link{
			CampaignID: campaign.ID,
			ReferrerID: u.ID,
			Limit:      campaign.LinkLimit,
			LimitLeft:  campaign.LinkLimit,
		}); err != nil {
			h.logger.Error("failed to mint recursive referral link",
				zap.String("campaignId", campaign.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (h *OutcomeHandlers) onClaimFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ReferralClaimData](raw, h.validate)
	if err != nil {
		return err
	}
	return h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail)
}

func (h *OutcomeHandlers) ensureUser(ctx context.Context, walletAddress string) (*user.User, error) {
	u, err := h.users.GetByWalletAddress(ctx, walletAddress)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to load user by wallet: %w", err)
	}
	u = &user.User{ID: uuid.New(), WalletAddress: walletAddress}
	if err := h.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user for wallet: %w", err)
	}
	return u, nil
}

func (h *OutcomeHandlers) invalidateHoldings(ctx context.Context, walletAddress, daoAddress, tier string) {
	if err := h.cache.HDel(ctx, cache.NftsKey(), cache.NftsField(walletAddress, daoAddress)); err != nil {
		h.logger.Warn("failed to invalidate wallet holdings cache", zap.Error(err))
	}
	metrics.CacheInvalidations.WithLabelValues("nfts").Inc()

	if err := h.cache.HDel(ctx, cache.CollectionTiersKey(), cache.CollectionTierField(daoAddress, tier)); err != nil {
		h.logger.Warn("failed to invalidate tier cache", zap.Error(err))
	}
	metrics.CacheInvalidations.WithLabelValues("collection_tier").Inc()

	if err := h.cache.Del(ctx, cache.CollectionKey(daoAddress)); err != nil {
		h.logger.Warn("failed to invalidate collection cache", zap.Error(err))
	}
	metrics.CacheInvalidations.WithLabelValues("collection").Inc()
}

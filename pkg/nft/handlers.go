package nft

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
	"github.com/superdao/reconciler/pkg/dao"
	"github.com/superdao/reconciler/pkg/email"
	"github.com/superdao/reconciler/pkg/membership"
	membershipsvc "github.com/superdao/reconciler/pkg/membership/service"
	"github.com/superdao/reconciler/pkg/socket"
	txlogsvc "github.com/superdao/reconciler/pkg/txlog/service"
	"github.com/superdao/reconciler/pkg/user"
)

// OutcomeHandlers applies confirmed transaction outcomes to platform state:
// finalize the log row, reconcile the membership, invalidate the caches, and
// notify the initiating user.
type OutcomeHandlers struct {
	users       user.Store
	daos        dao.Store
	memberships membershipsvc.Service
	txlog       txlogsvc.Service
	cache       cache.Cache
	notifier    socket.Notifier
	mailer      email.Sender
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewOutcomeHandlers creates the outcome handler set
func NewOutcomeHandlers(
	users user.Store,
	daos dao.Store,
	memberships membershipsvc.Service,
	txlog txlogsvc.Service,
	c cache.Cache,
	notifier socket.Notifier,
	mailer email.Sender,
	logger *zap.Logger,
) *OutcomeHandlers {
	return &OutcomeHandlers{
		users:       users,
		daos:        daos,
		memberships: memberships,
		txlog:       txlog,
		cache:       c,
		notifier:    notifier,
		mailer:      mailer,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Register installs the handlers on the dispatcher
func (h *OutcomeHandlers) Register(d *broker.Dispatcher) {
	d.Register(broker.ActionBuyNft, broker.Handlers{
		OnSuccess: h.onBuySuccess,
		OnFail:    h.onBuyFail,
	})
	d.Register(broker.ActionBuyWhitelistNft, broker.Handlers{
		OnSuccess: h.onBuySuccess,
		OnFail:    h.onBuyFail,
	})
	d.Register(broker.ActionClaimNft, broker.Handlers{
		OnSuccess: h.onClaimSuccess,
		OnFail:    h.onClaimFail,
	})
	d.Register(broker.ActionAirdrop, broker.Handlers{
		OnSuccess: h.onAirdropSuccess,
		OnFail:    h.onAirdropFail,
	})
	d.Register(broker.ActionBan, broker.Handlers{
		OnSuccess: h.onBanSuccess,
		OnFail:    h.onBanFail,
	})
	d.Register(broker.ActionWhitelist, broker.Handlers{
		OnSuccess: h.onWhitelistSuccess,
		OnFail:    h.onWhitelistFail,
	})
	d.Register(broker.ActionChangeRole, broker.Handlers{
		OnSuccess: h.onChangeRoleSuccess,
		OnFail:    h.onChangeRoleFail,
	})
}

func (h *OutcomeHandlers) onBuySuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.BuyNftData](raw, h.validate)
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
	if err := h.memberships.AddMember(ctx, data.DaoID, u.ID, membership.RoleMember, []string{data.Tier}); err != nil {
		return err
	}

	h.invalidateHoldings(ctx, data.WalletAddress, data.DaoAddress, data.Tier)

	if u.Email != "" {
		if err := h.mailer.Send(ctx, u.Email, email.TemplateNftPurchased, map[string]any{
			"tier": data.Tier,
		}); err != nil {
			h.logger.Warn("failed to send purchase email", zap.Error(err))
		}
	}
	h.notify(ctx, data.UserToNotify, socket.EventNftBought, data)
	return nil
}

func (h *OutcomeHandlers) onBuyFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.BuyNftData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail); err != nil {
		return err
	}
	h.notify(ctx, data.UserToNotify, socket.EventNftBuyFailed, data)
	return nil
}

func (h *OutcomeHandlers) onClaimSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ClaimNftData](raw, h.validate)
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
	if err := h.memberships.AddMember(ctx, data.DaoID, u.ID, membership.RoleMember, []string{data.Tier}); err != nil {
		return err
	}

	h.invalidateHoldings(ctx, data.WalletAddress, data.DaoAddress, data.Tier)

	if u.Email != "" {
		if err := h.mailer.Send(ctx, u.Email, email.TemplateNftClaimed, map[string]any{
			"tier": data.Tier,
		}); err != nil {
			h.logger.Warn("failed to send claim email", zap.Error(err))
		}
	}
	h.notify(ctx, data.UserToNotify, socket.EventNftClaimed, data)
	return nil
}

func (h *OutcomeHandlers) onClaimFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ClaimNftData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail); err != nil {
		return err
	}
	// a DAO row created just for this claim has nothing backing it once the
	// transaction reverts
	if data.ProvisionalDao {
		if err := h.daos.Delete(ctx, data.DaoID); err != nil && !errors.Is(err, dao.ErrDaoNotFound) {
			return fmt.Errorf("failed to delete provisional dao: %w", err)
		}
	}
	h.notify(ctx, data.UserToNotify, socket.EventNftClaimFailed, data)
	return nil
}

func (h *OutcomeHandlers) onAirdropSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.AirdropData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioSuccess); err != nil {
		return err
	}

	for _, item := range data.Items {
		u, err := h.ensureUser(ctx, item.WalletAddress)
		if err != nil {
			return err
		}
		if err := h.memberships.AddMember(ctx, data.DaoID, u.ID, membership.RoleMember, item.Tiers); err != nil {
			return err
		}
		for _, tier := range item.Tiers {
			h.invalidateHoldings(ctx, item.WalletAddress, data.DaoAddress, tier)
		}
		if u.Email != "" {
			if err := h.mailer.Send(ctx, u.Email, email.TemplateNftAirdropped, map[string]any{
				"tiers": item.Tiers,
			}); err != nil {
				h.logger.Warn("failed to send airdrop email", zap.Error(err))
			}
		}
	}

	h.notify(ctx, data.UserToNotify, socket.EventNftAirdropped, data)
	return nil
}

func (h *OutcomeHandlers) onAirdropFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.AirdropData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail); err != nil {
		return err
	}
	h.notify(ctx, data.UserToNotify, socket.EventAirdropFailed, data)
	return nil
}

func (h *OutcomeHandlers) onBanSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.BanData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioSuccess); err != nil {
		return err
	}

	err = h.memberships.DeleteMember(ctx, data.DaoID, data.UserID)
	if err != nil && !isNotFound(err) {
		return err
	}

	u, err := h.users.GetByID(ctx, data.UserID)
	if err == nil {
		h.invalidateHoldings(ctx, u.WalletAddress, data.DaoAddress, "")
	} else {
		h.logger.Warn("failed to load banned user for cache invalidation",
			zap.String("userId", data.UserID.String()), zap.Error(err))
	}

	h.notify(ctx, data.UserToNotify, socket.EventMemberBanned, data)
	return nil
}

func (h *OutcomeHandlers) onBanFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.BanData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail); err != nil {
		return err
	}
	h.notify(ctx, data.UserToNotify, socket.EventBanFailed, data)
	return nil
}

func (h *OutcomeHandlers) onWhitelistSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.WhitelistData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioSuccess); err != nil {
		return err
	}
	h.notify(ctx, data.UserToNotify, socket.EventWhitelistUpdated, data)
	return nil
}

func (h *OutcomeHandlers) onWhitelistFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.WhitelistData](raw, h.validate)
	if err != nil {
		return err
	}
	return h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail)
}

func (h *OutcomeHandlers) onChangeRoleSuccess(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ChangeRoleData](raw, h.validate)
	if err != nil {
		return err
	}
	if err := h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioSuccess); err != nil {
		return err
	}
	if err := h.memberships.ChangeRole(ctx, data.DaoID, data.UserID, membership.Role(data.Role)); err != nil && !isNotFound(err) {
		return err
	}
	h.notify(ctx, data.UserToNotify, socket.EventRoleChanged, data)
	return nil
}

func (h *OutcomeHandlers) onChangeRoleFail(ctx context.Context, raw json.RawMessage) error {
	data, err := broker.DecodeData[broker.ChangeRoleData](raw, h.validate)
	if err != nil {
		return err
	}
	return h.txlog.FinalizeTransaction(ctx, data.TransactionHash, broker.ScenarioFail)
}

// ensureUser returns the user owning the wallet, creating a bare account on
// first contact. Outcomes can reference wallets that never signed in.
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

// invalidateHoldings drops the three cache entries derived from a wallet's
// holdings. All three go together; a stale survivor serves wrong data until
// its next natural reload.
func (h *OutcomeHandlers) invalidateHoldings(ctx context.Context, walletAddress, daoAddress, tier string) {
	if err := h.cache.HDel(ctx, cache.NftsKey(), cache.NftsField(walletAddress, daoAddress)); err != nil {
		h.logger.Warn("failed to invalidate wallet holdings cache", zap.Error(err))
	}
	metrics.CacheInvalidations.WithLabelValues("nfts").Inc()

	if tier != "" {
		if err := h.cache.HDel(ctx, cache.CollectionTiersKey(), cache.CollectionTierField(daoAddress, tier)); err != nil {
			h.logger.Warn("failed to invalidate tier cache", zap.Error(err))
		}
		metrics.CacheInvalidations.WithLabelValues("collection_tier").Inc()
	}

	if err := h.cache.Del(ctx, cache.CollectionKey(daoAddress)); err != nil {
		h.logger.Warn("failed to invalidate collection cache", zap.Error(err))
	}
	metrics.CacheInvalidations.WithLabelValues("collection").Inc()
}

func (h *OutcomeHandlers) notify(ctx context.Context, userID uuid.UUID, event string, payload any) {
	if err := h.notifier.SendPrivateMessage(ctx, userID, event, payload); err != nil {
		h.logger.Warn("failed to push socket event",
			zap.String("event", event), zap.Error(err))
	}
}

// isNotFound lets outcome handlers treat an already-absent row as done: a
// ban for a user who already left must still finalize cleanly.
func isNotFound(err error) bool {
	return apperrors.Is(err, apperrors.CategoryResourceNotFound)
}

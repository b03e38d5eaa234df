// Package service implements transaction logging: one row per submitted
// transaction, stamped with its terminal outcome when the broker delivers
// the success or fail scenario.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/internal/metrics"
	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/txlog"
)

// Service defines the transaction logging business logic
type Service interface {
	LogBanTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BanData) error
	LogAirdropTransaction(ctx context.Context, executorID uuid.UUID, data *broker.AirdropData) error
	LogWhitelistTransaction(ctx context.Context, executorID uuid.UUID, data *broker.WhitelistData) error
	LogBuyNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error
	LogBuyWhitelistNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error
	LogClaimNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ClaimNftData) error
	LogReferralClaimTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ReferralClaimData) error
	LogChangeRoleTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ChangeRoleData) error
	// FinalizeTransaction stamps the log row matching the hash with the
	// terminal outcome. A hash with no row is logged and ignored: the
	// watcher also reports transactions this service never tracked.
	FinalizeTransaction(ctx context.Context, hash string, scenario broker.Scenario) error
	GetByHash(ctx context.Context, hash string) (*txlog.Log, error)
	List(ctx context.Context, limit, offset int) ([]*txlog.Log, error)
}

type logService struct {
	store  txlog.Store
	logger *zap.Logger
}

// NewService creates a new transaction logging service
func NewService(store txlog.Store, logger *zap.Logger) Service {
	return &logService{
		store:  store,
		logger: logger,
	}
}

func (s *logService) LogBanTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BanData) error {
	return s.track(ctx, txlog.TypeBan, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogAirdropTransaction(ctx context.Context, executorID uuid.UUID, data *broker.AirdropData) error {
	return s.track(ctx, txlog.TypeAirdrop, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogWhitelistTransaction(ctx context.Context, executorID uuid.UUID, data *broker.WhitelistData) error {
	return s.track(ctx, txlog.TypeWhitelist, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogBuyNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error {
	return s.track(ctx, txlog.TypeBuyNft, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogBuyWhitelistNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error {
	return s.track(ctx, txlog.TypeBuyWhitelistNft, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogClaimNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ClaimNftData) error {
	return s.track(ctx, txlog.TypeClaimNft, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogReferralClaimTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ReferralClaimData) error {
	return s.track(ctx, txlog.TypeReferralClaim, data.TransactionHash, executorID, data.DaoAddress, data)
}

func (s *logService) LogChangeRoleTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ChangeRoleData) error {
	return s.track(ctx, txlog.TypeChangeRole, data.TransactionHash, executorID, "", data)
}

func (s *logService) track(ctx context.Context, typ txlog.Type, hash string, executorID uuid.UUID, daoAddress string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to marshal payload: %w", err))
	}
	l := &txlog.Log{
		TransactionHash: hash,
		Type:            typ,
		ExecutorID:      executorID.String(),
		DaoAddress:      daoAddress,
		Payload:         raw,
	}
	if err := s.store.Create(ctx, l); err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to track transaction: %w", err))
	}
	metrics.TransactionsTracked.WithLabelValues(string(typ)).Inc()
	s.logger.Info("transaction tracked",
		zap.String("hash", hash),
		zap.String("type", string(typ)))
	return nil
}

func (s *logService) FinalizeTransaction(ctx context.Context, hash string, scenario broker.Scenario) error {
	l, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, txlog.ErrLogNotFound) {
			// the chain watcher reports all platform transactions, including
			// ones this service never tracked
			s.logger.Warn("finalize for unknown transaction, skipping",
				zap.String("hash", hash),
				zap.String("scenario", string(scenario)))
			return nil
		}
		return apperrors.GeneralError(fmt.Errorf("failed to load transaction log: %w", err))
	}

	switch scenario {
	case broker.ScenarioSuccess:
		err = s.store.MarkSucceeded(ctx, hash)
	case broker.ScenarioFail:
		err = s.store.MarkFailed(ctx, hash)
	default:
		return apperrors.GeneralError(fmt.Errorf("unexpected finalize scenario %q", scenario))
	}
	if err != nil {
		return apperrors.GeneralError(fmt.Errorf("failed to finalize transaction: %w", err))
	}

	metrics.TransactionsFinalized.WithLabelValues(string(l.Type), string(scenario)).Inc()
	s.logger.Info("transaction finalized",
		zap.String("hash", hash),
		zap.String("type", string(l.Type)),
		zap.String("scenario", string(scenario)))
	return nil
}

func (s *logService) GetByHash(ctx context.Context, hash string) (*txlog.Log, error) {
	l, err := s.store.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, txlog.ErrLogNotFound) {
			return nil, apperrors.NotFoundError(err, "transaction not found")
		}
		return nil, apperrors.GeneralError(fmt.Errorf("failed to get transaction log: %w", err))
	}
	return l, nil
}

func (s *logService) List(ctx context.Context, limit, offset int) ([]*txlog.Log, error) {
	logs, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.GeneralError(fmt.Errorf("failed to list transaction logs: %w", err))
	}
	return logs, nil
}

package nft

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/membership"
)

const serviceName = "NftService"

// logService wraps Service with logging of every submitting call
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the collection flow Service
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{
		svc:    svc,
		logger: logger,
	}
}

func (ls *logService) BuyNftOpenSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (hash string, err error) {
	defer ls.log("BuyNftOpenSale", daoID, time.Now(), &hash, &err)
	return ls.svc.BuyNftOpenSale(ctx, executorID, daoID, tier, walletAddress)
}

func (ls *logService) BuyNftWhitelistSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (hash string, err error) {
	defer ls.log("BuyNftWhitelistSale", daoID, time.Now(), &hash, &err)
	return ls.svc.BuyNftWhitelistSale(ctx, executorID, daoID, tier, walletAddress)
}

func (ls *logService) ClaimNft(ctx context.Context, executorID uuid.UUID, daoAddress, tier, walletAddress string) (hash string, err error) {
	defer ls.log("ClaimNft", uuid.Nil, time.Now(), &hash, &err)
	return ls.svc.ClaimNft(ctx, executorID, daoAddress, tier, walletAddress)
}

func (ls *logService) AirdropNft(ctx context.Context, executorID, daoID uuid.UUID, items []broker.AirdropItem) (hash string, err error) {
	defer ls.log("AirdropNft", daoID, time.Now(), &hash, &err)
	return ls.svc.AirdropNft(ctx, executorID, daoID, items)
}

func (ls *logService) UpdateWhitelist(ctx context.Context, executorID, daoID uuid.UUID, walletAddresses, tiers []string) (hash string, err error) {
	defer ls.log("UpdateWhitelist", daoID, time.Now(), &hash, &err)
	return ls.svc.UpdateWhitelist(ctx, executorID, daoID, walletAddresses, tiers)
}

func (ls *logService) BanMember(ctx context.Context, executorID, daoID, userID uuid.UUID, shouldBurn bool) (hash string, err error) {
	defer ls.log("BanMember", daoID, time.Now(), &hash, &err)
	return ls.svc.BanMember(ctx, executorID, daoID, userID, shouldBurn)
}

func (ls *logService) ChangeRole(ctx context.Context, executorID, daoID, userID uuid.UUID, role membership.Role) (hash string, err error) {
	defer ls.log("ChangeRole", daoID, time.Now(), &hash, &err)
	return ls.svc.ChangeRole(ctx, executorID, daoID, userID, role)
}

func (ls *logService) GetNftsByUser(ctx context.Context, daoID uuid.UUID, walletAddress string, forceReload bool) ([]chainapi.OwnedNft, error) {
	return ls.svc.GetNftsByUser(ctx, daoID, walletAddress, forceReload)
}

func (ls *logService) GetSingleAsset(ctx context.Context, daoID uuid.UUID, tier string) (*chainapi.TierAsset, error) {
	return ls.svc.GetSingleAsset(ctx, daoID, tier)
}

func (ls *logService) log(method string, daoID uuid.UUID, start time.Time, hash *string, err *error) {
	fields := []zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	}
	if daoID != uuid.Nil {
		fields = append(fields, zap.String("daoId", daoID.String()))
	}
	if *err != nil {
		ls.logger.Error(method+" failed", append(fields, zap.Error(*err))...)
		return
	}
	ls.logger.Info(method+" completed", append(fields, zap.String("hash", *hash))...)
}

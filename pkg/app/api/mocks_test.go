package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/referral"
	"github.com/superdao/reconciler/pkg/txlog"
)

type mockNftService struct {
	BuyNftOpenSaleFunc func(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error)
	ClaimNftFunc       func(ctx context.Context, executorID uuid.UUID, daoAddress, tier, walletAddress string) (string, error)
	ChangeRoleFunc     func(ctx context.Context, executorID, daoID, userID uuid.UUID, role membership.Role) (string, error)
	GetNftsByUserFunc  func(ctx context.Context, daoID uuid.UUID, walletAddress string, forceReload bool) ([]chainapi.OwnedNft, error)
}

func (m *mockNftService) BuyNftOpenSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error) {
	return m.BuyNftOpenSaleFunc(ctx, executorID, daoID, tier, walletAddress)
}

func (m *mockNftService) BuyNftWhitelistSale(ctx context.Context, executorID, daoID uuid.UUID, tier, walletAddress string) (string, error) {
	return m.BuyNftOpenSaleFunc(ctx, executorID, daoID, tier, walletAddress)
}

func (m *mockNftService) ClaimNft(ctx context.Context, executorID uuid.UUID, daoAddress, tier, walletAddress string) (string, error) {
	return m.ClaimNftFunc(ctx, executorID, daoAddress, tier, walletAddress)
}

func (m *mockNftService) AirdropNft(context.Context, uuid.UUID, uuid.UUID, []broker.AirdropItem) (string, error) {
	return "", nil
}

func (m *mockNftService) UpdateWhitelist(context.Context, uuid.UUID, uuid.UUID, []string, []string) (string, error) {
	return "", nil
}

func (m *mockNftService) BanMember(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, bool) (string, error) {
	return "", nil
}

func (m *mockNftService) ChangeRole(ctx context.Context, executorID, daoID, userID uuid.UUID, role membership.Role) (string, error) {
	return m.ChangeRoleFunc(ctx, executorID, daoID, userID, role)
}

func (m *mockNftService) GetNftsByUser(ctx context.Context, daoID uuid.UUID, walletAddress string, forceReload bool) ([]chainapi.OwnedNft, error) {
	return m.GetNftsByUserFunc(ctx, daoID, walletAddress, forceReload)
}

func (m *mockNftService) GetSingleAsset(context.Context, uuid.UUID, string) (*chainapi.TierAsset, error) {
	return &chainapi.TierAsset{}, nil
}

type mockReferralService struct {
	ClaimReferralFunc func(ctx context.Context, executorID, linkID uuid.UUID, walletAddress string) (string, error)
}

func (m *mockReferralService) CreateCampaign(context.Context, uuid.UUID, *referral.Campaign) error {
	return nil
}

func (m *mockReferralService) CreateLink(context.Context, uuid.UUID, uuid.UUID) (*referral.Link, error) {
	return &referral.Link{}, nil
}

func (m *mockReferralService) ClaimReferral(ctx context.Context, executorID, linkID uuid.UUID, walletAddress string) (string, error) {
	return m.ClaimReferralFunc(ctx, executorID, linkID, walletAddress)
}

func (m *mockReferralService) GetLink(context.Context, uuid.UUID) (*referral.Link, error) {
	return &referral.Link{}, nil
}

type mockMembershipService struct {
	ListMembersFunc func(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error)
}

func (m *mockMembershipService) AddMember(context.Context, uuid.UUID, uuid.UUID, membership.Role, []string) error {
	return nil
}
func (m *mockMembershipService) DeleteMember(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}
func (m *mockMembershipService) ChangeRole(context.Context, uuid.UUID, uuid.UUID, membership.Role) error {
	return nil
}
func (m *mockMembershipService) UpdateAdminList(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}
func (m *mockMembershipService) UpdateMemberList(context.Context, uuid.UUID, []uuid.UUID) error {
	return nil
}
func (m *mockMembershipService) UpdateTiers(context.Context, uuid.UUID, uuid.UUID, []string) error {
	return nil
}
func (m *mockMembershipService) GetMember(context.Context, uuid.UUID, uuid.UUID) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}
func (m *mockMembershipService) GetMemberByID(context.Context, uuid.UUID) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}
func (m *mockMembershipService) ListMembers(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error) {
	return m.ListMembersFunc(ctx, daoID)
}
func (m *mockMembershipService) CheckAccess(context.Context, uuid.UUID, uuid.UUID, ...membership.Role) error {
	return nil
}

type mockTxlogService struct {
	GetByHashFunc func(ctx context.Context, hash string) (*txlog.Log, error)
	ListFunc      func(ctx context.Context, limit, offset int) ([]*txlog.Log, error)
}

func (m *mockTxlogService) LogBanTransaction(context.Context, uuid.UUID, *broker.BanData) error {
	return nil
}
func (m *mockTxlogService) LogAirdropTransaction(context.Context, uuid.UUID, *broker.AirdropData) error {
	return nil
}
func (m *mockTxlogService) LogWhitelistTransaction(context.Context, uuid.UUID, *broker.WhitelistData) error {
	return nil
}
func (m *mockTxlogService) LogBuyNftTransaction(context.Context, uuid.UUID, *broker.BuyNftData) error {
	return nil
}
func (m *mockTxlogService) LogBuyWhitelistNftTransaction(context.Context, uuid.UUID, *broker.BuyNftData) error {
	return nil
}
func (m *mockTxlogService) LogClaimNftTransaction(context.Context, uuid.UUID, *broker.ClaimNftData) error {
	return nil
}
func (m *mockTxlogService) LogReferralClaimTransaction(context.Context, uuid.UUID, *broker.ReferralClaimData) error {
	return nil
}
func (m *mockTxlogService) LogChangeRoleTransaction(context.Context, uuid.UUID, *broker.ChangeRoleData) error {
	return nil
}
func (m *mockTxlogService) FinalizeTransaction(context.Context, string, broker.Scenario) error {
	return nil
}
func (m *mockTxlogService) GetByHash(ctx context.Context, hash string) (*txlog.Log, error) {
	return m.GetByHashFunc(ctx, hash)
}
func (m *mockTxlogService) List(ctx context.Context, limit, offset int) ([]*txlog.Log, error) {
	return m.ListFunc(ctx, limit, offset)
}

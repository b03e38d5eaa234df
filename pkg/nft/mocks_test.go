package nft

import (
	"context"

	"github.com/google/uuid"

	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/chainapi"
	"github.com/superdao/reconciler/pkg/dao"
	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/txlog"
	"github.com/superdao/reconciler/pkg/user"
	"github.com/superdao/reconciler/pkg/whitelist"
)

// mockChain implements ChainAPI with function fields. Unset methods fail
// loudly through the nil dereference.
type mockChain struct {
	GetSingleAssetFunc  func(ctx context.Context, daoAddress, tier string) (*chainapi.TierAsset, error)
	GetNftsByUserFunc   func(ctx context.Context, daoAddress, walletAddress string) ([]chainapi.OwnedNft, error)
	BuyOpenSaleFunc     func(ctx context.Context, req *chainapi.BuyOpenSaleRequest) (string, error)
	ClaimFunc           func(ctx context.Context, req *chainapi.ClaimRequest) (string, error)
	MintFunc            func(ctx context.Context, req *chainapi.MintRequest) (string, error)
	BatchMintV2Func     func(ctx context.Context, req *chainapi.BatchMintRequest) (string, error)
	UpdateWhitelistFunc func(ctx context.Context, req *chainapi.WhitelistUpdateRequest) (string, error)
	ChangeRoleFunc      func(ctx context.Context, req *chainapi.ChangeRoleRequest) (string, error)
	BurnFunc            func(ctx context.Context, req *chainapi.BurnRequest) (string, error)
}

func (m *mockChain) GetSingleAsset(ctx context.Context, daoAddress, tier string) (*chainapi.TierAsset, error) {
	return m.GetSingleAssetFunc(ctx, daoAddress, tier)
}

func (m *mockChain) GetNftsByUser(ctx context.Context, daoAddress, walletAddress string) ([]chainapi.OwnedNft, error) {
	return m.GetNftsByUserFunc(ctx, daoAddress, walletAddress)
}

func (m *mockChain) BuyOpenSale(ctx context.Context, req *chainapi.BuyOpenSaleRequest) (string, error) {
	return m.BuyOpenSaleFunc(ctx, req)
}

func (m *mockChain) Claim(ctx context.Context, req *chainapi.ClaimRequest) (string, error) {
	return m.ClaimFunc(ctx, req)
}

func (m *mockChain) Mint(ctx context.Context, req *chainapi.MintRequest) (string, error) {
	return m.MintFunc(ctx, req)
}

func (m *mockChain) BatchMintV2(ctx context.Context, req *chainapi.BatchMintRequest) (string, error) {
	return m.BatchMintV2Func(ctx, req)
}

func (m *mockChain) UpdateWhitelist(ctx context.Context, req *chainapi.WhitelistUpdateRequest) (string, error) {
	return m.UpdateWhitelistFunc(ctx, req)
}

func (m *mockChain) ChangeRole(ctx context.Context, req *chainapi.ChangeRoleRequest) (string, error) {
	return m.ChangeRoleFunc(ctx, req)
}

func (m *mockChain) Burn(ctx context.Context, req *chainapi.BurnRequest) (string, error) {
	return m.BurnFunc(ctx, req)
}

// mockDaoStore implements dao.Store backed by an in-memory map
type mockDaoStore struct {
	daos    map[uuid.UUID]*dao.Dao
	deleted []uuid.UUID
}

func newMockDaoStore(daos ...*dao.Dao) *mockDaoStore {
	m := &mockDaoStore{daos: make(map[uuid.UUID]*dao.Dao)}
	for _, d := range daos {
		m.daos[d.ID] = d
	}
	return m
}

func (m *mockDaoStore) Create(ctx context.Context, d *dao.Dao) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	m.daos[d.ID] = d
	return nil
}

func (m *mockDaoStore) GetByID(ctx context.Context, id uuid.UUID) (*dao.Dao, error) {
	d, ok := m.daos[id]
	if !ok {
		return nil, dao.ErrDaoNotFound
	}
	return d, nil
}

func (m *mockDaoStore) GetByAddress(ctx context.Context, contractAddress string) (*dao.Dao, error) {
	for _, d := range m.daos {
		if d.ContractAddress == contractAddress {
			return d, nil
		}
	}
	return nil, dao.ErrDaoNotFound
}

func (m *mockDaoStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.daos, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockUserStore implements user.Store backed by an in-memory map
type mockUserStore struct {
	byID     map[uuid.UUID]*user.User
	byWallet map[string]*user.User
}

func newMockUserStore(users ...*user.User) *mockUserStore {
	m := &mockUserStore{
		byID:     make(map[uuid.UUID]*user.User),
		byWallet: make(map[string]*user.User),
	}
	for _, u := range users {
		m.byID[u.ID] = u
		m.byWallet[u.WalletAddress] = u
	}
	return m
}

func (m *mockUserStore) Create(ctx context.Context, u *user.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.byID[u.ID] = u
	m.byWallet[u.WalletAddress] = u
	return nil
}

func (m *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetByWalletAddress(ctx context.Context, walletAddress string) (*user.User, error) {
	u, ok := m.byWallet[walletAddress]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

// mockWhitelistStore implements whitelist.Store with a fixed entry set
type mockWhitelistStore struct {
	entries []*whitelist.Entry
}

func (m *mockWhitelistStore) Create(ctx context.Context, e *whitelist.Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockWhitelistStore) GetByWallet(ctx context.Context, daoID uuid.UUID, walletAddress string) (*whitelist.Entry, error) {
	for _, e := range m.entries {
		// a nil DaoID entry matches any dao, used by tests that cannot know
		// the provisional dao's ID up front
		if (e.DaoID == daoID || e.DaoID == uuid.Nil) && e.WalletAddress == walletAddress {
			return e, nil
		}
	}
	return nil, whitelist.ErrEntryNotFound
}

func (m *mockWhitelistStore) ListByDao(ctx context.Context, daoID uuid.UUID) ([]*whitelist.Entry, error) {
	return m.entries, nil
}

func (m *mockWhitelistStore) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

// mockMembershipSvc records membership mutations; CheckAccess allows by
// default
type mockMembershipSvc struct {
	CheckAccessFunc func(ctx context.Context, daoID, userID uuid.UUID, roles ...membership.Role) error

	added   []uuid.UUID
	removed []uuid.UUID
	roles   map[uuid.UUID]membership.Role
}

func (m *mockMembershipSvc) AddMember(ctx context.Context, daoID, userID uuid.UUID, role membership.Role, tiers []string) error {
	m.added = append(m.added, userID)
	return nil
}

func (m *mockMembershipSvc) DeleteMember(ctx context.Context, daoID, userID uuid.UUID) error {
	m.removed = append(m.removed, userID)
	return nil
}

func (m *mockMembershipSvc) ChangeRole(ctx context.Context, daoID, userID uuid.UUID, role membership.Role) error {
	if m.roles == nil {
		m.roles = make(map[uuid.UUID]membership.Role)
	}
	m.roles[userID] = role
	return nil
}

func (m *mockMembershipSvc) UpdateAdminList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error {
	return nil
}

func (m *mockMembershipSvc) UpdateMemberList(ctx context.Context, daoID uuid.UUID, userIDs []uuid.UUID) error {
	return nil
}

func (m *mockMembershipSvc) UpdateTiers(ctx context.Context, daoID, userID uuid.UUID, tiers []string) error {
	return nil
}

func (m *mockMembershipSvc) GetMember(ctx context.Context, daoID, userID uuid.UUID) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}

func (m *mockMembershipSvc) GetMemberByID(ctx context.Context, id uuid.UUID) (*membership.Membership, error) {
	return nil, membership.ErrMembershipNotFound
}

func (m *mockMembershipSvc) ListMembers(ctx context.Context, daoID uuid.UUID) ([]*membership.Membership, error) {
	return nil, nil
}

func (m *mockMembershipSvc) CheckAccess(ctx context.Context, daoID, userID uuid.UUID, roles ...membership.Role) error {
	if m.CheckAccessFunc != nil {
		return m.CheckAccessFunc(ctx, daoID, userID, roles...)
	}
	return nil
}

// mockTxlogSvc records tracked and finalized hashes
type mockTxlogSvc struct {
	tracked   []string
	finalized map[string]broker.Scenario
}

func newMockTxlogSvc() *mockTxlogSvc {
	return &mockTxlogSvc{finalized: make(map[string]broker.Scenario)}
}

func (m *mockTxlogSvc) LogBanTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BanData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogAirdropTransaction(ctx context.Context, executorID uuid.UUID, data *broker.AirdropData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogWhitelistTransaction(ctx context.Context, executorID uuid.UUID, data *broker.WhitelistData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogBuyNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogBuyWhitelistNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.BuyNftData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogClaimNftTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ClaimNftData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogReferralClaimTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ReferralClaimData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) LogChangeRoleTransaction(ctx context.Context, executorID uuid.UUID, data *broker.ChangeRoleData) error {
	m.tracked = append(m.tracked, data.TransactionHash)
	return nil
}

func (m *mockTxlogSvc) FinalizeTransaction(ctx context.Context, hash string, scenario broker.Scenario) error {
	m.finalized[hash] = scenario
	return nil
}

func (m *mockTxlogSvc) GetByHash(ctx context.Context, hash string) (*txlog.Log, error) {
	return nil, txlog.ErrLogNotFound
}

func (m *mockTxlogSvc) List(ctx context.Context, limit, offset int) ([]*txlog.Log, error) {
	return nil, nil
}

// mockNotifier records pushed socket events
type mockNotifier struct {
	events []string
}

func (m *mockNotifier) SendPrivateMessage(ctx context.Context, userID uuid.UUID, event string, payload any) error {
	m.events = append(m.events, event)
	return nil
}

// mockMailer records sent templates
type mockMailer struct {
	sent []string
}

func (m *mockMailer) Send(ctx context.Context, to, template string, data map[string]any) error {
	m.sent = append(m.sent, template)
	return nil
}

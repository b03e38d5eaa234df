package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	apphttp "github.com/superdao/reconciler/pkg/app/http"
	"github.com/superdao/reconciler/pkg/broker"
	"github.com/superdao/reconciler/pkg/membership"
	membershipsvc "github.com/superdao/reconciler/pkg/membership/service"
	"github.com/superdao/reconciler/pkg/nft"
	"github.com/superdao/reconciler/pkg/referral"
	"github.com/superdao/reconciler/pkg/txlog"
	txlogsvc "github.com/superdao/reconciler/pkg/txlog/service"
	"github.com/superdao/reconciler/pkg/wallet"
)

// HTTP wraps the services to provide the reconciler HTTP endpoints
type HTTP struct {
	nft          nft.Service
	referrals    referral.Service
	memberships  membershipsvc.Service
	txlog        txlogsvc.Service
	wrappedMatic string
	validate     *validator.Validate
	logger       *zap.Logger
}

// RegisterRoutes registers the reconciler API endpoints on the given chi router
func RegisterRoutes(
	r chi.Router,
	nftService nft.Service,
	referralService referral.Service,
	membershipService membershipsvc.Service,
	txlogService txlogsvc.Service,
	wrappedMatic string,
	logger *zap.Logger,
) {
	h := &HTTP{
		nft:          nftService,
		referrals:    referralService,
		memberships:  membershipService,
		txlog:        txlogService,
		wrappedMatic: wrappedMatic,
		validate:     validator.New(),
		logger:       logger,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/transactions", apphttp.HandleError(h.listTransactions))
		r.Get("/transactions/{hash}", apphttp.HandleError(h.getTransaction))
		r.Post("/wallet/transactions/decode", apphttp.HandleError(h.decodeWalletTransactions))

		r.Route("/nft", func(r chi.Router) {
			r.Post("/buy", apphttp.HandleError(h.buyNft))
			r.Post("/buy-whitelist", apphttp.HandleError(h.buyWhitelistNft))
			r.Post("/claim", apphttp.HandleError(h.claimNft))
			r.Post("/airdrop", apphttp.HandleError(h.airdropNft))
			r.Post("/whitelist", apphttp.HandleError(h.updateWhitelist))
		})

		r.Route("/daos/{daoID}", func(r chi.Router) {
			r.Get("/members", apphttp.HandleError(h.listMembers))
			r.Get("/nfts", apphttp.HandleError(h.getNftsByUser))
			r.Get("/tiers/{tier}", apphttp.HandleError(h.getSingleAsset))
		})

		r.Post("/members/ban", apphttp.HandleError(h.banMember))
		r.Post("/members/change-role", apphttp.HandleError(h.changeRole))

		r.Route("/referral", func(r chi.Router) {
			r.Post("/campaigns", apphttp.HandleError(h.createCampaign))
			r.Post("/links", apphttp.HandleError(h.createLink))
			r.Get("/links/{linkID}", apphttp.HandleError(h.getLink))
			r.Post("/claim", apphttp.HandleError(h.claimReferral))
		})
	})
}

// executorID identifies the platform user behind the request. Auth happens
// upstream at the gateway; the verified identity arrives in a header.
func executorID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		return uuid.Nil, apperrors.UnAuthorizedError(nil, "missing X-User-Id header")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.UnAuthorizedError(err, "invalid X-User-Id header")
	}
	return id, nil
}

func (h *HTTP) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.ValidationError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.ValidationError(err, "invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.ValidationError(err, "invalid request")
	}
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError(err, "invalid "+name)
	}
	return id, nil
}

type transactionHashResponse struct {
	TransactionHash string `json:"transactionHash"`
}

type buyNftRequest struct {
	DaoID         uuid.UUID `json:"daoId" validate:"required"`
	Tier          string    `json:"tier" validate:"required"`
	WalletAddress string    `json:"walletAddress" validate:"required"`
}

func (h *HTTP) buyNft(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req buyNftRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.BuyNftOpenSale(r.Context(), executor, req.DaoID, req.Tier, req.WalletAddress)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

func (h *HTTP) buyWhitelistNft(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req buyNftRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.BuyNftWhitelistSale(r.Context(), executor, req.DaoID, req.Tier, req.WalletAddress)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type claimNftRequest struct {
	DaoAddress    string `json:"daoAddress" validate:"required"`
	Tier          string `json:"tier" validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

func (h *HTTP) claimNft(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req claimNftRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.ClaimNft(r.Context(), executor, req.DaoAddress, req.Tier, req.WalletAddress)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type airdropRequest struct {
	DaoID uuid.UUID            `json:"daoId" validate:"required"`
	Items []broker.AirdropItem `json:"items" validate:"required,min=1,dive"`
}

func (h *HTTP) airdropNft(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req airdropRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.AirdropNft(r.Context(), executor, req.DaoID, req.Items)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type whitelistRequest struct {
	DaoID           uuid.UUID `json:"daoId" validate:"required"`
	WalletAddresses []string  `json:"walletAddresses" validate:"required,min=1"`
	Tiers           []string  `json:"tiers"`
}

func (h *HTTP) updateWhitelist(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req whitelistRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.UpdateWhitelist(r.Context(), executor, req.DaoID, req.WalletAddresses, req.Tiers)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type banRequest struct {
	DaoID      uuid.UUID `json:"daoId" validate:"required"`
	UserID     uuid.UUID `json:"userId" validate:"required"`
	ShouldBurn bool      `json:"shouldBurn"`
}

func (h *HTTP) banMember(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req banRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.BanMember(r.Context(), executor, req.DaoID, req.UserID, req.ShouldBurn)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type changeRoleRequest struct {
	DaoID  uuid.UUID `json:"daoId" validate:"required"`
	UserID uuid.UUID `json:"userId" validate:"required"`
	Role   string    `json:"role" validate:"required,oneof=ADMIN MEMBER"`
}

func (h *HTTP) changeRole(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req changeRoleRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.nft.ChangeRole(r.Context(), executor, req.DaoID, req.UserID, membership.Role(req.Role))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type memberResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Role      string    `json:"role"`
	Tiers     []string  `json:"tiers"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *HTTP) listMembers(w http.ResponseWriter, r *http.Request) error {
	daoID, err := pathUUID(r, "daoID")
	if err != nil {
		return err
	}
	members, err := h.memberships.ListMembers(r.Context(), daoID)
	if err != nil {
		return err
	}
	resp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		resp = append(resp, memberResponse{
			ID:        m.ID,
			UserID:    m.UserID,
			Role:      string(m.Role),
			Tiers:     m.Tiers,
			CreatedAt: m.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) getNftsByUser(w http.ResponseWriter, r *http.Request) error {
	daoID, err := pathUUID(r, "daoID")
	if err != nil {
		return err
	}
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		return apperrors.ValidationError(nil, "wallet query parameter is required")
	}
	forceReload := r.URL.Query().Get("force") == "true"

	nfts, err := h.nft.GetNftsByUser(r.Context(), daoID, wallet, forceReload)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, nfts)
	return nil
}

func (h *HTTP) getSingleAsset(w http.ResponseWriter, r *http.Request) error {
	daoID, err := pathUUID(r, "daoID")
	if err != nil {
		return err
	}
	asset, err := h.nft.GetSingleAsset(r.Context(), daoID, chi.URLParam(r, "tier"))
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, asset)
	return nil
}

type transactionResponse struct {
	TransactionHash string          `json:"transactionHash"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	ExecutorID      string          `json:"executorId"`
	DaoAddress      string          `json:"daoAddress"`
	Payload         json.RawMessage `json:"payload"`
	CreatedAt       time.Time       `json:"createdAt"`
	SucceededAt     *time.Time      `json:"succeededAt,omitempty"`
	FailedAt        *time.Time      `json:"failedAt,omitempty"`
}

func (h *HTTP) listTransactions(w http.ResponseWriter, r *http.Request) error {
	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}
	offset := queryInt(r, "offset", 0)

	logs, err := h.txlog.List(r.Context(), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]transactionResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, toTransactionResponse(l.TransactionHash, l))
	}
	h.writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *HTTP) getTransaction(w http.ResponseWriter, r *http.Request) error {
	hash := chi.URLParam(r, "hash")
	log, err := h.txlog.GetByHash(r.Context(), hash)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toTransactionResponse(hash, log))
	return nil
}

type createCampaignRequest struct {
	DaoID       uuid.UUID `json:"daoId" validate:"required"`
	Name        string    `json:"name" validate:"required"`
	Tier        string    `json:"tier" validate:"required"`
	IsRecursive bool      `json:"isRecursive"`
	LinkLimit   int       `json:"linkLimit" validate:"required,min=1"`
}

func (h *HTTP) createCampaign(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req createCampaignRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	campaign := &referral.Campaign{
		DaoID:       req.DaoID,
		Name:        req.Name,
		Tier:        req.Tier,
		IsRecursive: req.IsRecursive,
		LinkLimit:   req.LinkLimit,
	}
	if err := h.referrals.CreateCampaign(r.Context(), executor, campaign); err != nil {
		return err
	}
	h.writeJSON(w, http.StatusCreated, toCampaignResponse(campaign))
	return nil
}

type createLinkRequest struct {
	CampaignID uuid.UUID `json:"campaignId" validate:"required"`
	ReferrerID uuid.UUID `json:"referrerId" validate:"required"`
}

func (h *HTTP) createLink(w http.ResponseWriter, r *http.Request) error {
	if _, err := executorID(r); err != nil {
		return err
	}
	var req createLinkRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	link, err := h.referrals.CreateLink(r.Context(), req.CampaignID, req.ReferrerID)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusCreated, toLinkResponse(link))
	return nil
}

func (h *HTTP) getLink(w http.ResponseWriter, r *http.Request) error {
	linkID, err := pathUUID(r, "linkID")
	if err != nil {
		return err
	}
	link, err := h.referrals.GetLink(r.Context(), linkID)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusOK, toLinkResponse(link))
	return nil
}

type claimReferralRequest struct {
	LinkID        uuid.UUID `json:"linkId" validate:"required"`
	WalletAddress string    `json:"walletAddress" validate:"required"`
}

func (h *HTTP) claimReferral(w http.ResponseWriter, r *http.Request) error {
	executor, err := executorID(r)
	if err != nil {
		return err
	}
	var req claimReferralRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	hash, err := h.referrals.ClaimReferral(r.Context(), executor, req.LinkID, req.WalletAddress)
	if err != nil {
		return err
	}
	h.writeJSON(w, http.StatusAccepted, transactionHashResponse{TransactionHash: hash})
	return nil
}

type campaignResponse struct {
	ID          uuid.UUID `json:"id"`
	DaoID       uuid.UUID `json:"daoId"`
	Name        string    `json:"name"`
	Tier        string    `json:"tier"`
	IsRecursive bool      `json:"isRecursive"`
	LinkLimit   int       `json:"linkLimit"`
	CreatedAt   time.Time `json:"createdAt"`
}

type linkResponse struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaignId"`
	ReferrerID uuid.UUID `json:"referrerId"`
	Limit      int       `json:"limit"`
	LimitLeft  int       `json:"limitLeft"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toCampaignResponse(c *referral.Campaign) campaignResponse {
	return campaignResponse{
		ID:          c.ID,
		DaoID:       c.DaoID,
		Name:        c.Name,
		Tier:        c.Tier,
		IsRecursive: c.IsRecursive,
		LinkLimit:   c.LinkLimit,
		CreatedAt:   c.CreatedAt,
	}
}

func toLinkResponse(l *referral.Link) linkResponse {
	return linkResponse{
		ID:         l.ID,
		CampaignID: l.CampaignID,
		ReferrerID: l.ReferrerID,
		Limit:      l.Limit,
		LimitLeft:  l.LimitLeft,
		CreatedAt:  l.CreatedAt,
	}
}

func toTransactionResponse(hash string, l *txlog.Log) transactionResponse {
	return transactionResponse{
		TransactionHash: hash,
		Type:            string(l.Type),
		Status:          string(l.Status()),
		ExecutorID:      l.ExecutorID,
		DaoAddress:      l.DaoAddress,
		Payload:         l.Payload,
		CreatedAt:       l.CreatedAt,
		SucceededAt:     l.SucceededAt,
		FailedAt:        l.FailedAt,
	}
}

type decodeWalletRequest struct {
	WalletAddress string                  `json:"walletAddress" validate:"required"`
	Transactions  []wallet.RawTransaction `json:"transactions" validate:"required,min=1"`
}

// decodeWalletTransactions normalizes raw chain transactions into semantic
// wallet transactions from the given wallet's point of view
func (h *HTTP) decodeWalletTransactions(w http.ResponseWriter, r *http.Request) error {
	var req decodeWalletRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	wctx := wallet.Context{
		WalletAddress:       req.WalletAddress,
		WrappedMaticAddress: h.wrappedMatic,
	}
	out := make([]*wallet.WalletTransaction, 0, len(req.Transactions))
	for i := range req.Transactions {
		out = append(out, wallet.DecodeTransaction(&req.Transactions[i], wctx))
	}
	h.writeJSON(w, http.StatusOK, out)
	return nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

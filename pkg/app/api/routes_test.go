package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/superdao/reconciler/pkg/app/errors"
	"github.com/superdao/reconciler/pkg/membership"
	"github.com/superdao/reconciler/pkg/txlog"
)

const testWrappedMatic = "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270"

func newTestRouter(t *testing.T, nftSvc *mockNftService, txlogSvc *mockTxlogService) chi.Router {
	t.Helper()
	r := chi.NewRouter()
	RegisterRoutes(r,
		nftSvc,
		&mockReferralService{},
		&mockMembershipService{},
		txlogSvc,
		testWrappedMatic,
		zap.NewNop(),
	)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, executor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	if executor != uuid.Nil {
		req.Header.Set("X-User-Id", executor.String())
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBuyNft_ReturnsHash(t *testing.T) {
	executor := uuid.New()
	daoID := uuid.New()

	nftSvc := &mockNftService{
		BuyNftOpenSaleFunc: func(_ context.Context, gotExecutor, gotDao uuid.UUID, tier, wallet string) (string, error) {
			assert.Equal(t, executor, gotExecutor)
			assert.Equal(t, daoID, gotDao)
			assert.Equal(t, "gold", tier)
			assert.Equal(t, "0xwallet", wallet)
			return "0xhash", nil
		},
	}
	router := newTestRouter(t, nftSvc, &mockTxlogService{})

	rec := postJSON(t, router, "/api/v1/nft/buy", executor, map[string]any{
		"daoId":         daoID,
		"tier":          "gold",
		"walletAddress": "0xwallet",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp transactionHashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xhash", resp.TransactionHash)
}

func TestBuyNft_RequiresExecutorHeader(t *testing.T) {
	router := newTestRouter(t, &mockNftService{}, &mockTxlogService{})

	rec := postJSON(t, router, "/api/v1/nft/buy", uuid.Nil, map[string]any{
		"daoId":         uuid.New(),
		"tier":          "gold",
		"walletAddress": "0xwallet",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBuyNft_RejectsIncompleteBody(t *testing.T) {
	router := newTestRouter(t, &mockNftService{}, &mockTxlogService{})

	rec := postJSON(t, router, "/api/v1/nft/buy", uuid.New(), map[string]any{
		"daoId": uuid.New(),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTransaction_MapsStatus(t *testing.T) {
	now := time.Now().UTC()
	txlogSvc := &mockTxlogService{
		GetByHashFunc: func(_ context.Context, hash string) (*txlog.Log, error) {
			return &txlog.Log{
				TransactionHash: hash,
				Type:            txlog.TypeBuyNft,
				ExecutorID:      uuid.New().String(),
				DaoAddress:      "0xdao",
				Payload:         json.RawMessage(`{}`),
				CreatedAt:       now.Add(-time.Minute),
				SucceededAt:     &now,
			}, nil
		},
	}
	router := newTestRouter(t, &mockNftService{}, txlogSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/0xabc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xabc", resp.TransactionHash)
	assert.Equal(t, "SUCCEEDED", resp.Status)
	assert.Equal(t, "BUY_NFT", resp.Type)
	assert.NotNil(t, resp.SucceededAt)
}

func TestGetTransaction_NotFound(t *testing.T) {
	txlogSvc := &mockTxlogService{
		GetByHashFunc: func(context.Context, string) (*txlog.Log, error) {
			return nil, apperrors.NotFoundError(txlog.ErrLogNotFound, "transaction not found")
		},
	}
	router := newTestRouter(t, &mockNftService{}, txlogSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/0xmissing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTransactions_ClampsLimit(t *testing.T) {
	txlogSvc := &mockTxlogService{
		ListFunc: func(_ context.Context, limit, offset int) ([]*txlog.Log, error) {
			assert.Equal(t, 200, limit)
			assert.Equal(t, 10, offset)
			return nil, nil
		},
	}
	router := newTestRouter(t, &mockNftService{}, txlogSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=9999&offset=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangeRole_SubmitsTransaction(t *testing.T) {
	executor := uuid.New()
	daoID := uuid.New()
	userID := uuid.New()

	nftSvc := &mockNftService{
		ChangeRoleFunc: func(_ context.Context, gotExecutor, gotDao, gotUser uuid.UUID, role membership.Role) (string, error) {
			assert.Equal(t, executor, gotExecutor)
			assert.Equal(t, daoID, gotDao)
			assert.Equal(t, userID, gotUser)
			assert.Equal(t, membership.RoleAdmin, role)
			return "0xrole", nil
		},
	}
	router := newTestRouter(t, nftSvc, &mockTxlogService{})

	rec := postJSON(t, router, "/api/v1/members/change-role", executor, map[string]any{
		"daoId":  daoID,
		"userId": userID,
		"role":   "ADMIN",
	})

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp transactionHashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xrole", resp.TransactionHash)
}

func TestChangeRole_RejectsUnknownRole(t *testing.T) {
	router := newTestRouter(t, &mockNftService{}, &mockTxlogService{})

	rec := postJSON(t, router, "/api/v1/members/change-role", uuid.New(), map[string]any{
		"daoId":  uuid.New(),
		"userId": uuid.New(),
		"role":   "SUDO",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMembers_RejectsInvalidDaoID(t *testing.T) {
	router := newTestRouter(t, &mockNftService{}, &mockTxlogService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/daos/not-a-uuid/members", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDecodeWalletTransactions(t *testing.T) {
	router := newTestRouter(t, &mockNftService{}, &mockTxlogService{})
	wallet := "0x1111111111111111111111111111111111111111"

	rec := postJSON(t, router, "/api/v1/wallet/transactions/decode", uuid.Nil, map[string]any{
		"walletAddress": wallet,
		"transactions": []map[string]any{{
			"tx_hash":      "0xabc",
			"successful":   true,
			"from_address": wallet,
			"to_address":   "0x2222222222222222222222222222222222222222",
			"value":        "1000",
		}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []struct {
		Type      string `json:"type"`
		Direction string `json:"direction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "SEND", resp[0].Type)
	assert.Equal(t, "OUT", resp[0].Direction)
}

func TestClaimReferral_ReturnsHash(t *testing.T) {
	linkID := uuid.New()
	referralSvc := &mockReferralService{
		ClaimReferralFunc: func(_ context.Context, _, gotLink uuid.UUID, wallet string) (string, error) {
			assert.Equal(t, linkID, gotLink)
			assert.Equal(t, "0xwallet", wallet)
			return "0xclaim", nil
		},
	}

	r := chi.NewRouter()
	RegisterRoutes(r, &mockNftService{}, referralSvc, &mockMembershipService{},
		&mockTxlogService{}, testWrappedMatic, zap.NewNop())

	rec := postJSON(t, r, "/api/v1/referral/claim", uuid.New(), map[string]any{
		"linkId":        linkID,
		"walletAddress": "0xwallet",
	})

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var resp transactionHashResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xclaim", resp.TransactionHash)
}

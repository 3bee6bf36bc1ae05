package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
	"astrawise/internal/services"
)

// --- mock link service ---

type mockLinkService struct {
	createLinkTokenFn     func(ctx context.Context, clientUserID string) (string, error)
	exchangePublicTokenFn func(ctx context.Context, userID, publicToken string) error
	getItemByUserIDFn     func(userID string) (*models.PlaidItem, error)
}

func (m *mockLinkService) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	if m.createLinkTokenFn != nil {
		return m.createLinkTokenFn(ctx, clientUserID)
	}
	return "link-sandbox-abc", nil
}

func (m *mockLinkService) ExchangePublicToken(ctx context.Context, userID, publicToken string) error {
	if m.exchangePublicTokenFn != nil {
		return m.exchangePublicTokenFn(ctx, userID, publicToken)
	}
	return nil
}

func (m *mockLinkService) GetItemByUserID(userID string) (*models.PlaidItem, error) {
	if m.getItemByUserIDFn != nil {
		return m.getItemByUserIDFn(userID)
	}
	return &models.PlaidItem{}, nil
}

var _ services.LinkServicer = (*mockLinkService)(nil)

// --- mock sync service ---

type mockSyncService struct {
	syncAccountsFn     func(ctx context.Context, userID string) error
	syncTransactionsFn func(ctx context.Context, userID string) error
}

func (m *mockSyncService) SyncAccounts(ctx context.Context, userID string) error {
	if m.syncAccountsFn != nil {
		return m.syncAccountsFn(ctx, userID)
	}
	return nil
}

func (m *mockSyncService) SyncTransactions(ctx context.Context, userID string) error {
	if m.syncTransactionsFn != nil {
		return m.syncTransactionsFn(ctx, userID)
	}
	return nil
}

var _ services.SyncServicer = (*mockSyncService)(nil)

func setupPlaidRouter(handler *PlaidHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID("u-1"))
	auth.POST("/plaid/create-link-token", handler.CreateLinkToken)
	auth.POST("/plaid/exchange-token", handler.ExchangeToken)
	auth.POST("/plaid/fetch-accounts", handler.FetchAccounts)
	auth.POST("/plaid/fetch-transactions", handler.FetchTransactions)
	return r
}

// --- tests ---

func TestPlaidHandler_CreateLinkToken(t *testing.T) {
	t.Run("returns token for the authenticated user", func(t *testing.T) {
		var gotUserID string
		linkSvc := &mockLinkService{
			createLinkTokenFn: func(ctx context.Context, clientUserID string) (string, error) {
				gotUserID = clientUserID
				return "link-sandbox-xyz", nil
			},
		}
		handler := NewPlaidHandler(linkSvc, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/create-link-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["linkToken"] != "link-sandbox-xyz" {
			t.Error("expected link token in response")
		}
		if gotUserID != "u-1" {
			t.Errorf("expected authenticated user id, got %q", gotUserID)
		}
	})

	t.Run("returns 500 on provider failure", func(t *testing.T) {
		linkSvc := &mockLinkService{
			createLinkTokenFn: func(ctx context.Context, clientUserID string) (string, error) {
				return "", apperrors.ErrSyncFailed
			},
		}
		handler := NewPlaidHandler(linkSvc, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/create-link-token", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SYNC_FAILED")
	})
}

func TestPlaidHandler_ExchangeToken(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var gotToken string
		linkSvc := &mockLinkService{
			exchangePublicTokenFn: func(ctx context.Context, userID, publicToken string) error {
				gotToken = publicToken
				return nil
			},
		}
		handler := NewPlaidHandler(linkSvc, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/exchange-token",
			`{"publicToken":"public-sandbox-12345678"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotToken != "public-sandbox-12345678" {
			t.Errorf("expected public token passed through, got %q", gotToken)
		}
	})

	t.Run("returns 400 on malformed public token", func(t *testing.T) {
		handler := NewPlaidHandler(&mockLinkService{}, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/exchange-token", `{"publicToken":"not-a-public-token"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_REQUEST")
	})

	t.Run("returns 400 on missing token", func(t *testing.T) {
		handler := NewPlaidHandler(&mockLinkService{}, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/exchange-token", `{}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPlaidHandler_FetchAccounts(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewPlaidHandler(&mockLinkService{}, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/fetch-accounts", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when not linked", func(t *testing.T) {
		syncSvc := &mockSyncService{
			syncAccountsFn: func(ctx context.Context, userID string) error {
				return apperrors.ErrItemNotFound
			},
		}
		handler := NewPlaidHandler(&mockLinkService{}, syncSvc)
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/fetch-accounts", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ITEM_NOT_FOUND")
	})
}

func TestPlaidHandler_FetchTransactions(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewPlaidHandler(&mockLinkService{}, &mockSyncService{})
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/fetch-transactions", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 500 on sync failure", func(t *testing.T) {
		syncSvc := &mockSyncService{
			syncTransactionsFn: func(ctx context.Context, userID string) error {
				return apperrors.ErrSyncFailed
			},
		}
		handler := NewPlaidHandler(&mockLinkService{}, syncSvc)
		r := setupPlaidRouter(handler)

		rec := doRequest(r, "POST", "/plaid/fetch-transactions", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

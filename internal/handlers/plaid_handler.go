package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/services"
)

// PlaidHandler handles institution linking and data sync requests.
type PlaidHandler struct {
	linkService services.LinkServicer
	syncService services.SyncServicer
}

// NewPlaidHandler creates a new PlaidHandler
func NewPlaidHandler(linkService services.LinkServicer, syncService services.SyncServicer) *PlaidHandler {
	return &PlaidHandler{linkService: linkService, syncService: syncService}
}

// ExchangeTokenRequest represents the public token exchange payload
type ExchangeTokenRequest struct {
	PublicToken string `json:"publicToken" binding:"required,public_token"`
}

// LinkTokenResponse represents the link token creation response
type LinkTokenResponse struct {
	LinkToken string `json:"linkToken"`
}

// SuccessResponse represents a plain success message
type SuccessResponse struct {
	Message string `json:"message"`
}

// CreateLinkToken issues a short-lived link token for the link widget
// @Summary     Create a link token
// @Description Create a short-lived token that initializes the account link widget
// @Tags        plaid
// @Produce     json
// @Success     200 {object} LinkTokenResponse "Link token created"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plaid/create-link-token [post]
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	linkToken, err := h.linkService.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"linkToken": linkToken})
}

// ExchangeToken swaps a public token for a stored access token
// @Summary     Exchange a public token
// @Description Exchange the link widget's public token for a persistent access token
// @Tags        plaid
// @Accept      json
// @Produce     json
// @Param       request body ExchangeTokenRequest true "Public token from the link widget"
// @Success     200 {object} SuccessResponse "Institution linked"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plaid/exchange-token [post]
func (h *PlaidHandler) ExchangeToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	if err := h.linkService.ExchangePublicToken(c.Request.Context(), userID, req.PublicToken); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token exchanged successfully"})
}

// FetchAccounts syncs account snapshots from the provider
// @Summary     Fetch and store accounts
// @Description Pull current account snapshots from the provider, upsert them, and index embeddings
// @Tags        plaid
// @Produce     json
// @Success     200 {object} SuccessResponse "Accounts synced"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No linked institution or no accounts"
// @Failure     500 {object} ErrorResponse "Sync failed"
// @Router      /plaid/fetch-accounts [post]
func (h *PlaidHandler) FetchAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.syncService.SyncAccounts(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Accounts fetched and stored successfully"})
}

// FetchTransactions syncs transaction snapshots from the provider
// @Summary     Fetch and store transactions
// @Description Pull transaction history from the provider, upsert it, and index embeddings
// @Tags        plaid
// @Produce     json
// @Success     200 {object} SuccessResponse "Transactions synced"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No linked institution or no transactions"
// @Failure     500 {object} ErrorResponse "Sync failed"
// @Router      /plaid/fetch-transactions [post]
func (h *PlaidHandler) FetchTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.syncService.SyncTransactions(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transactions fetched and stored successfully"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
	"astrawise/internal/pagination"
	"astrawise/internal/services"
)

// UserHandler serves the dashboard's read-only views of synced data.
type UserHandler struct {
	accountService services.AccountServicer
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accountService services.AccountServicer) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// HasAccountResponse reports whether the user has any synced accounts
type HasAccountResponse struct {
	HasAccount bool `json:"hasAccount"`
}

// AccountsResponse lists the user's synced accounts
type AccountsResponse struct {
	Accounts []models.Account `json:"accounts"`
}

// HasAccount reports whether the user has linked and synced any account
// @Summary     Check for synced accounts
// @Description Report whether the user has at least one synced account
// @Tags        user
// @Produce     json
// @Success     200 {object} HasAccountResponse "Check result"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user/has-account [get]
func (h *UserHandler) HasAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	hasAccount, err := h.accountService.HasAccount(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"hasAccount": hasAccount})
}

// GetAccounts lists the user's synced accounts
// @Summary     List synced accounts
// @Description Retrieve all of the user's synced accounts
// @Tags        user
// @Produce     json
// @Success     200 {object} AccountsResponse "Synced accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user/get-accounts [get]
func (h *UserHandler) GetAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.GetUserAccounts(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetTransactions lists the user's synced transactions, paginated
// @Summary     List synced transactions
// @Description Retrieve a page of the user's synced transactions, newest first
// @Tags        user
// @Produce     json
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Items per page" default(20)
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Page of transactions"
// @Failure     400 {object} ErrorResponse "Invalid pagination parameters"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user/get-transactions [get]
func (h *UserHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	result, err := h.accountService.GetUserTransactions(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

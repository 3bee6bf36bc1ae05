// Package plaid implements a client for the bank-data aggregation API:
// link-token issuance, public-token exchange, and account/transaction
// retrieval for a stored access credential.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 60 * time.Second

	linkTokenPath    = "/link/token/create"
	exchangePath     = "/item/public_token/exchange"
	accountsPath     = "/accounts/get"
	transactionsPath = "/transactions/get"
)

// Config holds the aggregation provider credentials and environment.
type Config struct {
	ClientID string
	Secret   string
	BaseURL  string // e.g. https://sandbox.plaid.com
}

// Client handles communication with the aggregation provider API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// NewClient creates a new aggregation API client.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
	}
}

// apiError is the provider's error envelope.
type apiError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Balances holds account balance information.
type Balances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	ISOCurrencyCode *string  `json:"iso_currency_code"`
}

// Account is a bank account as returned by the provider.
type Account struct {
	AccountID       string   `json:"account_id"`
	Balances        Balances `json:"balances"`
	Mask            *string  `json:"mask"`
	Name            string   `json:"name"`
	OfficialName    *string  `json:"official_name"`
	PersistentAccID string   `json:"persistent_account_id"`
	Subtype         *string  `json:"subtype"`
	Type            string   `json:"type"`
}

// Transaction is a financial transaction as returned by the provider.
type Transaction struct {
	TransactionID   string   `json:"transaction_id"`
	AccountID       string   `json:"account_id"`
	Amount          float64  `json:"amount"`
	Date            string   `json:"date"`            // "2006-01-02"
	AuthorizedDate  *string  `json:"authorized_date"` // "2006-01-02"
	Category        []string `json:"category"`
	MerchantName    *string  `json:"merchant_name"`
	LogoURL         *string  `json:"logo_url"`
	PaymentChannel  *string  `json:"payment_channel"`
	Pending         bool     `json:"pending"`
	ISOCurrencyCode *string  `json:"iso_currency_code"`
	TransactionType *string  `json:"transaction_type"`
	Website         *string  `json:"website"`
}

// ParseDate returns the transaction date as a time.Time.
func (t *Transaction) ParseDate() (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.Date, err)
	}
	return parsed, nil
}

// ParseAuthorizedDate returns the authorized date, or nil when absent.
func (t *Transaction) ParseAuthorizedDate() (*time.Time, error) {
	if t.AuthorizedDate == nil || *t.AuthorizedDate == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *t.AuthorizedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse authorized_date '%s': %w", *t.AuthorizedDate, err)
	}
	return &parsed, nil
}

// ExchangeResult holds the durable credential returned for a one-time
// public token.
type ExchangeResult struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type linkTokenRequest struct {
	ClientID     string            `json:"client_id"`
	Secret       string            `json:"secret"`
	ClientName   string            `json:"client_name"`
	User         map[string]string `json:"user"`
	Products     []string          `json:"products"`
	CountryCodes []string          `json:"country_codes"`
	Language     string            `json:"language"`
}

type linkTokenResponse struct {
	LinkToken string `json:"link_token"`
	apiError
}

// CreateLinkToken issues a short-lived link token for the given end user.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	req := linkTokenRequest{
		ClientID:     c.clientID,
		Secret:       c.secret,
		ClientName:   "AstraWise",
		User:         map[string]string{"client_user_id": clientUserID},
		Products:     []string{"auth", "transactions", "identity"},
		CountryCodes: []string{"US", "CA"},
		Language:     "en",
	}

	var resp linkTokenResponse
	if err := c.post(ctx, linkTokenPath, req, &resp); err != nil {
		return "", err
	}
	if resp.LinkToken == "" {
		return "", fmt.Errorf("provider returned no link token (%s: %s)", resp.ErrorCode, resp.ErrorMessage)
	}
	return resp.LinkToken, nil
}

type exchangeRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	ExchangeResult
	apiError
}

// ExchangePublicToken exchanges a one-time public token for a durable
// access credential and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResult, error) {
	req := exchangeRequest{ClientID: c.clientID, Secret: c.secret, PublicToken: publicToken}

	var resp exchangeResponse
	if err := c.post(ctx, exchangePath, req, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.ItemID == "" {
		return nil, fmt.Errorf("provider returned no credential (%s: %s)", resp.ErrorCode, resp.ErrorMessage)
	}
	return &resp.ExchangeResult, nil
}

type accountsRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
	apiError
}

// GetAccounts pulls the current account snapshots for a stored credential.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]Account, error) {
	req := accountsRequest{ClientID: c.clientID, Secret: c.secret, AccessToken: accessToken}

	var resp accountsResponse
	if err := c.post(ctx, accountsPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

type transactionsOptions struct {
	Count int `json:"count"`
}

type transactionsRequest struct {
	ClientID    string              `json:"client_id"`
	Secret      string              `json:"secret"`
	AccessToken string              `json:"access_token"`
	StartDate   string              `json:"start_date"`
	EndDate     string              `json:"end_date"`
	Options     transactionsOptions `json:"options"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	apiError
}

// GetTransactions pulls transaction snapshots between start and end for a
// stored credential, limited to count rows.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count int) ([]Transaction, error) {
	req := transactionsRequest{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		Options:     transactionsOptions{Count: count},
	}

	var resp transactionsResponse
	if err := c.post(ctx, transactionsPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Transactions, nil
}

// post sends a JSON request to the given path and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.ErrorCode != "" {
			return fmt.Errorf("provider error %s (%s): %s", apiErr.ErrorCode, apiErr.ErrorType, apiErr.ErrorMessage)
		}
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

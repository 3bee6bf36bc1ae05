package services

import (
	"context"
	"time"

	"astrawise/internal/models"
	"astrawise/internal/pagination"
	"astrawise/internal/plaid"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(fullname, email, password string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
}

// SessionServicer defines the contract for session management. Validate
// fails closed: a missing or unknown token yields (nil, false), never an
// error.
type SessionServicer interface {
	Create(userID string) (string, error)
	Validate(token string) (*models.User, bool)
}

// AggregationClient is the aggregation provider contract used by the link
// and sync services. Implemented by plaid.Client.
type AggregationClient interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error)
	GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count int) ([]plaid.Transaction, error)
}

// LinkServicer defines the contract for institution linking.
type LinkServicer interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, userID, publicToken string) error
	GetItemByUserID(userID string) (*models.PlaidItem, error)
}

// SyncServicer defines the contract for pulling provider snapshots into
// the store and enriching the vector index.
type SyncServicer interface {
	SyncAccounts(ctx context.Context, userID string) error
	SyncTransactions(ctx context.Context, userID string) error
}

// AccountServicer defines the contract for reading synced financial data.
type AccountServicer interface {
	HasAccount(userID string) (bool, error)
	GetUserAccounts(userID string) ([]models.Account, error)
	GetUserTransactions(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
}

// ChatWithMessages is a conversation thread with its ordered messages.
type ChatWithMessages struct {
	ID        string               `json:"id"`
	ChatID    string               `json:"chatId"`
	Title     string               `json:"title"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
	Messages  []models.ChatMessage `json:"messages"`
}

// ChatServicer defines the contract for conversation storage.
type ChatServicer interface {
	CreateChat(userID string) (*models.ChatTitle, error)
	FetchChats(userID string) ([]ChatWithMessages, error)
	DeleteChat(userID, chatID string) error
	GetChatByID(userID, chatID string) (*models.ChatTitle, error)
	AppendMessage(userID, chatID string, sender models.ChatSender, text string) (*models.ChatMessage, error)
	ListMessages(userID, chatID string) ([]models.ChatMessage, error)
}

// AssistantServicer defines the contract for the chat query pipeline.
type AssistantServicer interface {
	HandleQuery(ctx context.Context, userID, chatID, query string) (string, error)
}

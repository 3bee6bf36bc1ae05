package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"astrawise/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Fullname: fmt.Sprintf("Test User %d", nextID()),
		Email:    email,
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestSession creates a session with a unique token for the user.
func CreateTestSession(t *testing.T, db *gorm.DB, userID string) *models.Session {
	t.Helper()

	session := &models.Session{
		UserID: userID,
		Token:  fmt.Sprintf("testtoken%064d", nextID()),
	}
	if err := db.Create(session).Error; err != nil {
		t.Fatalf("failed to create test session: %v", err)
	}
	return session
}

// CreateTestPlaidItem creates a linked institution item for the user.
func CreateTestPlaidItem(t *testing.T, db *gorm.DB, userID string) *models.PlaidItem {
	t.Helper()

	n := nextID()
	item := &models.PlaidItem{
		ItemID:      fmt.Sprintf("item-test-%d", n),
		AccessToken: fmt.Sprintf("access-test-%d", n),
		UserID:      userID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test plaid item: %v", err)
	}
	return item
}

// CreateTestAccount creates a synced account with the given balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, balance float64) *models.Account {
	t.Helper()

	n := nextID()
	currency := "USD"
	account := &models.Account{
		AccountID:       fmt.Sprintf("acc-test-%d", n),
		UserID:          userID,
		Name:            fmt.Sprintf("Test Account %d", n),
		Type:            "depository",
		Subtype:         "checking",
		ISOCurrencyCode: &currency,
		CurrentBalance:  balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a synced transaction with the given amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, amount float64) *models.Transaction {
	t.Helper()

	n := nextID()
	merchant := fmt.Sprintf("Test Merchant %d", n)
	tx := &models.Transaction{
		TransactionID: fmt.Sprintf("txn-test-%d", n),
		AccountID:     accountID,
		UserID:        userID,
		Amount:        amount,
		Date:          time.Now().AddDate(0, 0, -int(n%30)),
		MerchantName:  &merchant,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestChat creates an empty conversation thread for the user.
func CreateTestChat(t *testing.T, db *gorm.DB, userID string) *models.ChatTitle {
	t.Helper()

	chat := &models.ChatTitle{
		ChatID: fmt.Sprintf("00000000-0000-0000-0000-%012d", nextID()),
		Title:  "New Chat",
		UserID: userID,
	}
	if err := db.Create(chat).Error; err != nil {
		t.Fatalf("failed to create test chat: %v", err)
	}
	return chat
}

// CreateTestChatMessage appends one message to a thread.
func CreateTestChatMessage(t *testing.T, db *gorm.DB, userID, chatID string, sender models.ChatSender, text string) *models.ChatMessage {
	t.Helper()

	message := &models.ChatMessage{
		ChatID:    chatID,
		UserID:    userID,
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now().Add(time.Duration(nextID()) * time.Millisecond),
	}
	if err := db.Create(message).Error; err != nil {
		t.Fatalf("failed to create test chat message: %v", err)
	}
	return message
}

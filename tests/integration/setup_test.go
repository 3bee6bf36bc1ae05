// Package integration exercises the full HTTP stack: router, middleware,
// handlers, and services backed by an in-memory database, with the
// external aggregation, completion, and vector providers stubbed out.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"astrawise/internal/handlers"
	"astrawise/internal/llm"
	"astrawise/internal/logger"
	"astrawise/internal/middleware"
	"astrawise/internal/models"
	"astrawise/internal/plaid"
	"astrawise/internal/services"
	"astrawise/internal/validator"
	"astrawise/internal/vector"
)

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// stubAggregator is a scripted aggregation provider. The defaults model a
// user with one linked item, two accounts, and a handful of transactions.
type stubAggregator struct {
	accounts     []plaid.Account
	transactions []plaid.Transaction
}

func (s *stubAggregator) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	return "link-sandbox-" + clientUserID, nil
}

func (s *stubAggregator) ExchangePublicToken(ctx context.Context, publicToken string) (*plaid.ExchangeResult, error) {
	return &plaid.ExchangeResult{
		AccessToken: "access-sandbox-" + publicToken,
		ItemID:      "item-" + publicToken,
	}, nil
}

func (s *stubAggregator) GetAccounts(ctx context.Context, accessToken string) ([]plaid.Account, error) {
	return s.accounts, nil
}

func (s *stubAggregator) GetTransactions(ctx context.Context, accessToken string, start, end time.Time, count int) ([]plaid.Transaction, error) {
	return s.transactions, nil
}

var _ services.AggregationClient = (*stubAggregator)(nil)

func sampleAggregator() *stubAggregator {
	available := 1200.50
	current := 1250.50
	currency := "USD"
	subtype := "checking"
	merchant := "Blue Bottle Coffee"

	return &stubAggregator{
		accounts: []plaid.Account{
			{
				AccountID: "acc-checking",
				Name:      "Everyday Checking",
				Type:      "depository",
				Subtype:   &subtype,
				Balances:  plaid.Balances{Available: &available, Current: &current, ISOCurrencyCode: &currency},
			},
			{
				AccountID: "acc-savings",
				Name:      "Rainy Day Savings",
				Type:      "depository",
				Balances:  plaid.Balances{Current: &current, ISOCurrencyCode: &currency},
			},
		},
		transactions: []plaid.Transaction{
			{
				TransactionID: "txn-1",
				AccountID:     "acc-checking",
				Amount:        4.50,
				Date:          time.Now().AddDate(0, 0, -2).Format("2006-01-02"),
				Category:      []string{"Food and Drink", "Coffee"},
				MerchantName:  &merchant,
			},
			{
				TransactionID: "txn-2",
				AccountID:     "acc-checking",
				Amount:        62.10,
				Date:          time.Now().AddDate(0, 0, -10).Format("2006-01-02"),
				Category:      []string{"Shops"},
			},
			{
				TransactionID: "txn-3",
				AccountID:     "acc-savings",
				Amount:        -500.00,
				Date:          time.Now().AddDate(0, 0, -15).Format("2006-01-02"),
				Category:      []string{"Transfer"},
			},
		},
	}
}

// stubProvider is a scripted completion provider. Responses are routed by
// the system instruction so each pipeline stage gets a sensible default;
// tests override category to steer classification.
type stubProvider struct {
	mu       sync.Mutex
	category string
	calls    []llm.CompletionRequest
}

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	category := s.category
	s.mu.Unlock()

	system := req.System
	switch {
	case strings.Contains(system, "query classifier"):
		if category == "" {
			category = "GREETING"
		}
		return category, nil
	case strings.Contains(system, "friendly greeting"):
		return "Hello! How can I help with your finances today? 👋", nil
	case strings.Contains(system, "general finance-related"):
		return "Compound interest grows your savings over time. 📈", nil
	case strings.Contains(system, "numbered list of questions"):
		return "NONE", nil
	case strings.Contains(system, "Rewrite the user's"):
		return "How much did the user spend on coffee this month?", nil
	case strings.Contains(system, "YES or NO"):
		return "NO", nil
	case strings.Contains(system, "general factual context"):
		return "A coffee typically costs between $3 and $6.", nil
	case strings.Contains(system, "retrieval plan"):
		return `{"entity":"transactions","filters":{"category":"Food and Drink"},"aggregate":"sum","limit":50}`, nil
	default:
		return "You spent $4.50 on coffee this month. ☕", nil
	}
}

func (s *stubProvider) Embed(ctx context.Context, input string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

var _ llm.CompletionProvider = (*stubProvider)(nil)

// stubIndex records vector upserts per namespace.
type stubIndex struct {
	mu       sync.Mutex
	upserted map[string]int
}

func (s *stubIndex) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upserted == nil {
		s.upserted = make(map[string]int)
	}
	s.upserted[namespace] += len(vectors)
	return nil
}

func (s *stubIndex) count(namespace string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserted[namespace]
}

var _ vector.Upserter = (*stubIndex)(nil)

type testApp struct {
	DB         *gorm.DB
	Router     *gin.Engine
	Aggregator *stubAggregator
	Provider   *stubProvider
	Index      *stubIndex
}

// setupApp creates a full application stack backed by an isolated
// in-memory SQLite database, mirroring the route layout of the server.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.PlaidItem{},
		&models.Account{},
		&models.Transaction{},
		&models.ChatTitle{},
		&models.ChatMessage{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	aggregator := sampleAggregator()
	provider := &stubProvider{}
	index := &stubIndex{}

	userService := services.NewUserService(db)
	sessionService := services.NewSessionService(db)
	linkService := services.NewLinkService(db, aggregator)
	syncService := services.NewSyncService(db, linkService, aggregator, provider, index)
	accountService := services.NewAccountService(db)
	chatService := services.NewChatService(db)
	assistantService := services.NewAssistantService(db, provider, chatService)

	authHandler := handlers.NewAuthHandler(userService, sessionService)
	plaidHandler := handlers.NewPlaidHandler(linkService, syncService)
	userHandler := handlers.NewUserHandler(accountService)
	chatHandler := handlers.NewChatHandler(chatService, assistantService)

	router := gin.New()
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/validate", authHandler.Validate)

	protected := api.Group("/")
	protected.Use(middleware.SessionAuth(sessionService))

	plaidRoutes := protected.Group("/plaid")
	plaidRoutes.POST("/create-link-token", plaidHandler.CreateLinkToken)
	plaidRoutes.POST("/exchange-token", plaidHandler.ExchangeToken)
	plaidRoutes.POST("/fetch-accounts", plaidHandler.FetchAccounts)
	plaidRoutes.POST("/fetch-transactions", plaidHandler.FetchTransactions)

	user := protected.Group("/user")
	user.GET("/has-account", userHandler.HasAccount)
	user.GET("/get-accounts", userHandler.GetAccounts)
	user.GET("/get-transactions", userHandler.GetTransactions)

	astrabot := protected.Group("/astrabot")
	astrabot.POST("/create-new-chat", chatHandler.CreateNewChat)
	astrabot.GET("/fetch-chats", chatHandler.FetchChats)
	astrabot.DELETE("/delete-chat", chatHandler.DeleteChat)
	astrabot.POST("/chat", chatHandler.Chat)

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return &testApp{
		DB:         db,
		Router:     router,
		Aggregator: aggregator,
		Provider:   provider,
		Index:      index,
	}
}

// request performs an HTTP request against the test router. A non-empty
// token is attached as the session cookie.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "sessionToken", Value: token})
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body %q: %v", rec.Body.String(), err)
	}
	return result
}

// sessionCookie extracts the session token issued in the response.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "sessionToken" {
			return cookie.Value
		}
	}
	t.Fatal("expected a sessionToken cookie in the response")
	return ""
}

// signupUser registers a user and returns their session token.
func signupUser(t *testing.T, app *testApp, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"fullname":"Test User","email":%q,"password":"password123"}`, email)
	rec := app.request("POST", "/api/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed with %d: %s", rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

// loginUser logs an existing user in and returns the new session token.
func loginUser(t *testing.T, app *testApp, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
	rec := app.request("POST", "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed with %d: %s", rec.Code, rec.Body.String())
	}
	return sessionCookie(t, rec)
}

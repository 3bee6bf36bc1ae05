package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/logger"
	"astrawise/internal/models"
	"astrawise/internal/plaid"
	"astrawise/internal/vector"
)

const (
	// transactionLookbackDays is how far back each transaction sync reaches.
	transactionLookbackDays = 730
	// transactionFetchCount caps rows per provider pull.
	transactionFetchCount = 100
	// embedConcurrency bounds parallel embedding calls per sync batch.
	embedConcurrency = 8

	accountsNamespace     = "accounts"
	transactionsNamespace = "transactions"
)

// Embedder computes one embedding per record description.
type Embedder interface {
	Embed(ctx context.Context, input string) ([]float32, error)
}

// syncService pulls provider snapshots into the store and enriches the
// vector index. Each sync batch is one atomic upsert; the vector write is
// best-effort enrichment performed after commit.
type syncService struct {
	db       *gorm.DB
	links    LinkServicer
	client   AggregationClient
	embedder Embedder
	index    vector.Upserter
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(db *gorm.DB, links LinkServicer, client AggregationClient, embedder Embedder, index vector.Upserter) SyncServicer {
	return &syncService{db: db, links: links, client: client, embedder: embedder, index: index}
}

// SyncAccounts pulls current account snapshots for the user's linked item,
// upserts them in one batch, and embeds each record into the index.
func (s *syncService) SyncAccounts(ctx context.Context, userID string) error {
	item, err := s.links.GetItemByUserID(userID)
	if err != nil {
		return err
	}

	accounts, err := s.client.GetAccounts(ctx, item.AccessToken)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}
	if len(accounts) == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "No accounts found at provider")
	}

	rows := make([]models.Account, 0, len(accounts))
	for _, acct := range accounts {
		rows = append(rows, toAccountModel(acct, userID, item.ID))
	}

	// Atomic batch: either the whole snapshot lands or none of it does.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "account_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "official_name", "type", "subtype", "mask",
				"iso_currency_code", "available_balance", "current_balance",
				"persistent_acc_id", "user_id", "plaid_item_id", "updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	s.embedAndIndex(ctx, accountsNamespace, accountVectors(accounts, userID, item.ItemID))
	return nil
}

// SyncTransactions pulls transaction snapshots for the user's linked item,
// upserts them in one batch, and embeds each record into the index.
func (s *syncService) SyncTransactions(ctx context.Context, userID string) error {
	item, err := s.links.GetItemByUserID(userID)
	if err != nil {
		return err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -transactionLookbackDays)

	transactions, err := s.client.GetTransactions(ctx, item.AccessToken, start, end, transactionFetchCount)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}
	if len(transactions) == 0 {
		return apperrors.WithMessage(apperrors.ErrNotFound, "No transactions found at provider")
	}

	rows := make([]models.Transaction, 0, len(transactions))
	for _, txn := range transactions {
		row, err := toTransactionModel(txn, userID, item.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrSyncFailed, err)
		}
		rows = append(rows, row)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"account_id", "amount", "date", "authorized_date", "category",
				"sub_category", "merchant_name", "merchant_logo_url",
				"payment_channel", "pending", "currency_code",
				"transaction_type", "website", "user_id", "plaid_item_id",
				"updated_at",
			}),
		}).Create(&rows).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	s.embedAndIndex(ctx, transactionsNamespace, transactionVectors(transactions, userID, item.ItemID))
	return nil
}

// pendingVector pairs a record's description with its index payload before
// the embedding is computed.
type pendingVector struct {
	description string
	vec         vector.Vector
}

// embedAndIndex computes embeddings concurrently and upserts the batch.
// The sync is already committed at this point, so index failures are
// logged per record and skipped; records that do embed are still upserted,
// and each record gets exactly one attempt.
func (s *syncService) embedAndIndex(ctx context.Context, namespace string, pending []pendingVector) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	slots := make([]vector.Vector, len(pending))
	for i := range pending {
		i := i
		g.Go(func() error {
			values, err := s.embedder.Embed(gctx, pending[i].description)
			if err != nil {
				logger.Get().Warnw("embedding failed",
					"namespace", namespace, "id", pending[i].vec.ID, "error", err.Error())
				return nil
			}
			slots[i] = pending[i].vec
			slots[i].Values = values
			return nil
		})
	}
	_ = g.Wait()

	vectors := make([]vector.Vector, 0, len(slots))
	for _, v := range slots {
		if v.Values != nil {
			vectors = append(vectors, v)
		}
	}
	if len(vectors) == 0 {
		return
	}

	if err := s.index.Upsert(ctx, namespace, vectors); err != nil {
		logger.Get().Warnw("vector upsert failed", "namespace", namespace, "error", err.Error())
	}
}

func toAccountModel(acct plaid.Account, userID, plaidItemID string) models.Account {
	subtype := ""
	if acct.Subtype != nil {
		subtype = *acct.Subtype
	}
	return models.Account{
		AccountID:        acct.AccountID,
		UserID:           userID,
		PlaidItemID:      plaidItemID,
		Name:             defaultString(acct.Name, "Unnamed Account"),
		OfficialName:     acct.OfficialName,
		Type:             acct.Type,
		Subtype:          subtype,
		Mask:             acct.Mask,
		ISOCurrencyCode:  acct.Balances.ISOCurrencyCode,
		AvailableBalance: derefFloat(acct.Balances.Available),
		CurrentBalance:   derefFloat(acct.Balances.Current),
		PersistentAccID:  acct.PersistentAccID,
	}
}

func toTransactionModel(txn plaid.Transaction, userID, plaidItemID string) (models.Transaction, error) {
	date, err := txn.ParseDate()
	if err != nil {
		return models.Transaction{}, err
	}
	authorized, err := txn.ParseAuthorizedDate()
	if err != nil {
		return models.Transaction{}, err
	}

	var category, subCategory *string
	if len(txn.Category) > 0 {
		category = &txn.Category[0]
	}
	if len(txn.Category) > 1 {
		subCategory = &txn.Category[1]
	}

	return models.Transaction{
		TransactionID:   txn.TransactionID,
		AccountID:       txn.AccountID,
		UserID:          userID,
		PlaidItemID:     plaidItemID,
		Amount:          txn.Amount,
		Date:            date,
		AuthorizedDate:  authorized,
		Category:        category,
		SubCategory:     subCategory,
		MerchantName:    txn.MerchantName,
		MerchantLogoURL: txn.LogoURL,
		PaymentChannel:  txn.PaymentChannel,
		Pending:         txn.Pending,
		CurrencyCode:    txn.ISOCurrencyCode,
		TransactionType: txn.TransactionType,
		Website:         txn.Website,
	}, nil
}

// accountVectors builds the per-account index payloads. The description
// text is what gets embedded; the metadata mirrors the stored snapshot.
func accountVectors(accounts []plaid.Account, userID, itemID string) []pendingVector {
	pending := make([]pendingVector, 0, len(accounts))
	for _, acct := range accounts {
		desc := fmt.Sprintf(
			"Account Name: %s\nOfficial Name: %s\nType: %s\nSubtype: %s\nCurrent Balance: %.2f %s\nAvailable Balance: %.2f\nMask: %s\nUser ID: %s\nAccount ID: %s",
			acct.Name, derefString(acct.OfficialName), acct.Type, derefString(acct.Subtype),
			derefFloat(acct.Balances.Current), derefString(acct.Balances.ISOCurrencyCode),
			derefFloat(acct.Balances.Available), derefString(acct.Mask), userID, acct.AccountID,
		)
		pending = append(pending, pendingVector{
			description: desc,
			vec: vector.Vector{
				ID: acct.AccountID,
				Metadata: map[string]interface{}{
					"accountId":        acct.AccountID,
					"name":             acct.Name,
					"type":             acct.Type,
					"subtype":          derefString(acct.Subtype),
					"currentBalance":   derefFloat(acct.Balances.Current),
					"availableBalance": derefFloat(acct.Balances.Available),
					"userId":           userID,
					"plaidItemId":      itemID,
				},
			},
		})
	}
	return pending
}

// transactionVectors builds the per-transaction index payloads.
func transactionVectors(transactions []plaid.Transaction, userID, itemID string) []pendingVector {
	pending := make([]pendingVector, 0, len(transactions))
	for _, txn := range transactions {
		var category string
		if len(txn.Category) > 0 {
			category = txn.Category[0]
		}
		desc := fmt.Sprintf(
			"Transaction ID: %s\nUser ID: %s\nAccount ID: %s\nAmount: %.2f %s\nDate: %s\nCategory: %s\nMerchant Name: %s\nPayment Channel: %s\nPending: %t",
			txn.TransactionID, userID, txn.AccountID, txn.Amount,
			derefString(txn.ISOCurrencyCode), txn.Date, category,
			derefString(txn.MerchantName), derefString(txn.PaymentChannel), txn.Pending,
		)
		pending = append(pending, pendingVector{
			description: desc,
			vec: vector.Vector{
				ID: txn.TransactionID,
				Metadata: map[string]interface{}{
					"transactionId": txn.TransactionID,
					"accountId":     txn.AccountID,
					"userId":        userID,
					"amount":        txn.Amount,
					"date":          txn.Date,
					"category":      category,
					"merchantName":  derefString(txn.MerchantName),
					"pending":       txn.Pending,
					"plaidItemId":   itemID,
				},
			},
		})
	}
	return pending
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

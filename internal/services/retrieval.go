package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"astrawise/internal/models"
)

// The personalized flow asks the completion provider for a retrieval plan
// rather than raw SQL: the plan is a constrained JSON intent that is
// validated here and compiled into parameterized queries always scoped to
// the authenticated user. The provider's text never reaches the database.

const (
	planEntityAccounts     = "accounts"
	planEntityTransactions = "transactions"

	defaultPlanLimit = 50
	maxPlanLimit     = 200
)

// planFilters are the only predicates a retrieval plan may express.
type planFilters struct {
	DateFrom  string   `json:"date_from,omitempty"`
	DateTo    string   `json:"date_to,omitempty"`
	Merchant  string   `json:"merchant,omitempty"`
	Category  string   `json:"category,omitempty"`
	Pending   *bool    `json:"pending,omitempty"`
	MinAmount *float64 `json:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
}

// retrievalPlan is the constrained intent schema the plan prompt asks for.
type retrievalPlan struct {
	Entity    string      `json:"entity"`
	Filters   planFilters `json:"filters"`
	Aggregate string      `json:"aggregate,omitempty"` // "", "sum", "count", "avg"
	Limit     int         `json:"limit,omitempty"`
}

// schemaSummary describes the retrievable schema for the plan prompt. It
// is built once at startup and passed into the assistant explicitly.
func schemaSummary() string {
	return strings.TrimSpace(`
Retrievable entities and their fields:

accounts:
  name, official_name, type, subtype, mask, iso_currency_code,
  available_balance, current_balance

transactions:
  amount, date, authorized_date, category, sub_category, merchant_name,
  payment_channel, pending, currency_code, transaction_type

Plan JSON schema:
  {"entity": "accounts" | "transactions",
   "filters": {"date_from": "YYYY-MM-DD", "date_to": "YYYY-MM-DD",
               "merchant": string, "category": string, "pending": bool,
               "min_amount": number, "max_amount": number},
   "aggregate": "" | "sum" | "count" | "avg",
   "limit": number}

Only transactions support date/merchant/category/pending/amount filters
and aggregates. Omit filters that do not apply.`)
}

// stripCodeFences removes markdown code-fence markers around a completion
// response, including an optional language tag.
func stripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "sql", ...).
		first := strings.TrimSpace(trimmed[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// parseRetrievalPlan validates a completion response into a plan.
func parseRetrievalPlan(raw string) (*retrievalPlan, error) {
	cleaned := stripCodeFences(raw)

	var plan retrievalPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("plan is not valid JSON: %w", err)
	}

	plan.Entity = strings.ToLower(strings.TrimSpace(plan.Entity))
	if plan.Entity != planEntityAccounts && plan.Entity != planEntityTransactions {
		return nil, fmt.Errorf("plan entity %q is not retrievable", plan.Entity)
	}

	plan.Aggregate = strings.ToLower(strings.TrimSpace(plan.Aggregate))
	switch plan.Aggregate {
	case "", "sum", "count", "avg":
	default:
		return nil, fmt.Errorf("plan aggregate %q is not supported", plan.Aggregate)
	}
	if plan.Aggregate != "" && plan.Entity != planEntityTransactions {
		return nil, fmt.Errorf("aggregates only apply to transactions")
	}

	for _, dateStr := range []string{plan.Filters.DateFrom, plan.Filters.DateTo} {
		if dateStr == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			return nil, fmt.Errorf("plan date %q is not YYYY-MM-DD", dateStr)
		}
	}

	if plan.Limit <= 0 {
		plan.Limit = defaultPlanLimit
	}
	if plan.Limit > maxPlanLimit {
		plan.Limit = maxPlanLimit
	}

	return &plan, nil
}

// executeRetrievalPlan compiles the plan into parameterized queries scoped
// to the user and returns the result serialized as JSON for the synthesis
// prompt.
func executeRetrievalPlan(db *gorm.DB, userID string, plan *retrievalPlan) (string, error) {
	if plan.Entity == planEntityAccounts {
		var accounts []models.Account
		if err := db.Where("user_id = ?", userID).Limit(plan.Limit).Find(&accounts).Error; err != nil {
			return "", err
		}
		return marshalRows(accounts)
	}

	query := db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	f := plan.Filters
	if f.DateFrom != "" {
		query = query.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		query = query.Where("date <= ?", f.DateTo)
	}
	if f.Merchant != "" {
		query = query.Where("merchant_name LIKE ?", "%"+f.Merchant+"%")
	}
	if f.Category != "" {
		query = query.Where("category LIKE ? OR sub_category LIKE ?", "%"+f.Category+"%", "%"+f.Category+"%")
	}
	if f.Pending != nil {
		query = query.Where("pending = ?", *f.Pending)
	}
	if f.MinAmount != nil {
		query = query.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		query = query.Where("amount <= ?", *f.MaxAmount)
	}

	if plan.Aggregate != "" {
		var result struct {
			Value float64 `json:"value"`
			Count int64   `json:"count"`
		}
		switch plan.Aggregate {
		case "count":
			if err := query.Count(&result.Count).Error; err != nil {
				return "", err
			}
		case "sum":
			if err := query.Select("COALESCE(SUM(amount), 0) AS value").Scan(&result.Value).Error; err != nil {
				return "", err
			}
		case "avg":
			if err := query.Select("COALESCE(AVG(amount), 0) AS value").Scan(&result.Value).Error; err != nil {
				return "", err
			}
		}
		payload, err := json.Marshal(map[string]interface{}{
			"aggregate": plan.Aggregate,
			"value":     result.Value,
			"count":     result.Count,
		})
		if err != nil {
			return "", err
		}
		return string(payload), nil
	}

	var transactions []models.Transaction
	if err := query.Order("date desc").Limit(plan.Limit).Find(&transactions).Error; err != nil {
		return "", err
	}
	return marshalRows(transactions)
}

func marshalRows(rows interface{}) (string, error) {
	payload, err := json.Marshal(rows)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

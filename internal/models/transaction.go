package models

import "time"

// Transaction is a financial transaction snapshot tied to an account and
// user, keyed by the provider transaction id. Settled rows are immutable
// in practice; pending rows may be updated in place on resync.
type Transaction struct {
	Base
	TransactionID   string     `gorm:"uniqueIndex;not null" json:"transactionId"`
	AccountID       string     `gorm:"index;not null" json:"accountId"`
	UserID          string     `gorm:"type:uuid;index;not null" json:"userId"`
	PlaidItemID     string     `gorm:"type:uuid;index" json:"plaidItemId"`
	Amount          float64    `gorm:"not null" json:"amount"`
	Date            time.Time  `gorm:"not null;index" json:"date"`
	AuthorizedDate  *time.Time `json:"authorizedDate,omitempty"`
	Category        *string    `json:"category,omitempty"`
	SubCategory     *string    `json:"subCategory,omitempty"`
	MerchantName    *string    `json:"merchantName,omitempty"`
	MerchantLogoURL *string    `json:"merchantLogoUrl,omitempty"`
	PaymentChannel  *string    `json:"paymentChannel,omitempty"`
	Pending         bool       `gorm:"default:false" json:"pending"`
	CurrencyCode    *string    `json:"currencyCode,omitempty"`
	TransactionType *string    `json:"transactionType,omitempty"`
	Website         *string    `json:"website,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

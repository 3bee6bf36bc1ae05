package models

// Account is a linked bank account snapshot, keyed by the aggregation
// provider's account id and refreshed by upsert on every sync.
type Account struct {
	Base
	AccountID        string  `gorm:"uniqueIndex;not null" json:"accountId"`
	UserID           string  `gorm:"type:uuid;index;not null" json:"userId"`
	PlaidItemID      string  `gorm:"type:uuid;index" json:"plaidItemId"`
	Name             string  `gorm:"not null" json:"name"`
	OfficialName     *string `json:"officialName,omitempty"`
	Type             string  `json:"type"`
	Subtype          string  `json:"subtype"`
	Mask             *string `json:"mask,omitempty"`
	ISOCurrencyCode  *string `json:"isoCurrencyCode,omitempty"`
	AvailableBalance float64 `json:"availableBalance"`
	CurrentBalance   float64 `json:"currentBalance"`
	PersistentAccID  string  `json:"persistentAccId"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

package models

// PlaidItem stores the long-lived access credential for a linked
// institution. One item per user in practice.
type PlaidItem struct {
	Base
	ItemID      string `gorm:"uniqueIndex;not null" json:"itemId"`
	AccessToken string `gorm:"not null" json:"-"`
	UserID      string `gorm:"type:uuid;index;not null" json:"userId"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

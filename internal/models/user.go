package models

// User represents the user model in the database
type User struct {
	Base
	Fullname string `gorm:"not null" json:"fullname"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	Sessions     []Session     `gorm:"foreignKey:UserID" json:"-"`
	Accounts     []Account     `gorm:"foreignKey:UserID" json:"accounts,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
	ChatTitles   []ChatTitle   `gorm:"foreignKey:UserID" json:"-"`
}

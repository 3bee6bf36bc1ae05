package models

// Session maps an opaque bearer token to a user. A user has at most one
// active session: login upserts the token on the existing row.
type Session struct {
	Base
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"userId"`
	Token  string `gorm:"uniqueIndex;not null" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

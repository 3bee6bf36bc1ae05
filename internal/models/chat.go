package models

import "time"

// ChatSender identifies the author of a chat message.
type ChatSender string

const (
	ChatSenderUser ChatSender = "user"
	ChatSenderBot  ChatSender = "bot"
)

// ChatTitle is one conversation thread.
type ChatTitle struct {
	Base
	ChatID string `gorm:"uniqueIndex;not null" json:"chatId"`
	Title  string `gorm:"not null" json:"title"`
	UserID string `gorm:"type:uuid;index;not null" json:"userId"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// ChatMessage is one turn in a conversation thread.
type ChatMessage struct {
	Base
	ChatID    string     `gorm:"index;not null" json:"chatId"`
	UserID    string     `gorm:"type:uuid;index;not null" json:"userId"`
	Sender    ChatSender `gorm:"not null" json:"sender"`
	Text      string     `gorm:"not null" json:"text"`
	Timestamp time.Time  `gorm:"not null;index" json:"timestamp"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

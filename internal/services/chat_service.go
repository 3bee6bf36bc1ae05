package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
	"astrawise/internal/uuid"
)

// chatService handles conversation thread storage.
type chatService struct {
	db *gorm.DB
}

// NewChatService creates a new ChatServicer.
func NewChatService(db *gorm.DB) ChatServicer {
	return &chatService{db: db}
}

// CreateChat creates a new conversation thread for the user.
func (s *chatService) CreateChat(userID string) (*models.ChatTitle, error) {
	chat := &models.ChatTitle{
		ChatID: uuid.New(),
		Title:  "New Chat",
		UserID: userID,
	}
	if err := s.db.Create(chat).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return chat, nil
}

// FetchChats retrieves all of the user's threads, each with its messages
// ordered oldest to newest.
func (s *chatService) FetchChats(userID string) ([]ChatWithMessages, error) {
	var titles []models.ChatTitle
	if err := s.db.Where("user_id = ?", userID).Order("created_at asc").Find(&titles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	chats := make([]ChatWithMessages, 0, len(titles))
	for _, title := range titles {
		var messages []models.ChatMessage
		if err := s.db.Where("chat_id = ? AND user_id = ?", title.ChatID, userID).
			Order("timestamp asc").Find(&messages).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		chats = append(chats, ChatWithMessages{
			ID:        title.ID,
			ChatID:    title.ChatID,
			Title:     title.Title,
			CreatedAt: title.CreatedAt,
			UpdatedAt: title.UpdatedAt,
			Messages:  messages,
		})
	}
	return chats, nil
}

// GetChatByID retrieves a thread, enforcing ownership.
func (s *chatService) GetChatByID(userID, chatID string) (*models.ChatTitle, error) {
	var chat models.ChatTitle
	if err := s.db.Where("chat_id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if chat.UserID != userID {
		return nil, apperrors.ErrChatNotFound
	}
	return &chat, nil
}

// DeleteChat removes a thread and all of its messages in one transaction.
func (s *chatService) DeleteChat(userID, chatID string) error {
	chat, err := s.GetChatByID(userID, chatID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(chat).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AppendMessage persists one turn in a thread.
func (s *chatService) AppendMessage(userID, chatID string, sender models.ChatSender, text string) (*models.ChatMessage, error) {
	message := &models.ChatMessage{
		ChatID:    chatID,
		UserID:    userID,
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
	if err := s.db.Create(message).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return message, nil
}

// ListMessages retrieves all messages in a thread, oldest first.
func (s *chatService) ListMessages(userID, chatID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Order("timestamp asc").Find(&messages).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return messages, nil
}

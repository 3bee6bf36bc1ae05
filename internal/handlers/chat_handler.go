package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/services"
)

// ChatHandler handles conversation threads and the assistant pipeline.
type ChatHandler struct {
	chatService      services.ChatServicer
	assistantService services.AssistantServicer
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService services.ChatServicer, assistantService services.AssistantServicer) *ChatHandler {
	return &ChatHandler{chatService: chatService, assistantService: assistantService}
}

// DeleteChatRequest identifies the thread to delete
type DeleteChatRequest struct {
	ChatID string `json:"chatId" binding:"required,chat_id"`
}

// ChatRequest represents one user turn in a thread
type ChatRequest struct {
	ChatID string `json:"chatId" binding:"required,chat_id"`
	Query  string `json:"query" binding:"required,max=2000"`
}

// NewChatResponse represents a freshly created thread
type NewChatResponse struct {
	ChatID string `json:"chatId"`
	Title  string `json:"title"`
}

// ChatsResponse lists the user's threads with their messages
type ChatsResponse struct {
	Chats []services.ChatWithMessages `json:"chats"`
}

// ChatResponse carries the assistant's reply
type ChatResponse struct {
	Response string `json:"response"`
}

// CreateNewChat starts a new conversation thread
// @Summary     Create a conversation thread
// @Description Create an empty conversation thread for the user
// @Tags        astrabot
// @Produce     json
// @Success     201 {object} NewChatResponse "Thread created"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /astrabot/create-new-chat [post]
func (h *ChatHandler) CreateNewChat(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chat, err := h.chatService.CreateChat(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"chatId": chat.ChatID,
		"title":  chat.Title,
	})
}

// FetchChats lists the user's threads with their messages
// @Summary     List conversation threads
// @Description Retrieve all of the user's threads with messages in order
// @Tags        astrabot
// @Produce     json
// @Success     200 {object} ChatsResponse "Threads with messages"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /astrabot/fetch-chats [get]
func (h *ChatHandler) FetchChats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	chats, err := h.chatService.FetchChats(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// DeleteChat removes a thread and its messages
// @Summary     Delete a conversation thread
// @Description Delete a thread and all of its messages
// @Tags        astrabot
// @Accept      json
// @Produce     json
// @Param       request body DeleteChatRequest true "Thread to delete"
// @Success     200 {object} SuccessResponse "Thread deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Thread not found or not owned"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /astrabot/delete-chat [delete]
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DeleteChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	if err := h.chatService.DeleteChat(userID, req.ChatID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted successfully"})
}

// Chat runs one user query through the assistant pipeline
// @Summary     Send a query to the assistant
// @Description Process one user message and return the assistant's reply
// @Tags        astrabot
// @Accept      json
// @Produce     json
// @Param       request body ChatRequest true "Query and target thread"
// @Success     200 {object} ChatResponse "Assistant reply"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Thread not found or not owned"
// @Failure     500 {object} ErrorResponse "Pipeline failure"
// @Router      /astrabot/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	response, err := h.assistantService.HandleQuery(c.Request.Context(), userID, req.ChatID, req.Query)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": response})
}

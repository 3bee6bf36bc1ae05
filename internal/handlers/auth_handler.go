package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"astrawise/internal/config"
	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
	"astrawise/internal/services"
)

// AuthHandler handles signup, login, and session validation requests.
type AuthHandler struct {
	userService    services.UserServicer
	sessionService services.SessionServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, sessionService services.SessionServicer) *AuthHandler {
	return &AuthHandler{userService: userService, sessionService: sessionService}
}

// SignupRequest represents the signup request payload
type SignupRequest struct {
	Fullname string `json:"fullname" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID       string `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// AuthResponse represents a successful authentication response
type AuthResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

// ValidateResponse represents the session validation response
type ValidateResponse struct {
	Valid   bool `json:"valid"`
	Session *struct {
		User UserResponse `json:"user"`
	} `json:"session,omitempty"`
}

// setSessionCookie issues the session cookie. HttpOnly and SameSite=Strict
// keep the token out of scripts and cross-site requests.
func setSessionCookie(c *gin.Context, token string) {
	cfg := config.Get()
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cfg.SessionCookieName, token, int(cfg.SessionTTL.Seconds()), "/", "", cfg.IsProduction(), true)
}

// Signup handles user registration
// @Summary     Sign up a new user
// @Description Create a user account and issue a session cookie
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body SignupRequest true "User signup data"
// @Success     201 {object} AuthResponse "User created and session issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Fullname, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.sessionService.Create(user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	setSessionCookie(c, token)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    toUserResponse(user),
	})
}

// Login handles user login
// @Summary     Log in a user
// @Description Authenticate a user and issue a session cookie
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and session issued"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidRequest, err.Error()))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.sessionService.Create(user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	setSessionCookie(c, token)

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    toUserResponse(user),
	})
}

// Validate reports whether the caller's session cookie is valid
// @Summary     Validate the current session
// @Description Resolve the session cookie to its user, if still valid
// @Tags        auth
// @Produce     json
// @Success     200 {object} ValidateResponse "Session is valid"
// @Failure     401 {object} ValidateResponse "Session is missing or invalid"
// @Router      /auth/validate [get]
func (h *AuthHandler) Validate(c *gin.Context) {
	token, err := c.Cookie(config.Get().SessionCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	user, ok := h.sessionService.Validate(token)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"session": gin.H{
			"user": toUserResponse(user),
		},
	})
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Fullname: user.Fullname,
		Email:    user.Email,
	}
}

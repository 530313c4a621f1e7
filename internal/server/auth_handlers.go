package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rentalx-dev/rentalx/internal/auth"
	"github.com/rentalx-dev/rentalx/internal/models"
)

// SessionRequest represents a sign-in request
type SessionRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse represents a sign-in response
type SessionResponse struct {
	User  *UserDetail `json:"user"`
	Token string      `json:"token"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	DriverLicense string    `json:"driver_license"`
	Avatar        string    `json:"avatar,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateUserRequest represents a sign-up request
type CreateUserRequest struct {
	Name                 string `json:"name" binding:"required"`
	Email                string `json:"email" binding:"required,email"`
	Password             string `json:"password" binding:"required,min=6,max=72"`
	PasswordConfirmation string `json:"password_confirmation" binding:"omitempty,eqfield=Password"`
	DriverLicense        string `json:"driver_license"`
}

func newUserDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:            user.ID,
		Name:          user.Name,
		Email:         user.Email,
		DriverLicense: user.DriverLicense,
		Avatar:        user.Avatar,
		CreatedAt:     user.CreatedAt,
	}
}

// @Summary Sign in
// @Description Authenticate with email and password
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body SessionRequest true "Sign-in request"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /sessions [post]
func (s *Server) createSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := s.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(req.Email)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed in")

	c.JSON(http.StatusOK, SessionResponse{
		User:  newUserDetail(&user),
		Token: token,
	})
}

// @Summary Sign up
// @Description Creates a new account
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "Sign-up request"
// @Success 201 {object} UserDetail
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /users [post]
func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// bcrypt only accepts up to 72 bytes; max=72 above counts characters
	if len(req.Password) > auth.MaxPasswordBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at most 72 bytes"})
		return
	}

	email := strings.ToLower(req.Email)
	db := s.db.WithContext(c.Request.Context())

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		Name:          req.Name,
		Email:         email,
		PasswordHash:  passwordHash,
		DriverLicense: req.DriverLicense,
	}
	if err := db.Create(user).Error; err != nil {
		// Lost a race with a concurrent sign-up for the same email
		if isDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User created")

	c.JSON(http.StatusCreated, newUserDetail(user))
}

// @Summary Get profile
// @Description Returns the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /users/profile [get]
func (s *Server) getProfile(c *gin.Context) {
	session, ok := GetSessionData(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db.WithContext(c.Request.Context()), session.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, newUserDetail(&user))
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

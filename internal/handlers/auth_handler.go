package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/middleware"
	"github.com/farellandr/eventease/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=user organizer"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// Register creates a user or organizer account. Organizers wait for admin
// approval before they can sign in.
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil || role == models.RoleAdmin {
		helpers.RespondWithValidation(c, map[string]string{"role": "role must be one of: user organizer."})
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := gormDB.Where("email = ?", email).First(&existing).Error; err == nil {
		helpers.RespondWithError(c, http.StatusConflict, "User already exists.")
		return
	}

	hash, err := identity.HashPassword(req.Password)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to hash the password.")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Approved:     role != models.RoleOrganizer,
	}
	if err := gormDB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			helpers.RespondWithError(c, http.StatusConflict, "User already exists.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create user.")
		return
	}

	message := "User registered successfully."
	if !user.Approved {
		message = "Organizer registered successfully. An admin must approve the account before you can sign in."
	}
	c.JSON(http.StatusCreated, gin.H{"message": message, "user_id": user.ID})
}

func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	tokens := middleware.GetTokenIssuer(c)
	if tokens == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "JWT_SECRET not configured.")
		return
	}

	var user models.User
	if err := gormDB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	valid, err := identity.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Uint("user_id", user.ID).Msg("stored password hash is unreadable")
	}
	if !valid {
		helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials.")
		return
	}

	if user.IsPendingOrganizer() {
		helpers.RespondWithError(c, http.StatusForbidden, "Organizer account is awaiting approval.")
		return
	}

	if identity.NeedsRehash(user.PasswordHash) {
		if hash, err := identity.HashPassword(req.Password); err == nil {
			if err := gormDB.Model(&user).Update("password_hash", hash).Error; err != nil {
				log.Error().Err(err).Uint("user_id", user.ID).Msg("failed to upgrade password hash")
			}
		}
	}

	tokenString, claims, err := tokens.Issue(&user)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      tokenString,
		"expires_at": claims.ExpiresAt.Time,
		"user":       user,
	})
}

// Logout revokes the presented token until it would have expired.
func Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	denylist := middleware.GetDenylist(c)
	if err := denylist.Revoke(c.Request.Context(), claims.ID, claims.Remaining(time.Now())); err != nil {
		log.Error().Err(err).Msg("failed to revoke token")
		helpers.RespondRetryLater(c, 5, "Could not sign out. Please try again.")
		return
	}

	message := "Logged out successfully."
	if !denylist.Enabled() {
		message = "Logged out. Discard the token on the client."
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}

	user := middleware.GetUser(c)
	if user == nil {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	if valid, _ := identity.VerifyPassword(req.CurrentPassword, user.PasswordHash); !valid {
		helpers.RespondWithValidation(c, map[string]string{"current_password": "Current password is incorrect."})
		return
	}

	if !setPassword(c, gormDB, user, req.NewPassword) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}

func setPassword(c *gin.Context, gormDB *gorm.DB, user *models.User, password string) bool {
	hash, err := identity.HashPassword(password)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to hash the password.")
		return false
	}
	if err := gormDB.Model(user).Update("password_hash", hash).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update password.")
		return false
	}
	return true
}

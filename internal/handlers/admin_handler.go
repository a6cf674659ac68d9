package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/models"
)

type UpdateUserRequest struct {
	Role     string `json:"role" binding:"omitempty,oneof=user organizer admin"`
	Approved *bool  `json:"approved"`
}

type AdminResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

func loadUser(c *gin.Context, gormDB *gorm.DB) (*models.User, bool) {
	userID, ok := parseID(c, "id", "user")
	if !ok {
		return nil, false
	}

	var user models.User
	if err := gormDB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "User not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving user.")
		return nil, false
	}
	return &user, true
}

func PendingOrganizers(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var users []models.User
	err := gormDB.Where("role = ? AND approved = ?", models.RoleOrganizer, false).
		Order("created_at ASC").
		Find(&users).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving organizers.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"organizers": users})
}

// ApproveOrganizer approves the organizer and notifies them in the same
// transaction.
func ApproveOrganizer(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	user, ok := loadUser(c, gormDB)
	if !ok {
		return
	}
	if user.Role != models.RoleOrganizer {
		helpers.RespondWithError(c, http.StatusNotFound, "Organizer not found.")
		return
	}
	if user.Approved {
		c.JSON(http.StatusOK, gin.H{"message": "Organizer is already approved."})
		return
	}

	err := gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Update("approved", true).Error; err != nil {
			return err
		}
		return tx.Create(&models.Notification{
			UserID:  user.ID,
			Message: "Your organizer account has been approved. You can now publish events.",
		}).Error
	})
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to approve organizer.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Organizer approved successfully."})
}

func ListUsers(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	page, err := helpers.GetPagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	query := gormDB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving users.")
		return
	}

	var users []models.User
	if err := query.Order("created_at ASC").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving users.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"total":       total,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": page.TotalPages(total),
	})
}

// UpdateUser changes a user's role or approval.
func UpdateUser(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	user, ok := loadUser(c, gormDB)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Role != "" && models.Role(req.Role) != user.Role {
		if user.ID == p.UserID {
			helpers.RespondWithError(c, http.StatusConflict, "You cannot change your own role.")
			return
		}
		updates["role"] = models.Role(req.Role)
	}
	if req.Approved != nil {
		updates["approved"] = *req.Approved
	}
	if len(updates) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Nothing to update.", "user": user})
		return
	}

	if err := gormDB.Model(user).Updates(updates).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update user.")
		return
	}
	if err := gormDB.First(user, user.ID).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving user.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully.", "user": user})
}

// DeleteUser refuses while the user still holds tickets, payments or guest
// entries. Events they organize are removed with them.
func DeleteUser(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	user, ok := loadUser(c, gormDB)
	if !ok {
		return
	}
	if user.ID == p.UserID {
		helpers.RespondWithError(c, http.StatusConflict, "You cannot delete your own account.")
		return
	}

	for _, model := range []interface{}{&models.Ticket{}, &models.Transaction{}, &models.Guest{}} {
		var n int64
		if err := gormDB.Model(model).Where("user_id = ?", user.ID).Count(&n).Error; err != nil {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete user.")
			return
		}
		if n > 0 {
			helpers.RespondWithError(c, http.StatusConflict, "User still has tickets, transactions or guest entries.")
			return
		}
	}

	if err := gormDB.Delete(user).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			helpers.RespondWithError(c, http.StatusConflict, "User still has tickets, transactions or guest entries.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete user.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully."})
}

func AdminResetPassword(c *gin.Context) {
	var req AdminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	user, ok := loadUser(c, gormDB)
	if !ok {
		return
	}

	if !setPassword(c, gormDB, user, req.NewPassword) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset for " + user.Email + "."})
}

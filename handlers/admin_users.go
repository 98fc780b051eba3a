package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"velora-server/models"
	"velora-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminGetUsers lists accounts with optional role filter and email or
// name search.
func AdminGetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	conditions := []string{"true"}
	args := []interface{}{}

	if role := c.Query("role"); role == models.RoleUser || role == models.RoleAdmin {
		args = append(args, role)
		conditions = append(conditions, "role = $"+strconv.Itoa(len(args)))
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		args = append(args, "%"+q+"%")
		n := strconv.Itoa(len(args))
		conditions = append(conditions, "(email ILIKE $"+n+" OR full_name ILIKE $"+n+")")
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM users WHERE `+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	listArgs := append(args, limit, (page-1)*limit)
	query := `SELECT id, email, full_name, role, avatar, phone, is_active, created_at
	          FROM users WHERE ` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := DB.Query(query, listArgs...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	defer rows.Close()

	users := make([]gin.H, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Avatar, &u.Phone, &u.IsActive, &u.CreatedAt); err != nil {
			continue
		}
		users = append(users, gin.H{
			"id":         u.ID,
			"email":      u.Email,
			"full_name":  u.FullName,
			"role":       u.Role,
			"avatar":     u.Avatar,
			"phone":      u.Phone,
			"is_active":  u.IsActive,
			"created_at": u.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": paginationMeta(total, page, limit),
	})
}

// AdminCreateUser creates an account with an explicit role, which is
// how admin accounts come into existence.
func AdminCreateUser(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		FullName string `json:"full_name" binding:"required,min=2"`
		Role     string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	userID := uuid.New()
	avatar := utils.GenerateAvatarURL(userID.String())
	_, err = DB.Exec(`
		INSERT INTO users (id, email, password_hash, full_name, avatar, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)`,
		userID, strings.ToLower(req.Email), string(hashedPassword), req.FullName, avatar, req.Role)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An account with this email and role already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      userID,
		"email":   strings.ToLower(req.Email),
		"role":    req.Role,
		"message": "User created successfully",
	})
}

// AdminUpdateUserRole changes an account's role. An admin cannot
// demote their own account, which keeps at least one admin reachable.
func AdminUpdateUserRole(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=user admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.GetString("user_id") == targetID.String() && req.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot demote your own account"})
		return
	}

	result, err := DB.Exec(`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, targetID, req.Role)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "An account with this email and role already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user role"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User role updated"})
}

// AdminToggleUserStatus activates or deactivates an account. An admin
// cannot deactivate themselves.
func AdminToggleUserStatus(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.GetString("user_id") == targetID.String() && !*req.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
		return
	}

	result, err := DB.Exec(`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, targetID, *req.IsActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user status"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User status updated"})
}

// AdminDeleteUser removes an account. Self-deletion is blocked for the
// same reason self-demotion is.
func AdminDeleteUser(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if c.GetString("user_id") == targetID.String() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	result, err := DB.Exec(`DELETE FROM users WHERE id = $1`, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

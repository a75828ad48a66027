package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"telepsychiatry-server/internal/middleware"
	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/schedule"
	"telepsychiatry-server/internal/utils"
)

// UserHandler handles user management requests.
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// GetPsychiatrists lists all psychiatrist accounts. Available to any
// authenticated user so patients can pick who to book with.
func (h *UserHandler) GetPsychiatrists(c *gin.Context) {
	var psychiatrists []models.User
	if err := h.DB.Where("role = ?", models.RolePsychiatrist).
		Order("last_name asc, first_name asc").
		Find(&psychiatrists).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch psychiatrists: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(psychiatrists))
	for i := range psychiatrists {
		sanitized = append(sanitized, psychiatrists[i].Sanitize())
	}

	utils.Success(c, "Psychiatrists fetched successfully", sanitized)
}

// UpdateAvailabilityRequest represents the request body for updating a
// psychiatrist's bookable schedule.
type UpdateAvailabilityRequest struct {
	StartTime   string   `json:"startTime"`
	EndTime     string   `json:"endTime"`
	WorkingDays []string `json:"workingDays"`
}

// UpdateAvailability replaces the authenticated psychiatrist's schedule
// settings. An empty workingDays list is accepted and makes the psychiatrist
// unbookable until days are set again. Existing appointments are not touched.
func (h *UserHandler) UpdateAvailability(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.StartTime != "" || req.EndTime != "" {
		if req.StartTime == "" || req.EndTime == "" {
			utils.BadRequest(c, "startTime and endTime must be provided together")
			return
		}
		if err := schedule.ValidateWindow(req.StartTime, req.EndTime); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}
	for _, day := range req.WorkingDays {
		if !schedule.ValidWeekday(day) {
			utils.BadRequest(c, "Unknown weekday: "+day)
			return
		}
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", principal.UserID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}
	if user.Role != models.RolePsychiatrist {
		utils.Forbidden(c, "Only psychiatrists can configure availability")
		return
	}

	if req.StartTime != "" {
		user.Availability.StartTime = req.StartTime
		user.Availability.EndTime = req.EndTime
	}
	if req.WorkingDays != nil {
		user.Availability.WorkingDays = req.WorkingDays
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update availability: "+err.Error())
		return
	}

	utils.Success(c, "Availability updated successfully", user.Sanitize())
}

// GetAllUsers handles fetching all users (admin only).
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitized := make([]models.UserSanitized, 0, len(users))
	for i := range users {
		sanitized = append(sanitized, users[i].Sanitize())
	}

	utils.Success(c, "Users fetched successfully", sanitized)
}

// GetUserByID handles fetching a single user by ID (admin only).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// AdminUpdateUserRequest represents the request body for admin user updates.
type AdminUpdateUserRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	PhoneNumber    string `json:"phoneNumber"`
	Specialization string `json:"specialization"`
	Role           string `json:"role" binding:"omitempty,oneof=patient psychiatrist admin"`
}

// UpdateUser handles updating a user's details (admin only).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var req AdminUpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Specialization != "" {
		user.Specialization = req.Specialization
	}
	if req.Role != "" {
		user.Role = models.Role(req.Role)
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user (admin only). Appointment, message and
// note rows reference users by foreign key, so a user with history cannot be
// removed; the constraint violation is reported as a client error.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	principal, ok := middleware.GetPrincipal(c)
	if ok && principal.UserID == id {
		utils.BadRequest(c, "Admins cannot delete their own account")
		return
	}

	result := h.DB.Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		if isForeignKeyViolation(result.Error) {
			utils.BadRequest(c, "User has appointment or message history and cannot be deleted")
			return
		}
		utils.InternalServerError(c, "Failed to delete user: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "User not found")
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

// MySQL errors 1451 (row referenced by a child) and 1452 (child insert with
// no parent) both signal a foreign-key constraint violation.
func isForeignKeyViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && (mysqlErr.Number == 1451 || mysqlErr.Number == 1452)
}

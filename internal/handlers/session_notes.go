package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telepsychiatry-server/internal/middleware"
	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/utils"
)

// SessionNoteHandler handles psychiatrists' consultation notes.
type SessionNoteHandler struct {
	DB *gorm.DB
}

// NewSessionNoteHandler creates a new SessionNoteHandler.
func NewSessionNoteHandler(db *gorm.DB) *SessionNoteHandler {
	return &SessionNoteHandler{DB: db}
}

// CreateSessionNoteRequest represents the request body for creating a note.
type CreateSessionNoteRequest struct {
	PatientID     string     `json:"patientId" binding:"required,uuid"`
	AppointmentID string     `json:"appointmentId" binding:"omitempty,uuid"`
	Title         string     `json:"title" binding:"required"`
	Content       string     `json:"content" binding:"required"`
	SessionDate   *time.Time `json:"sessionDate"`
}

// CreateSessionNote records a consultation note. Psychiatrists only; when an
// appointment is referenced it must belong to this psychiatrist and the named
// patient.
func (h *SessionNoteHandler) CreateSessionNote(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req CreateSessionNoteRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var patient models.User
	if err := h.DB.First(&patient, "id = ? AND role = ?", req.PatientID, models.RolePatient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if req.AppointmentID != "" {
		var appointment models.Appointment
		if err := h.DB.First(&appointment, "id = ?", req.AppointmentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				utils.NotFound(c, "Appointment not found")
			} else {
				utils.InternalServerError(c, "Database error: "+err.Error())
			}
			return
		}
		if appointment.PsychiatristID != principal.UserID || appointment.PatientID != req.PatientID {
			utils.Forbidden(c, "Appointment does not belong to this psychiatrist and patient")
			return
		}
	}

	note := models.SessionNote{
		PatientID:      req.PatientID,
		PsychiatristID: principal.UserID,
		AppointmentID:  req.AppointmentID,
		Title:          req.Title,
		Content:        req.Content,
		SessionDate:    req.SessionDate,
	}

	if err := h.DB.Create(&note).Error; err != nil {
		utils.InternalServerError(c, "Failed to create session note: "+err.Error())
		return
	}

	utils.Created(c, "Session note created successfully", note)
}

// GetSessionNotes lists notes visible to the authenticated user: their own
// chart for patients, authored notes for psychiatrists.
func (h *SessionNoteHandler) GetSessionNotes(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	query := h.DB.Order("created_at desc")
	switch principal.Role {
	case models.RolePatient:
		query = query.Where("patient_id = ?", principal.UserID)
	case models.RolePsychiatrist:
		query = query.Where("psychiatrist_id = ?", principal.UserID)
		if patientID := c.Query("patientId"); patientID != "" {
			query = query.Where("patient_id = ?", patientID)
		}
	default:
		utils.Forbidden(c, "Session notes are restricted to patients and psychiatrists")
		return
	}

	var notes []models.SessionNote
	if err := query.Find(&notes).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch session notes: "+err.Error())
		return
	}

	utils.Success(c, "Session notes fetched successfully", notes)
}

// GetSessionNoteByID fetches a single note, visible to its patient and its
// author.
func (h *SessionNoteHandler) GetSessionNoteByID(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	note, ok := h.loadNote(c)
	if !ok {
		return
	}

	if note.PatientID != principal.UserID && note.PsychiatristID != principal.UserID {
		utils.Forbidden(c, "You do not have access to this session note")
		return
	}

	utils.Success(c, "Session note fetched successfully", note)
}

// UpdateSessionNoteRequest represents the request body for amending a note.
type UpdateSessionNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateSessionNote amends a note. Author only.
func (h *SessionNoteHandler) UpdateSessionNote(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	note, ok := h.loadNote(c)
	if !ok {
		return
	}

	if note.PsychiatristID != principal.UserID {
		utils.Forbidden(c, "Only the authoring psychiatrist can amend a session note")
		return
	}

	var req UpdateSessionNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	if req.Title != "" {
		note.Title = req.Title
	}
	if req.Content != "" {
		note.Content = req.Content
	}

	if err := h.DB.Save(&note).Error; err != nil {
		utils.InternalServerError(c, "Failed to update session note: "+err.Error())
		return
	}

	utils.Success(c, "Session note updated successfully", note)
}

// DeleteSessionNote deletes a note. Author only.
func (h *SessionNoteHandler) DeleteSessionNote(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	note, ok := h.loadNote(c)
	if !ok {
		return
	}

	if note.PsychiatristID != principal.UserID {
		utils.Forbidden(c, "Only the authoring psychiatrist can delete a session note")
		return
	}

	if err := h.DB.Delete(&note).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete session note: "+err.Error())
		return
	}

	utils.Success(c, "Session note deleted successfully", nil)
}

func (h *SessionNoteHandler) loadNote(c *gin.Context) (models.SessionNote, bool) {
	var note models.SessionNote
	if err := h.DB.First(&note, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Session note not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return note, false
	}
	return note, true
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telepsychiatry-server/internal/middleware"
	"telepsychiatry-server/internal/models"
	"telepsychiatry-server/internal/utils"
)

// MessageHandler handles consult messaging between patients and psychiatrists.
type MessageHandler struct {
	DB *gorm.DB
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(db *gorm.DB) *MessageHandler {
	return &MessageHandler{DB: db}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId" binding:"required,uuid"`
	Subject    string `json:"subject" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

// SendMessage sends a message from the authenticated user to a receiver.
// Messages only flow between a patient and a psychiatrist; same-role pairs
// are rejected.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.ReceiverID == principal.UserID {
		utils.BadRequest(c, "Cannot send a message to yourself")
		return
	}

	var receiver models.User
	if err := h.DB.First(&receiver, "id = ?", req.ReceiverID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Receiver not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	sender := principal.Role
	switch {
	case sender == models.RolePatient && receiver.Role == models.RolePsychiatrist:
	case sender == models.RolePsychiatrist && receiver.Role == models.RolePatient:
	default:
		utils.Forbidden(c, "Messages can only be exchanged between a patient and a psychiatrist")
		return
	}

	message := models.Message{
		SenderID:   principal.UserID,
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Content:    req.Content,
		Status:     models.MessageStatusSent,
	}

	if err := h.DB.Create(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to send message: "+err.Error())
		return
	}

	if err := h.DB.Preload("Sender").Preload("Receiver").
		First(&message, "id = ?", message.ID).Error; err != nil {
		utils.InternalServerError(c, "Failed to load sent message: "+err.Error())
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// GetMessages lists all messages the authenticated user sent or received,
// newest first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", principal.UserID, principal.UserID).
		Order("created_at desc").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	utils.Success(c, "Messages fetched successfully", messages)
}

// GetConversation lists the message history between the authenticated user
// and one other user, oldest first.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	otherID := c.Param("userId")

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Receiver").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			principal.UserID, otherID, otherID, principal.UserID).
		Order("created_at asc").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch conversation: "+err.Error())
		return
	}

	utils.Success(c, "Conversation fetched successfully", messages)
}

// MarkMessageAsRead marks a received message as read. Only the receiver can
// do this; marking an already-read message is a no-op success.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	id := c.Param("id")

	var message models.Message
	if err := h.DB.First(&message, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.ReceiverID != principal.UserID {
		utils.Forbidden(c, "Only the receiver can mark a message as read")
		return
	}

	if message.Status != models.MessageStatusRead {
		now := time.Now()
		message.Status = models.MessageStatusRead
		message.ReadAt = &now
		if err := h.DB.Save(&message).Error; err != nil {
			utils.InternalServerError(c, "Failed to mark message as read: "+err.Error())
			return
		}
	}

	utils.Success(c, "Message marked as read", message)
}

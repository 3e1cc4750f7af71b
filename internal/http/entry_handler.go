package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hunter/internal/service"
)

// EntryHandler serves the job entry endpoints.
type EntryHandler struct {
	logger  *zap.Logger
	entries *service.EntryService
}

func NewEntryHandler(logger *zap.Logger, entries *service.EntryService) *EntryHandler {
	return &EntryHandler{
		logger:  logger,
		entries: entries,
	}
}

// List handles GET /entries. Returns 404 when the user has no entries,
// which the client treats as the empty state.
func (h *EntryHandler) List(c *gin.Context) {
	userID := c.GetString(contextUserID)

	entries, err := h.entries.List(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoEntries):
			c.JSON(http.StatusNotFound, gin.H{"message": "No entries found"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		default:
			h.logger.Error("list entries failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Create handles POST /entries.
func (h *EntryHandler) Create(c *gin.Context) {
	userID := c.GetString(contextUserID)

	var req struct {
		Title          string   `json:"title" binding:"required"`
		Description    string   `json:"description"`
		Employer       string   `json:"employer" binding:"required"`
		Contact        string   `json:"contact"`
		Status         string   `json:"status" binding:"required"`
		SubmissionDate string   `json:"submissionDate" binding:"required"`
		Location       string   `json:"location"`
		Notes          string   `json:"notes"`
		FoundWhere     string   `json:"foundWhere" binding:"required"`
		Screenshots    []string `json:"screenshots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid entry request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required entry fields"})
		return
	}

	submitted, err := time.Parse(time.RFC3339, req.SubmissionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid submission date"})
		return
	}

	entry, err := h.entries.Create(c.Request.Context(), userID, service.CreateEntryInput{
		Title:          req.Title,
		Description:    req.Description,
		Employer:       req.Employer,
		Contact:        req.Contact,
		Status:         req.Status,
		SubmissionDate: submitted,
		Location:       req.Location,
		Notes:          req.Notes,
		FoundWhere:     req.FoundWhere,
		Screenshots:    req.Screenshots,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEntry):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required entry fields"})
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid status"})
		default:
			h.logger.Error("create entry failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Entry created", "entry": entry})
}

// Delete handles DELETE /entries/:id.
func (h *EntryHandler) Delete(c *gin.Context) {
	userID := c.GetString(contextUserID)

	if err := h.entries.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			c.JSON(http.StatusNotFound, gin.H{"message": "Entry not found"})
		default:
			h.logger.Error("delete entry failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted"})
}

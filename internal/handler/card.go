package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faregate/internal/service"
)

// CardHandler handles card linking and reader-assisted card detection.
type CardHandler struct {
	accountService *service.AccountService
	detectService  *service.CardDetectService
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(accountService *service.AccountService, detectService *service.CardDetectService) *CardHandler {
	return &CardHandler{
		accountService: accountService,
		detectService:  detectService,
	}
}

// RegisterCardRequest is the HTTP request body for linking a card.
type RegisterCardRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	CardUID string `json:"card_uid" binding:"required"`
}

// Register handles POST /v1/cards/register
func (h *CardHandler) Register(c *gin.Context) {
	var req RegisterCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid request body"})
		return
	}

	cardUID, err := h.accountService.LinkCard(c.Request.Context(), req.UserID, req.CardUID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"card_uid": cardUID,
	})
}

// Detect handles POST /v1/cards/detect
//
// The call blocks until a card is presented to the reader or the
// polling budget expires.
func (h *CardHandler) Detect(c *gin.Context) {
	cardUID, err := h.detectService.Detect(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"card_uid": cardUID,
	})
}

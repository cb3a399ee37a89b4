package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"faregate/internal/domain"
	"faregate/internal/service"
)

// TapHandler handles the reader webhook.
type TapHandler struct {
	tapService *service.TapService
}

// NewTapHandler creates a new TapHandler.
func NewTapHandler(tapService *service.TapService) *TapHandler {
	return &TapHandler{tapService: tapService}
}

// TapRequest is the HTTP request body for a tap event. The card UID
// arrives raw: readers routinely append framing garbage.
type TapRequest struct {
	CardUID string   `json:"card_uid"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// TapResponse is the HTTP response for a processed tap.
type TapResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	RideID  string `json:"ride_id"`
	Fare    string `json:"fare,omitempty"`
	Balance string `json:"balance,omitempty"`
	Message string `json:"message"`
}

// HandleTap handles POST /v1/taps
func (h *TapHandler) HandleTap(c *gin.Context) {
	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid request body"})
		return
	}

	var coords *domain.Coordinates
	if req.Lat != nil && req.Lng != nil {
		coords = &domain.Coordinates{Lat: *req.Lat, Lng: *req.Lng}
	}

	result, err := h.tapService.HandleTap(c.Request.Context(), service.TapRequest{
		RawUID: req.CardUID,
		Coords: coords,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	switch {
	case result.Action == domain.TapActionEntry:
		c.JSON(http.StatusOK, TapResponse{
			Success: true,
			Action:  string(result.Action),
			RideID:  result.Ride.ID,
			Balance: result.Balance.StringFixed(2),
			Message: "ride started",
		})

	case result.Settled:
		c.JSON(http.StatusOK, TapResponse{
			Success: true,
			Action:  string(result.Action),
			RideID:  result.Ride.ID,
			Fare:    result.Fare.StringFixed(2),
			Balance: result.Balance.StringFixed(2),
			Message: "ride completed and payment processed",
		})

	default:
		// EXIT with insufficient balance: the ride is closed and the
		// failed payment recorded; the caller owes the deficit.
		c.JSON(http.StatusPaymentRequired, TapDeclinedResponse{
			Action:    string(result.Action),
			RideID:    result.Ride.ID,
			Fare:      result.Fare.StringFixed(2),
			Balance:   result.Balance.StringFixed(2),
			Deficit:   result.Deficit.StringFixed(2),
			ErrorCode: CodeInsufficientBalance,
			Message:   fmt.Sprintf("insufficient balance: needs %s more", result.Deficit.StringFixed(2)),
		})
	}
}

// TapDeclinedResponse is the HTTP response for an EXIT tap that closed
// the ride but could not settle the fare.
type TapDeclinedResponse struct {
	Success   bool   `json:"success"`
	Action    string `json:"action"`
	RideID    string `json:"ride_id"`
	Fare      string `json:"fare"`
	Balance   string `json:"balance"`
	Deficit   string `json:"deficit"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"faregate/internal/domain"
	"faregate/internal/service"
)

// UserHandler handles HTTP requests for accounts.
type UserHandler struct {
	accountService *service.AccountService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountService *service.AccountService) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// RegisterUserRequest is the HTTP request body for creating an account.
type RegisterUserRequest struct {
	Email          string `json:"email" binding:"required"`
	Name           string `json:"name,omitempty"`
	OpeningBalance string `json:"opening_balance,omitempty"`
}

// UserResponse is the HTTP representation of an account.
type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	CardUID    string `json:"card_uid,omitempty"`
	Balance    string `json:"balance"`
	TotalSpent string `json:"total_spent"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		CardUID:    user.CardUID,
		Balance:    user.Balance.StringFixed(2),
		TotalSpent: user.TotalSpent.StringFixed(2),
	}
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid request body"})
		return
	}

	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(req.OpeningBalance)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid opening_balance"})
			return
		}
	}

	user, err := h.accountService.Register(c.Request.Context(), service.RegisterRequest{
		Email:          req.Email,
		Name:           req.Name,
		OpeningBalance: opening,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// GetBalance handles GET /v1/users/:id/balance
func (h *UserHandler) GetBalance(c *gin.Context) {
	user, err := h.accountService.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     user.ID,
		"balance":     user.Balance.StringFixed(2),
		"total_spent": user.TotalSpent.StringFixed(2),
	})
}

// RechargeRequest is the HTTP request body for a balance credit.
type RechargeRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// Recharge handles POST /v1/users/:id/recharge
func (h *UserHandler) Recharge(c *gin.Context) {
	var req RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid request body"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{ErrorCode: CodeInvalidRequest, Message: "invalid amount"})
		return
	}

	result, err := h.accountService.Recharge(c.Request.Context(), c.Param("id"), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user_id":    result.User.ID,
		"balance":    result.User.Balance.StringFixed(2),
		"payment_id": result.Payment.ID,
	})
}

// GetRides handles GET /v1/users/:id/rides
func (h *UserHandler) GetRides(c *gin.Context) {
	rides, err := h.accountService.Rides(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}

	c.JSON(http.StatusOK, response)
}

// GetPayments handles GET /v1/users/:id/payments
func (h *UserHandler) GetPayments(c *gin.Context) {
	payments, err := h.accountService.Payments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		response = append(response, PaymentResponse{
			ID:            p.ID,
			UserID:        p.UserID,
			RideID:        p.RideID,
			Amount:        p.Amount.StringFixed(2),
			BalanceBefore: p.BalanceBefore.StringFixed(2),
			BalanceAfter:  p.BalanceAfter.StringFixed(2),
			Status:        string(p.Status),
			Reason:        p.Reason,
			CreatedAt:     p.CreatedAt.Format(timeLayout),
		})
	}

	c.JSON(http.StatusOK, response)
}

// PaymentResponse is the HTTP representation of a payment record.
type PaymentResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	RideID        string `json:"ride_id,omitempty"`
	Amount        string `json:"amount"`
	BalanceBefore string `json:"balance_before"`
	BalanceAfter  string `json:"balance_after"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	CreatedAt     string `json:"created_at"`
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"faregate/internal/domain"
	internalRedis "faregate/internal/redis"
	"faregate/internal/repository"
)

// RideHandler handles HTTP requests for rides.
type RideHandler struct {
	rideRepo repository.RideRepository
	cache    internalRedis.RideCacheStoreInterface
}

// NewRideHandler creates a new RideHandler. cache may be nil.
func NewRideHandler(rideRepo repository.RideRepository, cache internalRedis.RideCacheStoreInterface) *RideHandler {
	return &RideHandler{
		rideRepo: rideRepo,
		cache:    cache,
	}
}

// RideResponse is the HTTP representation of a ride.
type RideResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Status        string  `json:"status"`
	StartTime     string  `json:"start_time"`
	StartLat      float64 `json:"start_lat"`
	StartLng      float64 `json:"start_lng"`
	EndTime       string  `json:"end_time,omitempty"`
	EndLat        float64 `json:"end_lat,omitempty"`
	EndLng        float64 `json:"end_lng,omitempty"`
	DistanceKm    float64 `json:"distance_km,omitempty"`
	DurationMin   float64 `json:"duration_min,omitempty"`
	Fare          string  `json:"fare,omitempty"`
	PaymentStatus string  `json:"payment_status"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toRideResponse(ride *domain.Ride) RideResponse {
	response := RideResponse{
		ID:            ride.ID,
		UserID:        ride.UserID,
		Status:        string(ride.Status),
		StartTime:     ride.StartTime.Format(timeLayout),
		StartLat:      ride.StartLat,
		StartLng:      ride.StartLng,
		PaymentStatus: string(ride.PaymentStatus),
	}

	if !ride.Open() {
		response.EndTime = ride.EndTime.Format(timeLayout)
		response.EndLat = ride.EndLat
		response.EndLng = ride.EndLng
		response.DistanceKm = ride.DistanceKm
		response.DurationMin = ride.DurationMin
		response.Fare = ride.Fare.StringFixed(2)
	}

	return response
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID := c.Param("id")
	ctx := c.Request.Context()

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, rideID); err == nil && cached != nil {
			c.JSON(http.StatusOK, RideResponse{
				ID:            cached.ID,
				UserID:        cached.UserID,
				Status:        cached.Status,
				StartTime:     cached.StartTime,
				StartLat:      cached.StartLat,
				StartLng:      cached.StartLng,
				EndTime:       cached.EndTime,
				EndLat:        cached.EndLat,
				EndLng:        cached.EndLng,
				DistanceKm:    cached.DistanceKm,
				DurationMin:   cached.DurationMin,
				Fare:          cached.Fare,
				PaymentStatus: cached.PaymentStatus,
			})
			return
		}
	}

	ride, err := h.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.cache != nil {
		// Only settled rides are cached; Set ignores open ones.
		_ = h.cache.Set(ctx, ride)
	}

	c.JSON(http.StatusOK, toRideResponse(ride))
}

// GetAll handles GET /v1/rides
func (h *RideHandler) GetAll(c *gin.Context) {
	rides, err := h.rideRepo.GetAll(c.Request.Context())
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

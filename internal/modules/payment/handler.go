package payment

import (
	"net/http"

	"bookingpay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/:token/pay", h.PayBooking)
	rg.GET("/bookings/:token/payment", h.GetPayment)
	rg.GET("/payments", h.ListPayments)
}

func (h *Handler) PayBooking(c *gin.Context) {
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid card data")
		return
	}

	p, err := h.service.Pay(c.Request.Context(), c.GetString("userID"), c.Param("token"), req)
	if err != nil {
		switch err {
		case ErrBookingNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case ErrAccessDenied:
			response.Error(c, http.StatusForbidden, "ACCESS_DENIED", "Booking belongs to another user")
		case ErrAlreadyPaid:
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking is already paid")
		case ErrBookingCanceled:
			response.Error(c, http.StatusConflict, "INVALID_STATE", "Booking is canceled")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Payment failed")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.service.GetByBookingToken(c.Request.Context(), c.GetString("userID"), c.Param("token"))
	if err != nil {
		switch err {
		case ErrPaymentNotFound:
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		case ErrAccessDenied:
			response.Error(c, http.StatusForbidden, "ACCESS_DENIED", "Payment belongs to another user")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payment")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.ListUserPayments(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list payments")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

package admin

import (
	"net/http"
	"time"

	"bookingpay/internal/modules/booking"
	"bookingpay/internal/modules/payment"
	"bookingpay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Reconciler lets operators trigger a reconciliation pass outside the
// regular schedule.
type Reconciler interface {
	CheckPendingPayments()
}

type Handler struct {
	bookings   *booking.Service
	payments   *payment.Service
	reconciler Reconciler
	staleAfter time.Duration
}

func NewHandler(bookings *booking.Service, payments *payment.Service, reconciler Reconciler, staleAfter time.Duration) *Handler {
	return &Handler{
		bookings:   bookings,
		payments:   payments,
		reconciler: reconciler,
		staleAfter: staleAfter,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListBookings)
	rg.GET("/bookings/stale", h.ListStaleBookings)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/payments", h.ListPayments)
	rg.GET("/payments/:id", h.GetPayment)
	rg.POST("/reconcile", h.TriggerReconcile)
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) ListStaleBookings(c *gin.Context) {
	stale, err := h.bookings.ListStale(c.Request.Context(), h.staleAfter)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list stale bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": stale})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.bookings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == booking.ErrNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.payments.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.payments.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == payment.ErrPaymentNotFound {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payment not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) TriggerReconcile(c *gin.Context) {
	go h.reconciler.CheckPendingPayments()
	response.Success(c, http.StatusAccepted, gin.H{"triggered": true})
}

package booking

import (
	"errors"
	"net/http"

	"railbook/internal/domain"
	"railbook/internal/pkg/response"
	"railbook/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts routes that need no login.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/trains/:no/availability", h.GetAvailability)
}

// RegisterRoutes expects rg to be behind the JWT middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("/reserved", h.CreateReserved)
		bookings.POST("/unreserved/quote", h.QuoteUnreserved)
		bookings.POST("/unreserved", h.CreateUnreserved)
		bookings.POST("/platform", h.CreatePlatform)
		bookings.POST("/mst", h.CreateSeason)
	}

	payments := rg.Group("/payments")
	{
		payments.GET("/:token", h.GetPayment)
		payments.POST("/:token/confirm", h.ConfirmPayment)
	}

	// :id is a PNR for reserved tickets
	tickets := rg.Group("/tickets")
	{
		tickets.GET("", h.ListTickets)
		tickets.GET("/:id", h.GetTicket)
		tickets.GET("/:id/qr", h.GetQR)
		tickets.GET("/:id/print", h.PrintTicket)
		tickets.POST("/:id/cancel", h.CancelTicket)
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var fields validator.FieldErrors
	switch {
	case errors.As(err, &fields):
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "All fields are required for each passenger", fields)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Could not resolve the requested train, class or route")
	case errors.Is(err, ErrTicketNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Invalid PNR or ticket ID")
	case errors.Is(err, ErrPendingNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking session not found")
	case errors.Is(err, ErrPendingExpired):
		response.Error(c, http.StatusGone, "PENDING_EXPIRED", "Your booking session has expired. Please try again.")
	case errors.Is(err, ErrAllocationFailed):
		response.Error(c, http.StatusConflict, "ALLOCATION_FAILED", "Seats are not available for all passengers")
	case errors.Is(err, ErrAlreadyCancelled):
		response.Error(c, http.StatusConflict, "ALREADY_CANCELLED", "Ticket already cancelled")
	case errors.Is(err, ErrNotCancellable):
		response.Error(c, http.StatusConflict, "NOT_CANCELLABLE", "Only reserved tickets can be cancelled")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return false
	}
	return true
}

func pendingView(p *domain.PendingBooking) gin.H {
	return gin.H{
		"token":      p.Token,
		"kind":       p.Kind,
		"amount":     p.Amount,
		"expires_at": p.ExpiresAt,
	}
}

// CreateReserved handles POST /api/v1/bookings/reserved
func (h *Handler) CreateReserved(c *gin.Context) {
	var req CreateReservedRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.CreateReserved(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view := pendingView(p)
	view["passengers"] = p.Reserved.Passengers
	response.Success(c, http.StatusCreated, gin.H{"booking": view})
}

// QuoteUnreserved handles POST /api/v1/bookings/unreserved/quote
func (h *Handler) QuoteUnreserved(c *gin.Context) {
	var req UnreservedRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.service.QuoteUnreserved(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quote": q})
}

func (h *Handler) CreateUnreserved(c *gin.Context) {
	var req UnreservedRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.CreateUnreserved(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": pendingView(p)})
}

func (h *Handler) CreatePlatform(c *gin.Context) {
	var req PlatformRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.CreatePlatform(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": pendingView(p)})
}

func (h *Handler) CreateSeason(c *gin.Context) {
	var req SeasonRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.service.CreateSeason(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view := pendingView(p)
	view["valid_from"] = p.Season.ValidFrom
	view["valid_until"] = p.Season.ValidUntil
	response.Success(c, http.StatusCreated, gin.H{"booking": view})
}

// GetPayment handles GET /api/v1/payments/:token
func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.service.GetPending(c.Request.Context(), c.GetInt64("user_id"), c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": pendingView(p)})
}

// ConfirmPayment handles POST /api/v1/payments/:token/confirm
func (h *Handler) ConfirmPayment(c *gin.Context) {
	t, err := h.service.ConfirmPayment(c.Request.Context(), c.GetInt64("user_id"), c.Param("token"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"kind": t.Kind(), "ticket": t})
}

// ListTickets handles GET /api/v1/tickets
func (h *Handler) ListTickets(c *gin.Context) {
	response.Success(c, http.StatusOK, h.service.ListTickets(c.Request.Context(), c.GetInt64("user_id")))
}

func (h *Handler) GetTicket(c *gin.Context) {
	t, err := h.service.Ticket(c.Request.Context(), c.GetInt64("user_id"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"kind": t.Kind(), "ticket": t})
}

// GetQR handles GET /api/v1/tickets/:id/qr and returns the QR payload text.
func (h *Handler) GetQR(c *gin.Context) {
	text, err := h.service.QRContent(c.Request.Context(), c.GetInt64("user_id"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

func (h *Handler) PrintTicket(c *gin.Context) {
	id := c.Param("id")
	pdf, err := h.service.PrintPDF(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="ticket-`+id+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// CancelTicket handles POST /api/v1/tickets/:id/cancel
func (h *Handler) CancelTicket(c *gin.Context) {
	t, err := h.service.Cancel(c.Request.Context(), c.GetInt64("user_id"), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"ticket": t})
}

// GetAvailability handles GET /api/v1/trains/:no/availability?class=SL
func (h *Handler) GetAvailability(c *gin.Context) {
	class := c.Query("class")
	if class == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "class is required")
		return
	}
	a, err := h.service.Availability(c.Request.Context(), c.Param("no"), class)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"availability": a})
}

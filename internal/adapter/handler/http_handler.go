package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/port"
)

const IdempotencyKeyHeader = "X-Idempotency-Key"

type HTTPHandler struct {
	negotiation *service.NegotiationService
	bookings    *service.BookingService
	passes      *service.PassService
	store       port.Store
}

func NewHTTPHandler(negotiation *service.NegotiationService, bookings *service.BookingService, passes *service.PassService, store port.Store) *HTTPHandler {
	return &HTTPHandler{
		negotiation: negotiation,
		bookings:    bookings,
		passes:      passes,
		store:       store,
	}
}

// Register mounts every route. Only /health and the pass listing skip
// authentication.
func (h *HTTPHandler) Register(router *gin.Engine, verifier port.IdentityVerifier) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")
	api.GET("/passes", h.ListPasses)

	authed := api.Group("", Auth(verifier))

	bids := authed.Group("/bids/requests")
	bids.POST("", h.OpenRequest)
	bids.GET("", h.ListRequests)
	bids.GET("/:requestId", h.GetRequest)
	bids.POST("/:requestId/bid", h.PlaceBid)
	bids.POST("/:requestId/bids/:bidId/respond", h.RespondToBid)

	bookings := authed.Group("/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("", h.ListBookings)
	bookings.PATCH("/:id/status", h.UpdateBookingStatus)

	passes := authed.Group("/passes")
	passes.POST("", h.CreatePass)
	passes.GET("/my", h.ListMyPurchases)
	passes.POST("/:id/purchase", h.PurchasePass)
}

func (h *HTTPHandler) OpenRequest(c *gin.Context) {
	var body OpenRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req, err := h.negotiation.OpenRequest(c.Request.Context(), c.GetString(SubjectKey), body.input())
	if err != nil {
		fail(c, err)
		return
	}
	created(c, toBidRequestResponse(*req))
}

func (h *HTTPHandler) ListRequests(c *gin.Context) {
	reqs, err := h.negotiation.ListRequests(c.Request.Context(), c.GetString(SubjectKey))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toBidRequestResponses(reqs))
}

func (h *HTTPHandler) GetRequest(c *gin.Context) {
	req, err := h.negotiation.GetRequest(c.Request.Context(), c.GetString(SubjectKey), c.Param("requestId"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toBidRequestResponse(*req))
}

func (h *HTTPHandler) PlaceBid(c *gin.Context) {
	var body PlaceBidBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	bid, err := h.negotiation.PlaceBid(c.Request.Context(), c.GetString(SubjectKey), c.Param("requestId"), service.PlaceBidInput{
		Price: body.Price,
		Pitch: body.Pitch,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, toBidResponse(*bid))
}

func (h *HTTPHandler) RespondToBid(c *gin.Context) {
	var body RespondBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	resp, err := h.negotiation.RespondToBid(c.Request.Context(), c.GetString(SubjectKey),
		c.Param("requestId"), c.Param("bidId"), domain.BidAction(body.Action))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toRespondResponse(resp))
}

func (h *HTTPHandler) CreateBooking(c *gin.Context) {
	var body CreateBookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), c.GetString(SubjectKey), service.CreateBookingInput{
		ServiceID: body.ServiceID,
		Date:      body.Date,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, toBookingResponse(*booking))
}

func (h *HTTPHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookings.ListBookings(c.Request.Context(), c.GetString(SubjectKey))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toBookingResponses(bookings))
}

func (h *HTTPHandler) UpdateBookingStatus(c *gin.Context) {
	var body UpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	booking, err := h.bookings.UpdateBookingStatus(c.Request.Context(), c.GetString(SubjectKey),
		c.Param("id"), domain.BookingStatus(body.Status))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toBookingResponse(*booking))
}

func (h *HTTPHandler) CreatePass(c *gin.Context) {
	var body CreatePassBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	pass, err := h.passes.CreatePass(c.Request.Context(), c.GetString(SubjectKey), body.input())
	if err != nil {
		fail(c, err)
		return
	}
	created(c, toPassResponse(*pass))
}

func (h *HTTPHandler) ListPasses(c *gin.Context) {
	passes, err := h.passes.ListActivePasses(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toPassResponses(passes))
}

func (h *HTTPHandler) ListMyPurchases(c *gin.Context) {
	purchases, err := h.passes.ListMyPurchases(c.Request.Context(), c.GetString(SubjectKey))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, toPurchaseResponses(purchases))
}

func (h *HTTPHandler) PurchasePass(c *gin.Context) {
	var body PurchaseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	purchase, err := h.passes.PurchasePass(c.Request.Context(), c.GetString(SubjectKey), c.Param("id"), service.PurchaseInput{
		Quantity:       body.Quantity,
		AttendeeName:   body.AttendeeName,
		Email:          body.Email,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, toPurchaseResponse(*purchase))
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handler

import (
	"time"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
)

type OpenRequestBody struct {
	EventName           string  `json:"event_name"`
	EventType           string  `json:"event_type"`
	Date                string  `json:"date"`
	Location            string  `json:"location"`
	GuestCount          int     `json:"guest_count"`
	Budget              float64 `json:"budget"`
	IsFreelancerRequest bool    `json:"is_freelancer_request"`
}

func (b OpenRequestBody) input() service.OpenRequestInput {
	return service.OpenRequestInput{
		EventName:           b.EventName,
		EventType:           b.EventType,
		Date:                b.Date,
		Location:            b.Location,
		GuestCount:          b.GuestCount,
		Budget:              b.Budget,
		IsFreelancerRequest: b.IsFreelancerRequest,
	}
}

type PlaceBidBody struct {
	Price float64 `json:"price"`
	Pitch string  `json:"pitch"`
}

type RespondBody struct {
	Action string `json:"action"`
}

type CreateBookingBody struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
}

type UpdateStatusBody struct {
	Status string `json:"status"`
}

type CreatePassBody struct {
	EventName string  `json:"event_name"`
	EventDate string  `json:"event_date"`
	StartTime string  `json:"start_time"`
	Location  string  `json:"location"`
	Price     float64 `json:"price"`
	PassType  string  `json:"pass_type"`
	Capacity  int     `json:"capacity"`
}

func (b CreatePassBody) input() service.CreatePassInput {
	return service.CreatePassInput{
		EventName: b.EventName,
		EventDate: b.EventDate,
		StartTime: b.StartTime,
		Location:  b.Location,
		Price:     b.Price,
		PassType:  b.PassType,
		Capacity:  b.Capacity,
	}
}

type PurchaseBody struct {
	Quantity     int    `json:"quantity"`
	AttendeeName string `json:"attendee_name"`
	Email        string `json:"email"`
}

type BidRequestResponse struct {
	ID                  string        `json:"id"`
	CustomerID          string        `json:"customer_id"`
	CustomerName        string        `json:"customer_name"`
	EventName           string        `json:"event_name"`
	EventType           string        `json:"event_type"`
	Date                string        `json:"date"`
	Location            string        `json:"location"`
	GuestCount          int           `json:"guest_count"`
	Budget              float64       `json:"budget"`
	IsFreelancerRequest bool          `json:"is_freelancer_request"`
	Status              string        `json:"status"`
	SelectedBidID       string        `json:"selected_bid_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	Bids                []BidResponse `json:"bids"`
}

type BidResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Price        float64   `json:"price"`
	Pitch        string    `json:"pitch"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type BookingResponse struct {
	ID           string    `json:"id"`
	CustomerID   string    `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	ProviderID   string    `json:"provider_id"`
	ServiceID    string    `json:"service_id"`
	ServiceName  string    `json:"service_name"`
	ServiceType  string    `json:"service_type"`
	Date         string    `json:"date"`
	Price        float64   `json:"price"`
	Status       string    `json:"status"`
	BidRequestID string    `json:"bid_request_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type RespondResponse struct {
	Request BidRequestResponse `json:"request"`
	Bid     BidResponse        `json:"bid"`
	Booking *BookingResponse   `json:"booking,omitempty"`
}

type PassResponse struct {
	ID          string    `json:"id"`
	CreatorID   string    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	EventName   string    `json:"event_name"`
	EventDate   string    `json:"event_date"`
	StartTime   string    `json:"start_time"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	PassType    string    `json:"pass_type"`
	Capacity    int       `json:"capacity"`
	SoldCount   int       `json:"sold_count"`
	Remaining   int       `json:"remaining"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type PurchaseResponse struct {
	ID           string    `json:"id"`
	PassID       string    `json:"pass_id"`
	BuyerID      string    `json:"buyer_id"`
	EventName    string    `json:"event_name"`
	PassType     string    `json:"pass_type"`
	Quantity     int       `json:"quantity"`
	TotalPrice   float64   `json:"total_price"`
	AttendeeName string    `json:"attendee_name"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	PurchasedAt  time.Time `json:"purchased_at"`
}

func toBidRequestResponse(r domain.BidRequest) BidRequestResponse {
	bids := make([]BidResponse, 0, len(r.Bids))
	for _, b := range r.Bids {
		bids = append(bids, toBidResponse(b))
	}
	return BidRequestResponse{
		ID:                  r.ID,
		CustomerID:          r.CustomerID,
		CustomerName:        r.CustomerName,
		EventName:           r.EventName,
		EventType:           r.EventType,
		Date:                r.Date,
		Location:            r.Location,
		GuestCount:          r.GuestCount,
		Budget:              r.Budget,
		IsFreelancerRequest: r.IsFreelancerRequest,
		Status:              string(r.Status),
		SelectedBidID:       r.SelectedBidID,
		CreatedAt:           r.CreatedAt,
		Bids:                bids,
	}
}

func toBidRequestResponses(rs []domain.BidRequest) []BidRequestResponse {
	out := make([]BidRequestResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toBidRequestResponse(r))
	}
	return out
}

func toBidResponse(b domain.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		RequestID:    b.RequestID,
		ProviderID:   b.ProviderID,
		ProviderName: b.ProviderName,
		Price:        b.Price,
		Pitch:        b.Pitch,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
	}
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		CustomerID:   b.CustomerID,
		CustomerName: b.CustomerName,
		ProviderID:   b.ProviderID,
		ServiceID:    b.ServiceID,
		ServiceName:  b.ServiceName,
		ServiceType:  b.ServiceType,
		Date:         b.Date,
		Price:        b.Price,
		Status:       string(b.Status),
		BidRequestID: b.BidRequestID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBookingResponses(bs []domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}

func toRespondResponse(r *service.BidResponse) RespondResponse {
	out := RespondResponse{
		Request: toBidRequestResponse(r.Request),
		Bid:     toBidResponse(r.Bid),
	}
	if r.Booking != nil {
		booking := toBookingResponse(*r.Booking)
		out.Booking = &booking
	}
	return out
}

func toPassResponse(p domain.Pass) PassResponse {
	return PassResponse{
		ID:          p.ID,
		CreatorID:   p.CreatorID,
		CreatorName: p.CreatorName,
		EventName:   p.EventName,
		EventDate:   p.EventDate,
		StartTime:   p.StartTime,
		Location:    p.Location,
		Price:       p.Price,
		PassType:    p.PassType,
		Capacity:    p.Capacity,
		SoldCount:   p.SoldCount,
		Remaining:   p.Remaining(),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

func toPassResponses(ps []domain.Pass) []PassResponse {
	out := make([]PassResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPassResponse(p))
	}
	return out
}

func toPurchaseResponse(p domain.PassPurchase) PurchaseResponse {
	return PurchaseResponse{
		ID:           p.ID,
		PassID:       p.PassID,
		BuyerID:      p.BuyerID,
		EventName:    p.EventName,
		PassType:     p.PassType,
		Quantity:     p.Quantity,
		TotalPrice:   p.TotalPrice,
		AttendeeName: p.AttendeeName,
		Email:        p.Email,
		Status:       string(p.Status),
		PurchasedAt:  p.PurchasedAt,
	}
}

func toPurchaseResponses(ps []domain.PassPurchase) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchaseResponse(p))
	}
	return out
}

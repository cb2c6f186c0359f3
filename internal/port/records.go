package port

import "github.com/rl1809/marketplace/internal/core/domain"

const (
	CollectionBidRequests   = "bid_requests"
	CollectionBids          = "bids"
	CollectionBookings      = "bookings"
	CollectionPasses        = "passes"
	CollectionPassPurchases = "pass_purchases"
	CollectionProfiles      = "profiles"
	CollectionServices      = "services"
)

var BidRequestSchema = Schema{
	Collection: CollectionBidRequests,
	Columns: []Column{
		{Name: "customer_id", Kind: KindString, Indexed: true},
		{Name: "customer_name", Kind: KindString},
		{Name: "event_name", Kind: KindString},
		{Name: "event_type", Kind: KindString},
		{Name: "date", Kind: KindString},
		{Name: "location", Kind: KindString},
		{Name: "guest_count", Kind: KindInt},
		{Name: "budget", Kind: KindFloat},
		{Name: "is_freelancer_request", Kind: KindBool},
		{Name: "status", Kind: KindString, Indexed: true},
		{Name: "selected_bid_id", Kind: KindString},
		{Name: "version", Kind: KindInt},
		{Name: "created_at", Kind: KindString},
	},
}

var BidRequestCodec = Codec[domain.BidRequest]{
	Encode: func(r domain.BidRequest) Fields {
		return Fields{
			"customer_id":           r.CustomerID,
			"customer_name":         r.CustomerName,
			"event_name":            r.EventName,
			"event_type":            r.EventType,
			"date":                  r.Date,
			"location":              r.Location,
			"guest_count":           int64(r.GuestCount),
			"budget":                r.Budget,
			"is_freelancer_request": r.IsFreelancerRequest,
			"status":                string(r.Status),
			"selected_bid_id":       r.SelectedBidID,
			"version":               r.Version,
			"created_at":            FormatTime(r.CreatedAt),
		}
	},
	Decode: func(f Fields) domain.BidRequest {
		return domain.BidRequest{
			ID:                  f.ID(),
			CustomerID:          f.String("customer_id"),
			CustomerName:        f.String("customer_name"),
			EventName:           f.String("event_name"),
			EventType:           f.String("event_type"),
			Date:                f.String("date"),
			Location:            f.String("location"),
			GuestCount:          int(f.Int("guest_count")),
			Budget:              f.Float("budget"),
			IsFreelancerRequest: f.Bool("is_freelancer_request"),
			Status:              domain.BidRequestStatus(f.String("status")),
			SelectedBidID:       f.String("selected_bid_id"),
			Version:             f.Int("version"),
			CreatedAt:           f.Time("created_at"),
		}
	},
}

var BidSchema = Schema{
	Collection: CollectionBids,
	Columns: []Column{
		{Name: "request_id", Kind: KindString, Indexed: true},
		{Name: "provider_id", Kind: KindString, Indexed: true},
		{Name: "provider_name", Kind: KindString},
		{Name: "price", Kind: KindFloat},
		{Name: "pitch", Kind: KindString},
		{Name: "status", Kind: KindString},
		{Name: "created_at", Kind: KindString},
	},
}

var BidCodec = Codec[domain.Bid]{
	Encode: func(b domain.Bid) Fields {
		return Fields{
			"request_id":    b.RequestID,
			"provider_id":   b.ProviderID,
			"provider_name": b.ProviderName,
			"price":         b.Price,
			"pitch":         b.Pitch,
			"status":        string(b.Status),
			"created_at":    FormatTime(b.CreatedAt),
		}
	},
	Decode: func(f Fields) domain.Bid {
		return domain.Bid{
			ID:           f.ID(),
			RequestID:    f.String("request_id"),
			ProviderID:   f.String("provider_id"),
			ProviderName: f.String("provider_name"),
			Price:        f.Float("price"),
			Pitch:        f.String("pitch"),
			Status:       domain.BidStatus(f.String("status")),
			CreatedAt:    f.Time("created_at"),
		}
	},
}

var BookingSchema = Schema{
	Collection: CollectionBookings,
	Columns: []Column{
		{Name: "customer_id", Kind: KindString, Indexed: true},
		{Name: "customer_name", Kind: KindString},
		{Name: "provider_id", Kind: KindString, Indexed: true},
		{Name: "service_id", Kind: KindString},
		{Name: "service_name", Kind: KindString},
		{Name: "service_type", Kind: KindString},
		{Name: "date", Kind: KindString},
		{Name: "price", Kind: KindFloat},
		{Name: "status", Kind: KindString},
		{Name: "bid_request_id", Kind: KindString, Indexed: true},
		{Name: "created_at", Kind: KindString},
		{Name: "updated_at", Kind: KindString},
	},
}

var BookingCodec = Codec[domain.Booking]{
	Encode: func(b domain.Booking) Fields {
		return Fields{
			"customer_id":    b.CustomerID,
			"customer_name":  b.CustomerName,
			"provider_id":    b.ProviderID,
			"service_id":     b.ServiceID,
			"service_name":   b.ServiceName,
			"service_type":   b.ServiceType,
			"date":           b.Date,
			"price":          b.Price,
			"status":         string(b.Status),
			"bid_request_id": b.BidRequestID,
			"created_at":     FormatTime(b.CreatedAt),
			"updated_at":     FormatTime(b.UpdatedAt),
		}
	},
	Decode: func(f Fields) domain.Booking {
		return domain.Booking{
			ID:           f.ID(),
			CustomerID:   f.String("customer_id"),
			CustomerName: f.String("customer_name"),
			ProviderID:   f.String("provider_id"),
			ServiceID:    f.String("service_id"),
			ServiceName:  f.String("service_name"),
			ServiceType:  f.String("service_type"),
			Date:         f.String("date"),
			Price:        f.Float("price"),
			Status:       domain.BookingStatus(f.String("status")),
			BidRequestID: f.String("bid_request_id"),
			CreatedAt:    f.Time("created_at"),
			UpdatedAt:    f.Time("updated_at"),
		}
	},
}

var PassSchema = Schema{
	Collection: CollectionPasses,
	Columns: []Column{
		{Name: "creator_id", Kind: KindString, Indexed: true},
		{Name: "creator_name", Kind: KindString},
		{Name: "event_name", Kind: KindString},
		{Name: "event_date", Kind: KindString},
		{Name: "start_time", Kind: KindString},
		{Name: "location", Kind: KindString},
		{Name: "price", Kind: KindFloat},
		{Name: "pass_type", Kind: KindString},
		{Name: "capacity", Kind: KindInt},
		{Name: "sold_count", Kind: KindInt},
		{Name: "is_active", Kind: KindBool, Indexed: true},
		{Name: "created_at", Kind: KindString},
	},
}

var PassCodec = Codec[domain.Pass]{
	Encode: func(p domain.Pass) Fields {
		return Fields{
			"creator_id":   p.CreatorID,
			"creator_name": p.CreatorName,
			"event_name":   p.EventName,
			"event_date":   p.EventDate,
			"start_time":   p.StartTime,
			"location":     p.Location,
			"price":        p.Price,
			"pass_type":    p.PassType,
			"capacity":     int64(p.Capacity),
			"sold_count":   int64(p.SoldCount),
			"is_active":    p.IsActive,
			"created_at":   FormatTime(p.CreatedAt),
		}
	},
	Decode: func(f Fields) domain.Pass {
		return domain.Pass{
			ID:          f.ID(),
			CreatorID:   f.String("creator_id"),
			CreatorName: f.String("creator_name"),
			EventName:   f.String("event_name"),
			EventDate:   f.String("event_date"),
			StartTime:   f.String("start_time"),
			Location:    f.String("location"),
			Price:       f.Float("price"),
			PassType:    f.String("pass_type"),
			Capacity:    int(f.Int("capacity")),
			SoldCount:   int(f.Int("sold_count")),
			IsActive:    f.Bool("is_active"),
			CreatedAt:   f.Time("created_at"),
		}
	},
}

var PassPurchaseSchema = Schema{
	Collection: CollectionPassPurchases,
	Columns: []Column{
		{Name: "pass_id", Kind: KindString, Indexed: true},
		{Name: "buyer_id", Kind: KindString, Indexed: true},
		{Name: "event_name", Kind: KindString},
		{Name: "pass_type", Kind: KindString},
		{Name: "quantity", Kind: KindInt},
		{Name: "total_price", Kind: KindFloat},
		{Name: "attendee_name", Kind: KindString},
		{Name: "email", Kind: KindString},
		{Name: "status", Kind: KindString},
		{Name: "purchased_at", Kind: KindString},
	},
}

var PassPurchaseCodec = Codec[domain.PassPurchase]{
	Encode: func(p domain.PassPurchase) Fields {
		return Fields{
			"pass_id":       p.PassID,
			"buyer_id":      p.BuyerID,
			"event_name":    p.EventName,
			"pass_type":     p.PassType,
			"quantity":      int64(p.Quantity),
			"total_price":   p.TotalPrice,
			"attendee_name": p.AttendeeName,
			"email":         p.Email,
			"status":        string(p.Status),
			"purchased_at":  FormatTime(p.PurchasedAt),
		}
	},
	Decode: func(f Fields) domain.PassPurchase {
		return domain.PassPurchase{
			ID:           f.ID(),
			PassID:       f.String("pass_id"),
			BuyerID:      f.String("buyer_id"),
			EventName:    f.String("event_name"),
			PassType:     f.String("pass_type"),
			Quantity:     int(f.Int("quantity")),
			TotalPrice:   f.Float("total_price"),
			AttendeeName: f.String("attendee_name"),
			Email:        f.String("email"),
			Status:       domain.PurchaseStatus(f.String("status")),
			PurchasedAt:  f.Time("purchased_at"),
		}
	},
}

var ProfileSchema = Schema{
	Collection: CollectionProfiles,
	Columns: []Column{
		{Name: "role", Kind: KindString, Indexed: true},
		{Name: "display_name", Kind: KindString},
		{Name: "email", Kind: KindString},
		{Name: "is_banned", Kind: KindBool},
		{Name: "profile_status", Kind: KindString},
	},
}

var ProfileCodec = Codec[domain.Profile]{
	Encode: func(p domain.Profile) Fields {
		return Fields{
			"role":           string(p.Role),
			"display_name":   p.DisplayName,
			"email":          p.Email,
			"is_banned":      p.IsBanned,
			"profile_status": string(p.ProfileStatus),
		}
	},
	Decode: func(f Fields) domain.Profile {
		return domain.Profile{
			ID:            f.ID(),
			Role:          domain.Role(f.String("role")),
			DisplayName:   f.String("display_name"),
			Email:         f.String("email"),
			IsBanned:      f.Bool("is_banned"),
			ProfileStatus: domain.ProfileStatus(f.String("profile_status")),
		}
	},
}

var ServiceSchema = Schema{
	Collection: CollectionServices,
	Columns: []Column{
		{Name: "provider_id", Kind: KindString, Indexed: true},
		{Name: "name", Kind: KindString},
		{Name: "service_type", Kind: KindString},
		{Name: "price", Kind: KindFloat},
	},
}

var ServiceCodec = Codec[domain.Service]{
	Encode: func(s domain.Service) Fields {
		return Fields{
			"provider_id":  s.ProviderID,
			"name":         s.Name,
			"service_type": s.ServiceType,
			"price":        s.Price,
		}
	},
	Decode: func(f Fields) domain.Service {
		return domain.Service{
			ID:          f.ID(),
			ProviderID:  f.String("provider_id"),
			Name:        f.String("name"),
			ServiceType: f.String("service_type"),
			Price:       f.Float("price"),
		}
	},
}

// Schemas lists every collection a backend must provide.
var Schemas = []Schema{
	BidRequestSchema,
	BidSchema,
	BookingSchema,
	PassSchema,
	PassPurchaseSchema,
	ProfileSchema,
	ServiceSchema,
}

// Tables groups the typed tables the engines work against.
type Tables struct {
	BidRequests   *Table[domain.BidRequest]
	Bids          *Table[domain.Bid]
	Bookings      *Table[domain.Booking]
	Passes        *Table[domain.Pass]
	PassPurchases *Table[domain.PassPurchase]
	Profiles      *Table[domain.Profile]
	Services      *Table[domain.Service]
}

func NewTables(store Store) *Tables {
	return &Tables{
		BidRequests:   NewTable(store, BidRequestSchema, BidRequestCodec),
		Bids:          NewTable(store, BidSchema, BidCodec),
		Bookings:      NewTable(store, BookingSchema, BookingCodec),
		Passes:        NewTable(store, PassSchema, PassCodec),
		PassPurchases: NewTable(store, PassPurchaseSchema, PassPurchaseCodec),
		Profiles:      NewTable(store, ProfileSchema, ProfileCodec),
		Services:      NewTable(store, ServiceSchema, ServiceCodec),
	}
}

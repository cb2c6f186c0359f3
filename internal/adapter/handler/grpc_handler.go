package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/port"
)

const ServiceName = "marketplace.v1.Marketplace"

type RequestIDMessage struct {
	RequestID string `json:"request_id"`
}

type PlaceBidMessage struct {
	RequestID string `json:"request_id"`
	PlaceBidBody
}

type RespondMessage struct {
	RequestID string `json:"request_id"`
	BidID     string `json:"bid_id"`
	Action    string `json:"action"`
}

type UpdateStatusMessage struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type PurchaseMessage struct {
	PassID         string `json:"pass_id"`
	IdempotencyKey string `json:"idempotency_key"`
	PurchaseBody
}

type Empty struct{}

type GRPCHandler struct {
	negotiation *service.NegotiationService
	bookings    *service.BookingService
	passes      *service.PassService
	verifier    port.IdentityVerifier
}

func NewGRPCHandler(negotiation *service.NegotiationService, bookings *service.BookingService, passes *service.PassService, verifier port.IdentityVerifier) *GRPCHandler {
	return &GRPCHandler{
		negotiation: negotiation,
		bookings:    bookings,
		passes:      passes,
		verifier:    verifier,
	}
}

// Register adds the marketplace service to server. Clients must call with
// the json content subtype.
func (h *GRPCHandler) Register(server *grpc.Server) {
	server.RegisterService(&serviceDesc, h)
}

func (h *GRPCHandler) OpenRequest(ctx context.Context, subject string, in *OpenRequestBody) (interface{}, error) {
	req, err := h.negotiation.OpenRequest(ctx, subject, in.input())
	if err != nil {
		return nil, err
	}
	return toBidRequestResponse(*req), nil
}

func (h *GRPCHandler) ListRequests(ctx context.Context, subject string, _ *Empty) (interface{}, error) {
	reqs, err := h.negotiation.ListRequests(ctx, subject)
	if err != nil {
		return nil, err
	}
	return toBidRequestResponses(reqs), nil
}

func (h *GRPCHandler) GetRequest(ctx context.Context, subject string, in *RequestIDMessage) (interface{}, error) {
	req, err := h.negotiation.GetRequest(ctx, subject, in.RequestID)
	if err != nil {
		return nil, err
	}
	return toBidRequestResponse(*req), nil
}

func (h *GRPCHandler) PlaceBid(ctx context.Context, subject string, in *PlaceBidMessage) (interface{}, error) {
	bid, err := h.negotiation.PlaceBid(ctx, subject, in.RequestID, service.PlaceBidInput{Price: in.Price, Pitch: in.Pitch})
	if err != nil {
		return nil, err
	}
	return toBidResponse(*bid), nil
}

func (h *GRPCHandler) RespondToBid(ctx context.Context, subject string, in *RespondMessage) (interface{}, error) {
	resp, err := h.negotiation.RespondToBid(ctx, subject, in.RequestID, in.BidID, domain.BidAction(in.Action))
	if err != nil {
		return nil, err
	}
	return toRespondResponse(resp), nil
}

func (h *GRPCHandler) CreateBooking(ctx context.Context, subject string, in *CreateBookingBody) (interface{}, error) {
	booking, err := h.bookings.CreateBooking(ctx, subject, service.CreateBookingInput{ServiceID: in.ServiceID, Date: in.Date})
	if err != nil {
		return nil, err
	}
	return toBookingResponse(*booking), nil
}

func (h *GRPCHandler) ListBookings(ctx context.Context, subject string, _ *Empty) (interface{}, error) {
	bookings, err := h.bookings.ListBookings(ctx, subject)
	if err != nil {
		return nil, err
	}
	return toBookingResponses(bookings), nil
}

func (h *GRPCHandler) UpdateBookingStatus(ctx context.Context, subject string, in *UpdateStatusMessage) (interface{}, error) {
	booking, err := h.bookings.UpdateBookingStatus(ctx, subject, in.BookingID, domain.BookingStatus(in.Status))
	if err != nil {
		return nil, err
	}
	return toBookingResponse(*booking), nil
}

func (h *GRPCHandler) CreatePass(ctx context.Context, subject string, in *CreatePassBody) (interface{}, error) {
	pass, err := h.passes.CreatePass(ctx, subject, in.input())
	if err != nil {
		return nil, err
	}
	return toPassResponse(*pass), nil
}

func (h *GRPCHandler) ListPasses(ctx context.Context, _ string, _ *Empty) (interface{}, error) {
	passes, err := h.passes.ListActivePasses(ctx)
	if err != nil {
		return nil, err
	}
	return toPassResponses(passes), nil
}

func (h *GRPCHandler) ListMyPurchases(ctx context.Context, subject string, _ *Empty) (interface{}, error) {
	purchases, err := h.passes.ListMyPurchases(ctx, subject)
	if err != nil {
		return nil, err
	}
	return toPurchaseResponses(purchases), nil
}

func (h *GRPCHandler) PurchasePass(ctx context.Context, subject string, in *PurchaseMessage) (interface{}, error) {
	purchase, err := h.passes.PurchasePass(ctx, subject, in.PassID, service.PurchaseInput{
		Quantity:       in.Quantity,
		AttendeeName:   in.AttendeeName,
		Email:          in.Email,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return toPurchaseResponse(*purchase), nil
}

// authenticate reads the bearer token from the authorization metadata.
func (h *GRPCHandler) authenticate(ctx context.Context) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", domain.ErrUnauthenticated
	}

	token, ok := bearer(values[0])
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return h.verifier.Verify(ctx, token)
}

func toStatus(err error) error {
	kind := classify(err)
	message := err.Error()
	if kind == internalKind {
		message = "internal error"
	}
	return status.Error(kind.grpc, message)
}

// unary adapts a typed call to a grpc.MethodDesc. Public methods skip
// authentication.
func unary[Req any](name string, public bool, call func(*GRPCHandler, context.Context, string, *Req) (interface{}, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, toStatus(domain.ErrValidation)
			}

			h := srv.(*GRPCHandler)
			handle := func(ctx context.Context, req interface{}) (interface{}, error) {
				var subject string
				if !public {
					var err error
					if subject, err = h.authenticate(ctx); err != nil {
						return nil, toStatus(err)
					}
				}

				out, err := call(h, ctx, subject, req.(*Req))
				if err != nil {
					return nil, toStatus(err)
				}
				return out, nil
			}

			if interceptor == nil {
				return handle(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handle)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{
		unary("OpenRequest", false, (*GRPCHandler).OpenRequest),
		unary("ListRequests", false, (*GRPCHandler).ListRequests),
		unary("GetRequest", false, (*GRPCHandler).GetRequest),
		unary("PlaceBid", false, (*GRPCHandler).PlaceBid),
		unary("RespondToBid", false, (*GRPCHandler).RespondToBid),
		unary("CreateBooking", false, (*GRPCHandler).CreateBooking),
		unary("ListBookings", false, (*GRPCHandler).ListBookings),
		unary("UpdateBookingStatus", false, (*GRPCHandler).UpdateBookingStatus),
		unary("CreatePass", false, (*GRPCHandler).CreatePass),
		unary("ListPasses", true, (*GRPCHandler).ListPasses),
		unary("ListMyPurchases", false, (*GRPCHandler).ListMyPurchases),
		unary("PurchasePass", false, (*GRPCHandler).PurchasePass),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace",
}

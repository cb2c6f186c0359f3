package handler

import (
	"context"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rl1809/marketplace/internal/adapter/storage"
	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/core/service"
	"github.com/rl1809/marketplace/internal/port"
)

// tokenVerifier accepts "token-<subject>" credentials.
type tokenVerifier struct{}

func (tokenVerifier) Verify(ctx context.Context, credential string) (string, error) {
	const prefix = "token-"
	if len(credential) <= len(prefix) || credential[:len(prefix)] != prefix {
		return "", domain.ErrUnauthenticated
	}
	return credential[len(prefix):], nil
}

type testEnv struct {
	store    port.Store
	profiles *storage.ProfileDirectory
	catalog  *storage.Catalog
	http     *HTTPHandler
	grpc     *GRPCHandler
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewMemoryAdapter()
	tables := port.NewTables(store)
	profiles := storage.NewProfileDirectory(tables)
	catalog := storage.NewCatalog(tables)
	logger := zap.NewNop()
	gate := service.NewGate(profiles, logger)

	negotiation := service.NewNegotiationService(gate, tables, nil, logger, service.NegotiationConfig{})
	bookings := service.NewBookingService(gate, tables, catalog, nil, logger)
	passes := service.NewPassService(gate, tables, storage.NewMemoryIdempotency(time.Hour), nil, logger, service.PassConfig{})

	httpHandler := NewHTTPHandler(negotiation, bookings, passes, store)
	router := gin.New()
	router.Use(RequestID(), Logger(logger))
	httpHandler.Register(router, tokenVerifier{})

	return &testEnv{
		store:    store,
		profiles: profiles,
		catalog:  catalog,
		http:     httpHandler,
		grpc:     NewGRPCHandler(negotiation, bookings, passes, tokenVerifier{}),
		router:   router,
	}
}

func (e *testEnv) user(t *testing.T, role domain.Role, name string) string {
	t.Helper()
	id, err := e.profiles.CreateProfile(context.Background(), domain.Profile{
		Role:          role,
		DisplayName:   name,
		ProfileStatus: domain.ProfileStatusActive,
	})
	require.NoError(t, err)
	return id
}

package v1

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"github.com/duynhne/portfolio-service/config"
	"github.com/duynhne/portfolio-service/internal/core/cache"
	"github.com/duynhne/portfolio-service/internal/core/repository/mongodb"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	"github.com/duynhne/portfolio-service/middleware"
)

func newRouter(service *logicv1.ProfileService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware(zap.NewNop()))
	NewProfileHandler(service).RegisterRoutes(r.Group("/api"))
	return r
}

func TestGetProfile_CachedProfileWhileDatabaseDown(t *testing.T) {
	s := newTestServer(t)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	profileCache, err := cache.NewProfileCache(context.Background(), config.CacheConfig{Addr: mr.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = profileCache.Close() })

	s.router = newRouter(logicv1.NewProfileService(s.store, s.store, profileCache, s.store))

	w, _ := s.post(t, "/api/getProfile", map[string]any{"userId": "12345"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, mr.Exists("profile:12345"))

	require.NoError(t, s.store.Close(context.Background()))

	w, body := s.post(t, "/api/getProfile", map[string]any{"userId": "12345"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]any{"error": "Internal Server Error"}, body)
}

func TestEndpoints_MongoFailure(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	unreachable := mtest.CommandError{
		Code:    6,
		Name:    "HostUnreachable",
		Message: "connection refused",
	}

	tests := []struct {
		path string
		body map[string]any
	}{
		{"/api/getProfile", map[string]any{"userId": "12345"}},
		{"/api/editUser", map[string]any{"_id": "12345", "city": "London"}},
		{"/api/editPortfolio", map[string]any{"_id": "67890", "strategy": "income"}},
	}

	for _, tt := range tests {
		mt.Run(tt.path, func(mt *mtest.T) {
			// the driver retries once on HostUnreachable
			mt.AddMockResponses(
				mtest.CreateCommandErrorResponse(unreachable),
				mtest.CreateCommandErrorResponse(unreachable),
			)

			service := logicv1.NewProfileService(
				mongodb.NewUserRepository(mt.DB),
				mongodb.NewPortfolioRepository(mt.DB),
				nil, nil,
			)
			s := &testServer{router: newRouter(service)}

			w, body := s.post(mt.T, tt.path, tt.body)

			assert.Equal(mt, http.StatusInternalServerError, w.Code)
			assert.Equal(mt, map[string]any{"error": "Internal Server Error"}, body)
		})
	}
}

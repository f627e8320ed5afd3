package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/apis/dtos"
	"docquery-ai/internal/models"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return NewService(client, NewStore(), zap.NewNop()), srv
}

func TestLoginSetsUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req dtos.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dev@docquery.local", req.Email)

		json.NewEncoder(w).Encode(dtos.SessionResponse{
			User:            &models.User{Email: req.Email, Role: "admin"},
			IsAuthenticated: true,
		})
	})
	service, _ := newTestService(t, mux)

	err := service.Login(context.Background(), "dev@docquery.local", "secret123")
	require.NoError(t, err)

	store := service.Store()
	assert.True(t, store.IsAuthenticated())
	assert.False(t, store.IsAnonymous())
	assert.False(t, store.IsLoading())
	require.NotNil(t, store.User())
	assert.Equal(t, "dev@docquery.local", store.User().Email)
}

func TestLoginRejectedLeavesStoreAnonymous(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	service, _ := newTestService(t, mux)

	err := service.Login(context.Background(), "dev@docquery.local", "wrong")
	require.Error(t, err)
	assert.False(t, service.Store().IsAuthenticated())
}

func TestLogoutClearsStore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {})
	service, _ := newTestService(t, mux)

	service.Store().SetUser(&models.User{Email: "dev@docquery.local"})
	require.True(t, service.Store().IsAuthenticated())

	require.NoError(t, service.Logout(context.Background()))
	assert.False(t, service.Store().IsAuthenticated())
	assert.True(t, service.Store().IsAnonymous())
	assert.Nil(t, service.Store().User())
}

func TestCheckSessionAuthenticated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(dtos.SessionResponse{
			User:            &models.User{Email: "dev@docquery.local"},
			IsAuthenticated: true,
		})
	})
	service, _ := newTestService(t, mux)

	require.NoError(t, service.CheckSession(context.Background()))
	assert.True(t, service.Store().IsAuthenticated())
	assert.False(t, service.Store().IsLoading())
}

func TestCheckSessionAnonymousIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	service, _ := newTestService(t, mux)

	require.NoError(t, service.CheckSession(context.Background()))
	assert.False(t, service.Store().IsAuthenticated())
	assert.True(t, service.Store().IsAnonymous())
	assert.False(t, service.Store().IsLoading())
}

func TestStoreStartsLoading(t *testing.T) {
	store := NewStore()
	assert.True(t, store.IsLoading())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsAnonymous(), "anonymous is only known after the probe")
}

func TestStoreUserReturnsCopy(t *testing.T) {
	store := NewStore()
	store.SetUser(&models.User{Email: "dev@docquery.local"})

	user := store.User()
	user.Email = "mutated"
	assert.Equal(t, "dev@docquery.local", store.User().Email)
}

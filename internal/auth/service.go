package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/apis/dtos"
)

// Service drives the auth endpoints and keeps the session store in sync.
type Service struct {
	client *apiclient.Client
	store  *Store
	logger *zap.Logger
}

func NewService(client *apiclient.Client, store *Store, logger *zap.Logger) *Service {
	return &Service{
		client: client,
		store:  store,
		logger: logger,
	}
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.DoJSON(ctx, http.MethodPost, "/api/auth/login", dtos.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}

	var session dtos.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	s.store.SetUser(session.User)
	s.logger.Info("logged in", zap.String("email", email))
	return nil
}

func (s *Service) Logout(ctx context.Context) error {
	resp, err := s.client.DoJSON(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	resp.Body.Close()
	s.store.Clear()
	return nil
}

// CheckSession runs the bootstrap session probe. An unauthenticated result
// is not an error; it marks the store anonymous.
func (s *Service) CheckSession(ctx context.Context) error {
	s.store.SetLoading(true)

	resp, err := s.client.DoJSON(ctx, http.MethodGet, "/api/auth/session", nil)
	if err != nil {
		s.store.Clear()
		if errors.Is(err, apiclient.ErrSessionExpired) {
			return nil
		}
		return fmt.Errorf("session check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.store.Clear()
		return nil
	}

	var session dtos.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		s.store.Clear()
		return fmt.Errorf("failed to decode session response: %w", err)
	}
	s.store.SetUser(session.User)
	return nil
}

package di

import (
	"log"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"docquery-ai/config"
	"docquery-ai/internal/apiclient"
	"docquery-ai/internal/auth"
	"docquery-ai/internal/chat"
	"docquery-ai/internal/documents"
	"docquery-ai/internal/stream"
	"docquery-ai/pkg/logger"
)

var DiContainer *dig.Container

func Initialize() {
	DiContainer = dig.New()

	zapLogger := logger.New(config.Env.Environment)

	// Initialize API client with the session-expired hook. The CLI has no
	// login screen to redirect to, so the hook just tells the user where
	// to go.
	apiClient, err := apiclient.New(
		config.Env.APIBaseURL,
		time.Second*time.Duration(config.Env.RequestTimeoutSecs),
		zapLogger,
		apiclient.WithSessionExpiredHook(func() {
			zapLogger.Warn("session expired, log in again",
				zap.String("login_path", config.Env.LoginPath))
		}),
	)
	if err != nil {
		log.Fatalf("Failed to initialize API client: %v", err)
	}

	// Provide all dependencies to the container
	if err := DiContainer.Provide(func() *zap.Logger { return zapLogger }); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	if err := DiContainer.Provide(func() *apiclient.Client { return apiClient }); err != nil {
		log.Fatalf("Failed to provide API client: %v", err)
	}

	if err := DiContainer.Provide(func(c *apiclient.Client, l *zap.Logger) *stream.Streamer {
		return stream.NewStreamer(c.BaseURL(), c.StreamClient(), l)
	}); err != nil {
		log.Fatalf("Failed to provide streamer: %v", err)
	}

	if err := DiContainer.Provide(func() *chat.Store { return chat.NewStore() }); err != nil {
		log.Fatalf("Failed to provide chat store: %v", err)
	}

	if err := DiContainer.Provide(func(store *chat.Store, streamer *stream.Streamer, l *zap.Logger) *chat.Session {
		return chat.NewSession(store, streamer, l)
	}); err != nil {
		log.Fatalf("Failed to provide chat session: %v", err)
	}

	if err := DiContainer.Provide(func() *auth.Store { return auth.NewStore() }); err != nil {
		log.Fatalf("Failed to provide auth store: %v", err)
	}

	if err := DiContainer.Provide(func(c *apiclient.Client, store *auth.Store, l *zap.Logger) *auth.Service {
		return auth.NewService(c, store, l)
	}); err != nil {
		log.Fatalf("Failed to provide auth service: %v", err)
	}

	if err := DiContainer.Provide(func(c *apiclient.Client, l *zap.Logger) *documents.Service {
		return documents.NewService(c, l)
	}); err != nil {
		log.Fatalf("Failed to provide documents service: %v", err)
	}
}

// GetChatSession retrieves the chat session from the DI container
func GetChatSession() (*chat.Session, error) {
	var session *chat.Session
	err := DiContainer.Invoke(func(s *chat.Session) {
		session = s
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetAuthService retrieves the auth service from the DI container
func GetAuthService() (*auth.Service, error) {
	var service *auth.Service
	err := DiContainer.Invoke(func(s *auth.Service) {
		service = s
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

// GetDocumentsService retrieves the documents service from the DI container
func GetDocumentsService() (*documents.Service, error) {
	var service *documents.Service
	err := DiContainer.Invoke(func(s *documents.Service) {
		service = s
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

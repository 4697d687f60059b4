package telegram

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// SecretHeader carries the secret registered with SetWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookServer receives pushed updates for one or more bots and serves a
// health endpoint.
type WebhookServer struct {
	router chi.Router
	secret string
	logger *slog.Logger
}

// NewWebhookServer creates a router. An empty secret accepts every request.
func NewWebhookServer(secret string, health *observability.HealthRegistry, logger *slog.Logger) *WebhookServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &WebhookServer{router: chi.NewRouter(), secret: secret, logger: logger}
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Get("/healthz", healthHandler(health))
	return s
}

// Mount routes POST requests on path to handler.
func (s *WebhookServer) Mount(path string, handler Handler) {
	s.router.Post(path, s.receive(handler))
}

// ServeHTTP implements http.Handler.
func (s *WebhookServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *WebhookServer) receive(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(s.secret)) != 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.logger.Warn("invalid webhook body", "error", err, "path", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// Telegram may drop the connection; the update is processed anyway.
		handler.HandleUpdate(context.WithoutCancel(r.Context()), fromAPIUpdate(update))
		w.WriteHeader(http.StatusOK)
	}
}

func healthHandler(health *observability.HealthRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := observability.OverallHealth{Status: observability.HealthStatusHealthy}
		if health != nil {
			report = health.Check(r.Context())
		}
		status := http.StatusOK
		if report.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}

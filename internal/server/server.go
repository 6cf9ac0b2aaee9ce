// Package server exposes the inbound webhook endpoints. One endpoint per
// platform; each decodes, normalizes and hands the event to the dispatcher.
// Event-level failures are logged and acked so platforms do not retry them.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/topicbridge/internal/config"
	"github.com/nextlevelbuilder/topicbridge/internal/update"
)

// maxBodyBytes bounds webhook request bodies.
const maxBodyBytes = 1 << 20

// Dispatcher routes a normalized event. Satisfied by dispatch.Dispatcher.
type Dispatcher interface {
	Dispatch(ctx context.Context, u *update.Update) error
}

// Server is the webhook HTTP listener.
type Server struct {
	cfg        config.ServerConfig
	vkConf     string
	dispatcher Dispatcher
	limiter    *WebhookRateLimiter

	httpServer *http.Server
	mux        *http.ServeMux
}

// New creates the webhook server.
func New(cfg *config.Config, d Dispatcher) *Server {
	return &Server{
		cfg:        cfg.Server,
		vkConf:     cfg.VK.Confirmation,
		dispatcher: d,
		limiter:    NewWebhookRateLimiter(cfg.Server.RateLimitRPM),
	}
}

// BuildMux creates and caches the HTTP mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/telegram", s.handleTelegram)
	mux.HandleFunc("POST /webhook/vk", s.handleVK)
	mux.HandleFunc("POST /webhook/external", s.handleExternal)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.mux = mux
	return mux
}

// Start runs the listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := s.BuildMux()

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("webhook server starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("webhook server: %w", err)
	}
	return nil
}

func (s *Server) handleTelegram(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret != "" {
		got := r.Header.Get("X-Telegram-Bot-Api-Secret-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.WebhookSecret)) != 1 {
			slog.Warn("telegram webhook rejected", "reason", "bad secret token")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	body, err := readBody(w, r)
	if err != nil {
		return
	}

	var tg telego.Update
	if err := json.Unmarshal(body, &tg); err != nil {
		slog.Warn("telegram webhook undecodable", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	u, err := update.FromTelegram(tg)
	if err != nil {
		slog.Warn("telegram event discarded", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	s.dispatch(r.Context(), w, u)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleVK(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		return
	}

	// VK re-delivers anything not answered with the literal "ok", so the
	// endpoint always answers "ok" once the body is read.
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.Warn("vk webhook undecodable", "error", err)
		io.WriteString(w, "ok")
		return
	}

	if envelope.Type == update.VKConfirmation {
		io.WriteString(w, s.vkConf)
		return
	}

	u, err := update.FromVK(body)
	if err != nil {
		slog.Warn("vk event discarded", "error", err)
		io.WriteString(w, "ok")
		return
	}

	s.dispatch(r.Context(), w, u)
	io.WriteString(w, "ok")
}

func (s *Server) handleExternal(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebhookSecret != "" {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.WebhookSecret)) != 1 {
			slog.Warn("external webhook rejected", "reason", "bad bearer token")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := readBody(w, r)
	if err != nil {
		return
	}

	u, err := update.FromExternal(body)
	if err != nil {
		slog.Warn("external event discarded", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	s.dispatch(r.Context(), w, u)
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"status":"ok"}`)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	io.WriteString(w, `{"status":"ok"}`)
}

// dispatch rate-limits by chat and runs the event. Failures are logged, never
// surfaced to the platform; a non-2xx would only trigger redelivery of an
// event that will fail the same way again.
func (s *Server) dispatch(ctx context.Context, w http.ResponseWriter, u *update.Update) {
	if u.ChatID != "" && !s.limiter.Allow(string(u.Platform)+":"+u.ChatID) {
		slog.Warn("webhook rate limited", "platform", u.Platform, "chat_id", u.ChatID)
		return
	}
	if err := s.dispatcher.Dispatch(ctx, u); err != nil {
		slog.Error("dispatch failed", "platform", u.Platform, "event", u.Event, "chat_id", u.ChatID, "error", err)
	}
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, errors.New("read body")
	}
	return body, nil
}

// Package webhook receives Telegram updates over HTTP.
package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
)

const (
	maxUpdateBytes = 1 << 20
	secretHeader   = "X-Telegram-Bot-Api-Secret-Token"
)

// Dispatcher accepts updates for asynchronous handling.
type Dispatcher interface {
	Dispatch(ctx context.Context, update tgbotapi.Update)
}

// NewRouter serves POST /{path} for updates and GET /health. Updates must carry
// secret in the Telegram secret-token header. They are handled with ctx, not the
// request context, since handling outlives the request.
func NewRouter(ctx context.Context, path, secret string, d Dispatcher) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintln(w, "OK"); err != nil {
			log.Printf("⚠️ health write failed: %v", err)
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/"+strings.Trim(path, "/"), func(w http.ResponseWriter, r *http.Request) {
		if secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(secretHeader)), []byte(secret)) != 1 {
			log.Printf("⚠️ rejected webhook request from %s: bad secret token", r.RemoteAddr)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var update tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
			log.Printf("⚠️ bad webhook payload: %v", err)
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		d.Dispatch(ctx, update)
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodPost)
	return r
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string, h http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 Webhook server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown webhook server: %w", err)
	}
	log.Println("🌐 Webhook server stopped")
	return nil
}

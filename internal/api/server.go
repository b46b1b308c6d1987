package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"turfbook/internal/config"
	"turfbook/internal/database"
	"turfbook/internal/events"
	"turfbook/internal/service"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking API on the legacy single-endpoint
// contract: every call is a GET or POST against "/" (or "/exec") with an
// "action" selector, and errors are reported in-band with HTTP 200.
type HTTPServer struct {
	cfg          *config.Config
	db           *database.DB
	bookings     *service.BookingService
	availability *service.AvailabilityService
	bus          *events.Bus
	logger       *zerolog.Logger
}

func NewHTTPServer(
	cfg *config.Config,
	db *database.DB,
	bookings *service.BookingService,
	availability *service.AvailabilityService,
	bus *events.Bus,
	logger *zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		cfg:          cfg,
		db:           db,
		bookings:     bookings,
		availability: availability,
		bus:          bus,
		logger:       logger,
	}
}

// Handler builds the full route set with CORS applied. The booking page
// is a static site on another origin, so the browser preflights every
// POST.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleScript)
	mux.HandleFunc("/exec", s.handleScript)
	mux.Handle("/uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(s.cfg.Uploads.Dir))))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	s.logger.Info().Int("port", s.cfg.Server.Port).Msg("booking API started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RyanBlaney/sonido-xform/config"
	"github.com/RyanBlaney/sonido-xform/features"
	"github.com/RyanBlaney/sonido-xform/logging"
	"github.com/RyanBlaney/sonido-xform/synth"
	"github.com/RyanBlaney/sonido-xform/transcode"
)

// Server is the HTTP front end for analysis, melody extraction and rendering
type Server struct {
	config   *config.Config
	router   *chi.Mux
	logger   logging.Logger
	decoder  *transcode.Decoder
	renderer *synth.Renderer
}

// New creates a server from cfg; a nil cfg means config.Default()
func New(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Validate()

	decoderConfig := cfg.Decoder
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		decoder:  transcode.NewDecoder(&decoderConfig),
		renderer: synth.NewRenderer(),
		logger: logging.WithFields(logging.Fields{
			"component": "http_server",
		}),
	}

	s.setupRoutes()
	return s
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/melody", s.handleMelody)
		r.Post("/render", s.handleRender)
	})
}

// requestLogger stores request fields in the context and logs each request at debug level
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithFields(r.Context(), logging.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"route":      r.URL.Path,
		})
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.WithContext(ctx).Debug("Request handled", logging.Fields{
			"method":      r.Method,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// Run serves on the configured address until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	if err := s.decoder.ValidateConfig(ctx); err != nil {
		s.logger.Warn("Only WAV uploads can be decoded", logging.Fields{"error": err.Error()})
	}

	srv := &http.Server{
		Addr:         s.config.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", logging.Fields{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// analyzer returns a feature analyzer with per-request overrides of the configured framing
func (s *Server) analyzer(frameSize, hopSize int) *features.Analyzer {
	cfg := s.config.Analysis
	if frameSize > 0 {
		cfg.FrameSize = frameSize
	}
	if hopSize > 0 {
		cfg.HopSize = hopSize
	}
	return features.NewAnalyzer(cfg)
}

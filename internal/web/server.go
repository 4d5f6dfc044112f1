// Package web serves the chat form: one page per browser session with its own
// transcript, all sessions sharing a single conversation handle.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ragchat/internal/metrics"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Answerer is the part of the conversation handle the server needs.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Options configures the HTTP server.
type Options struct {
	Addr          string
	SessionCookie string
	SessionTTL    time.Duration
	// Metrics is optional; when set /metrics is served and the session gauge kept current.
	Metrics *metrics.Metrics
}

// Server is the HTTP front end.
type Server struct {
	options  Options
	answerer Answerer
	sessions *SessionStore
	logger   zerolog.Logger
}

type pageData struct {
	Transcript []Turn
	Question   string
	Error      string
}

func NewServer(options Options, answerer Answerer, logger zerolog.Logger) (*Server, error) {
	if answerer == nil {
		return nil, errors.New("answerer is required")
	}
	if options.Addr == "" {
		options.Addr = "0.0.0.0:5000"
	}
	if options.SessionCookie == "" {
		options.SessionCookie = "ragchat_session"
	}
	sessions := NewSessionStore(options.SessionTTL)
	if options.Metrics != nil {
		sessions.onChange = options.Metrics.SetSessions
	}
	return &Server{
		options:  options,
		answerer: answerer,
		sessions: sessions,
		logger:   logger.With().Str("component", "web").Logger(),
	}, nil
}

// Sessions exposes the session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.options.Metrics != nil {
		mux.Handle("/metrics", s.options.Metrics.Handler())
	}
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.options.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.options.Addr).Msg("Starting web server")
		errCh <- srv.ListenAndServe()
	}()

	sweep := time.NewTicker(time.Minute)
	defer sweep.Stop()

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("web server: %w", err)
		case <-sweep.C:
			if n := s.sessions.Sweep(); n > 0 {
				s.logger.Debug().Int("expired", n).Msg("Dropped idle sessions")
			}
		case <-ctx.Done():
			s.logger.Info().Msg("Shutting down web server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown web server: %w", err)
			}
			return nil
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, transcript, err := s.session(w, r)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create session")
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	data := pageData{Transcript: transcript}
	status := http.StatusOK

	if r.Method == http.MethodPost {
		question := strings.TrimSpace(r.FormValue("question"))
		if question != "" {
			answer, err := s.answerer.Answer(r.Context(), question)
			if err != nil {
				s.logger.Error().Err(err).Str("session", id).Msg("Answer failed")
				data.Question = question
				data.Error = err.Error()
				status = http.StatusBadGateway
			} else {
				turn := Turn{Question: question, Answer: answer}
				data.Transcript = append(data.Transcript, turn)
				if !s.sessions.Append(id, turn) {
					s.logger.Warn().Str("session", id).Msg("Session expired while answering, starting a new one")
					s.resume(w, data.Transcript)
				}
			}
		}
	}

	s.render(w, status, data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// session resolves the caller's session, issuing a fresh cookie when the
// cookie is missing, unknown or expired.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, []Turn, error) {
	if c, err := r.Cookie(s.options.SessionCookie); err == nil {
		if turns, ok := s.sessions.Transcript(c.Value); ok {
			return c.Value, turns, nil
		}
	}
	id, err := s.sessions.Create()
	if err != nil {
		return "", nil, err
	}
	s.setCookie(w, id)
	return id, nil, nil
}

// resume carries a transcript over into a fresh session when the original
// one vanished mid-request.
func (s *Server) resume(w http.ResponseWriter, turns []Turn) {
	id, err := s.sessions.Create()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create session")
		return
	}
	for _, t := range turns {
		s.sessions.Append(id, t)
	}
	s.setCookie(w, id)
}

func (s *Server) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.options.SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(sb.String()))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("Request")
	})
}

// Package server is the HTTP front end: upload an export and get its report
// back as JSON, or browse the chats already in the index.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Zuo-Peng/wachat-insights/internal/archive"
	"github.com/Zuo-Peng/wachat-insights/internal/index"
	"github.com/Zuo-Peng/wachat-insights/internal/parse"
	"github.com/Zuo-Peng/wachat-insights/internal/report"
	"github.com/Zuo-Peng/wachat-insights/internal/stats"
)

type Options struct {
	Parse          parse.Options
	StopWords      stats.StopSet
	MaxUploadBytes int64
}

type Server struct {
	db   *index.DB
	opts Options
}

func New(db *index.DB, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	return &Server{db: db, opts: opts}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/chats", s.handleChats)
		r.Get("/chats/{chatKey}/report", s.handleChatReport)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, newError(ErrorNotFound, "no such route", nil))
	})
	return r
}

// ListenAndServe serves h on addr until ctx is cancelled.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// request reads the report knobs shared by every report endpoint.
func (s *Server) request(r *http.Request) (report.Request, error) {
	req := report.Request{
		Sender:    r.FormValue("sender"),
		StopWords: s.opts.StopWords,
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"top", &req.TopN}, {"bins", &req.Bins}} {
		v := r.FormValue(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return req, newError(ErrorInvalidInput, fmt.Sprintf("%s must be a positive integer", p.name), nil)
		}
		*p.dst = n
	}
	return req, nil
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.MaxUploadBytes
	if r.ContentLength > limit {
		writeError(w, r, newError(ErrorTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit), nil))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var sizeErr *http.MaxBytesError
		if errors.As(err, &sizeErr) {
			writeError(w, r, err)
			return
		}
		writeError(w, r, newError(ErrorInvalidInput, "expected a multipart form", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, newError(ErrorInvalidInput, `form field "file" is required`, nil))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req, err := s.request(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	text, err := archive.Extract(data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := parse.ParseWithOptions(text, s.opts.Parse)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := report.Build(msgs, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleChats(w http.ResponseWriter, r *http.Request) {
	chats, err := s.db.ListChats()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if chats == nil {
		chats = []index.ChatRow{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

func (s *Server) handleChatReport(w http.ResponseWriter, r *http.Request) {
	chatKey, err := url.PathUnescape(chi.URLParam(r, "chatKey"))
	if err != nil {
		writeError(w, r, newError(ErrorInvalidInput, "malformed chat key", err))
		return
	}
	chat, err := s.db.GetChat(chatKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if chat == nil {
		writeError(w, r, newError(ErrorNotFound, fmt.Sprintf("chat %q is not indexed", chatKey), nil))
		return
	}

	req, err := s.request(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	msgs, err := s.db.GetMessages(chatKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := report.Build(msgs, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chat": chat, "report": rep})
}

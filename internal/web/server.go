package web

import (
	"context"
	"errors"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	ioutils "github.com/handiism/ultrastar-library/internal/io"
	"github.com/handiism/ultrastar-library/internal/log"
	"github.com/handiism/ultrastar-library/internal/model"
	"github.com/handiism/ultrastar-library/internal/store"
	"github.com/rs/zerolog"
)

// Library is the read side of the song library served over HTTP.
// library.Engine implements it.
type Library interface {
	FindSongs(ctx context.Context, conditions map[string]any) ([]*model.SongRecord, error)
	Song(ctx context.Context, id uint64) (*model.SongRecord, error)
	CoverPath(ctx context.Context, id uint64) (string, error)
	ListPlaylists(filter string) ([]string, error)
	LoadPlaylist(name string) (*model.PlaylistRecord, error)
}

// Server is a read-only JSON API over the library.
type Server struct {
	lib    Library
	images *ioutils.ImageService
	logger zerolog.Logger
	router chi.Router
}

// NewServer creates the HTTP handler.
func NewServer(lib Library, images *ioutils.ImageService, logger zerolog.Logger) *Server {
	s := &Server{
		lib:    lib,
		images: images,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, s.recoverer)
	r.Get("/songs", s.getSongs)
	r.Get("/songs/{id}", s.getSong)
	r.Get("/songs/{id}/cover", s.getSongCover)
	r.Get("/playlists", s.getPlaylists)
	r.Get("/playlists/{name}", s.getPlaylist)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("could not shut down server")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// getSongs lists songs. Query parameters named after songs columns filter
// the result, e.g. /songs?genre=Rock&language=English.
func (s *Server) getSongs(w http.ResponseWriter, r *http.Request) {
	conditions := map[string]any{}
	for key, values := range r.URL.Query() {
		if !slices.Contains(store.Columns, key) {
			s.renderError(w, http.StatusBadRequest, errors.New("unknown filter "+key))
			return
		}
		conditions[key] = values[0]
	}

	songs, err := s.lib.FindSongs(r.Context(), conditions)
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}

	views := make([]songView, len(songs))
	for i, song := range songs {
		views[i] = newSongView(song)
	}
	s.renderJSON(w, views)
}

func (s *Server) getSong(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err)
		return
	}

	song, err := s.lib.Song(r.Context(), id)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}

	s.renderJSON(w, newSongView(song))
}

func (s *Server) getSongCover(w http.ResponseWriter, r *http.Request) {
	id, err := extractID(r)
	if err != nil {
		s.renderError(w, http.StatusBadRequest, err)
		return
	}

	path, err := s.lib.CoverPath(r.Context(), id)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}

	thumbnail, err := s.images.Thumbnail(r.Context(), path)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(thumbnail)))
	w.Write(thumbnail)
}

func (s *Server) getPlaylists(w http.ResponseWriter, r *http.Request) {
	names, err := s.lib.ListPlaylists(r.URL.Query().Get("filter"))
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}
	s.renderJSON(w, names)
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := s.lib.LoadPlaylist(chi.URLParam(r, "name"))
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}
	s.renderJSON(w, newPlaylistView(playlist))
}

func (s *Server) renderJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("could not write response")
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("remote", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// recoverer turns a handler panic into a 500 and logs it through the
// server logger, stack trace included.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error().
				Func(log.Panic(rec)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("path", r.URL.Path).
				Msg("handler panicked")
			w.WriteHeader(http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

func extractID(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "id")
	return strconv.ParseUint(idStr, 10, 64)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Package web serves an upload page that turns an image into a palette.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/setanarut/palettegen"
	"github.com/setanarut/palettegen/utils"
)

const (
	DefaultTitle    = "Image Colour Palette Generator"
	DefaultSubtitle = "Upload your image and we'll show you the top 10 most common colours in your image!"

	UploadFailTitle    = "Upload Failed"
	UploadFailSubtitle = "Sorry, no image was uploaded or your image failed to upload. " +
		"Check if your file has a valid extension (.png, .jpg, .jpeg)."

	UploadSuccessTitle    = "Upload Successful!"
	UploadSuccessSubtitle = "Your image was uploaded successfully!"

	DefaultMaxUploadBytes = 32 << 20
)

//go:embed templates/*.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// Result is what one request hands to the page template. It lives only for
// that request.
type Result struct {
	Title    string
	Subtitle string
	Swatches []palettegen.Swatch
}

type Options struct {
	Palette        palettegen.Options
	MaxUploadBytes int64
}

type Server struct {
	logger  *slog.Logger
	options Options
	mux     *http.ServeMux
}

func NewServer(logger *slog.Logger, options Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = DefaultMaxUploadBytes
	}
	options.Palette = options.Palette.Normalized()

	s := &Server{
		logger:  logger,
		options: options,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /upload", s.handleUpload)
	s.mux.HandleFunc("POST /api/palette", s.handleAPIPalette)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.logger.Info("request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, Result{Title: DefaultTitle, Subtitle: DefaultSubtitle})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	p, err := s.paletteFromRequest(w, r)
	if err != nil {
		s.logger.Warn("upload rejected", "err", err)
		s.render(w, http.StatusOK, Result{Title: UploadFailTitle, Subtitle: UploadFailSubtitle})
		return
	}
	s.render(w, http.StatusOK, Result{
		Title:    UploadSuccessTitle,
		Subtitle: UploadSuccessSubtitle,
		Swatches: p.Swatches,
	})
}

func (s *Server) handleAPIPalette(w http.ResponseWriter, r *http.Request) {
	p, err := s.paletteFromRequest(w, r)
	if err != nil {
		s.logger.Warn("palette request rejected", "err", err)
		status := http.StatusBadRequest
		if errors.Is(err, utils.ErrUnsupportedFile) {
			status = http.StatusUnsupportedMediaType
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

var errNoFile = errors.New("no file uploaded")

func (s *Server) paletteFromRequest(w http.ResponseWriter, r *http.Request) (palettegen.Palette, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.options.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return palettegen.Palette{}, errNoFile
		}
		return palettegen.Palette{}, fmt.Errorf("read upload: %w", err)
	}
	defer file.Close()

	if header.Filename == "" {
		return palettegen.Palette{}, errNoFile
	}
	if !utils.AllowedFile(header.Filename) {
		return palettegen.Palette{}, fmt.Errorf("%s: %w", header.Filename, utils.ErrUnsupportedFile)
	}

	img, err := utils.DecodeImage(file)
	if err != nil {
		return palettegen.Palette{}, err
	}
	p, err := palettegen.Extract(img, s.options.Palette)
	if err != nil {
		return palettegen.Palette{}, fmt.Errorf("extract palette: %w", err)
	}
	s.logger.Debug("palette extracted",
		"file", header.Filename,
		"size", header.Size,
		"distinct", p.DistinctColors,
		"swatches", len(p.Swatches),
	)
	return p, nil
}

func (s *Server) render(w http.ResponseWriter, status int, result Result) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, result); err != nil {
		s.logger.Error("render index", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

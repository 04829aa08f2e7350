// Package web exposes the upload, validation, and download operations as a
// thin REST layer.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mailprobe/mailprobe/internal/ingestion"
	"github.com/mailprobe/mailprobe/internal/report"
	"github.com/mailprobe/mailprobe/internal/validation"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	ingestion  *ingestion.Service
	validation *validation.Service
	report     *report.Service
}

// NewHandler builds the chi router with all API routes and middleware.
func NewHandler(ingestionSvc *ingestion.Service, validationSvc *validation.Service, reportSvc *report.Service) http.Handler {
	h := &Handler{
		ingestion:  ingestionSvc,
		validation: validationSvc,
		report:     reportSvc,
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	router.Route("/api", func(r chi.Router) {
		r.Post("/uploads", h.handleUploadCSV)
		r.Get("/uploads", h.handleListUploads)
		r.Post("/uploads/{uploadID}/validate", h.handleValidate)
		r.Get("/uploads/{uploadID}/results", h.handleResults)
		r.Get("/uploads/{uploadID}/download", h.handleDownload)
	})

	return router
}

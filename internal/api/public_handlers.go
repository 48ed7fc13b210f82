package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	domainerrors "github.com/tagnestapp/tagnest-server/internal/errors"
	"github.com/tagnestapp/tagnest-server/internal/service"
)

func (s *Server) registerPublicRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPublicTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/t/{slug}",
		Summary:     "Public tag landing page",
		Description: "Returns the landing page data for a scanned tag. No authentication; increments the scan counter.",
		Tags:        []string{"Public"},
	}, s.handleGetPublicTag)

	// Direct chi route for image streaming, bypassing the JSON envelope.
	s.router.Get("/api/v1/t/{slug}/image", s.handleServeTagImage)
}

// === DTOs ===

// PublicTagInput addresses a tag by its public slug.
type PublicTagInput struct {
	Slug string `path:"slug" doc:"Public tag slug"`
}

// PublicTagOutput wraps the landing page data for Huma.
type PublicTagOutput struct {
	Body service.PublicTag
}

// === Handlers ===

func (s *Server) handleGetPublicTag(ctx context.Context, input *PublicTagInput) (*PublicTagOutput, error) {
	view, err := s.services.Tag.PublicView(ctx, input.Slug)
	if err != nil {
		return nil, err
	}

	return &PublicTagOutput{Body: *view}, nil
}

func (s *Server) handleServeTagImage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	data, err := s.services.Tag.GetImageBySlug(r.Context(), slug)
	if err != nil {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			writeErrorEnvelope(w, domainErr.HTTPStatus(), string(domainErr.Code), domainErr.Message)
			return
		}
		s.logger.Error("Failed to serve tag image", "slug", slug, "error", err)
		writeErrorEnvelope(w, http.StatusInternalServerError,
			string(domainerrors.CodeInternal), "failed to load image")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneDay)
	_, _ = w.Write(data)
}

package images

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Badsnus/festival-booking/cmd/app"
	"github.com/Badsnus/festival-booking/internal/adapters/controller/http/handlers/response"
	"github.com/Badsnus/festival-booking/internal/domain/entity"
	"github.com/Badsnus/festival-booking/pkg/logger/types"
	"github.com/go-chi/chi/v5"
)

type imageHost interface {
	Get(ctx context.Context, id string) (*entity.Image, error)
}

type Handler struct {
	logger    *types.Logger
	imageHost imageHost
}

func New(a *app.App) *Handler {
	return &Handler{
		logger:    a.Logger,
		imageHost: a.Images,
	}
}

func (h Handler) get(w http.ResponseWriter, r *http.Request) {
	image, err := h.imageHost.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, h.logger, r, err)
		return
	}
	w.Header().Set("Content-Type", image.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Data)))
	// Images are never rewritten under the same id.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Data)
}

func (h Handler) ImagesSetup(r chi.Router) {
	r.Get("/images/{id}", h.get)
}

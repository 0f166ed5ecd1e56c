package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clinicbook/internal/service"
)

// ServiceHandler serves the clinic's service catalogue
type ServiceHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewServiceHandler creates a new catalogue handler
func NewServiceHandler(catalog *service.CatalogService, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, logger: logger}
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.List(r.Context())
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "failed to list services", err)
		return
	}
	respondJSON(w, http.StatusOK, newServiceViews(services))
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	svc, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, err, "failed to get service")
		return
	}
	respondJSON(w, http.StatusOK, newServiceView(*svc))
}

// pathID parses a positive integer URL parameter, answering 400 when it is not one
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondMessage(w, http.StatusBadRequest, ErrInvalidID)
		return 0, false
	}
	return id, true
}

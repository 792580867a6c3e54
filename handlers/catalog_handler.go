package handlers

import (
	"net/http"

	"github.com/upb/llm-footprint/models"
	"github.com/upb/llm-footprint/services/footprint"
	"github.com/upb/llm-footprint/utils"
	"go.uber.org/zap"
)

// ModelLister lists the providers that can be invoked
type ModelLister interface {
	Entries() []models.RegistryEntry
}

// CatalogHandler serves the static provider and region tables
type CatalogHandler struct {
	registry  ModelLister
	estimator *footprint.Estimator
	logger    *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(registry ModelLister, estimator *footprint.Estimator, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		registry:  registry,
		estimator: estimator,
		logger:    logger,
	}
}

// HandleModels handles GET /api/v1/models
func (h *CatalogHandler) HandleModels(w http.ResponseWriter, r *http.Request) {
	if err := utils.WriteOK(w, h.registry.Entries()); err != nil {
		h.logger.Error("failed to write models response", zap.Error(err))
	}
}

// RegionsResponse lists the regions and the one used when a request names none
type RegionsResponse struct {
	Default string             `json:"default"`
	Regions []footprint.Region `json:"regions"`
}

// HandleRegions handles GET /api/v1/regions
func (h *CatalogHandler) HandleRegions(w http.ResponseWriter, r *http.Request) {
	response := RegionsResponse{
		Default: h.estimator.DefaultRegion().Name,
		Regions: h.estimator.Regions(),
	}
	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write regions response", zap.Error(err))
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"ontoview/application/layout"
	"ontoview/domain/core/valueobjects"
	"ontoview/pkg/common"
	pkgerrors "ontoview/pkg/errors"
	"ontoview/pkg/utils"
)

// LayoutHandler runs layout passes over HTTP
type LayoutHandler struct {
	coordinator *layout.Coordinator
	errors      *pkgerrors.ErrorHandler
	logger      *zap.Logger
}

// NewLayoutHandler creates a layout handler
func NewLayoutHandler(coordinator *layout.Coordinator, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *LayoutHandler {
	return &LayoutHandler{
		coordinator: coordinator,
		errors:      errorHandler,
		logger:      logger,
	}
}

// RunLayoutRequest is the body for POST /layout
type RunLayoutRequest struct {
	IDs        []string `json:"ids" validate:"required,min=1,max=5000"`
	Algorithm  string   `json:"algorithm,omitempty" validate:"omitempty,oneof=force grid"`
	Spacing    float64  `json:"spacing,omitempty" validate:"omitempty,gt=0"`
	Iterations int      `json:"iterations,omitempty" validate:"omitempty,gt=0,lte=10000"`
}

// Run handles POST /layout. The call blocks until the layout is applied or
// fails; a concurrent call supersedes this one.
func (h *LayoutHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunLayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ids := make([]valueobjects.ElementID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := valueobjects.NewElementIDFromString(raw)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		ids = append(ids, id)
	}

	opts := layout.DefaultOptions()
	if req.Algorithm != "" {
		opts.Algorithm = layout.Algorithm(req.Algorithm)
	}
	if req.Spacing > 0 {
		opts.Spacing = req.Spacing
	}
	if req.Iterations > 0 {
		opts.Iterations = req.Iterations
	}

	if err := h.coordinator.Run(r.Context(), ids, opts); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"elements":  len(ids),
		"algorithm": string(opts.Algorithm),
	})
}

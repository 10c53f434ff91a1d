package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontoview/application/services"
	"ontoview/domain/core/entities"
	"ontoview/domain/core/valueobjects"
	"ontoview/pkg/common"
	pkgerrors "ontoview/pkg/errors"
	"ontoview/pkg/utils"
)

// DiagramHandler exposes the diagram's elements and links over HTTP
type DiagramHandler struct {
	service *services.DiagramService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewDiagramHandler creates a diagram handler
func NewDiagramHandler(service *services.DiagramService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *DiagramHandler {
	return &DiagramHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// CreateElementRequest is the body for POST /elements
type CreateElementRequest struct {
	ID      string  `json:"id,omitempty" validate:"omitempty,max=500"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Virtual bool    `json:"virtual,omitempty"`
	Label   string  `json:"label,omitempty" validate:"omitempty,max=500"`
}

// CreateElement handles POST /elements
func (h *DiagramHandler) CreateElement(w http.ResponseWriter, r *http.Request) {
	var req CreateElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	id, err := valueobjects.NewElementIDFromString(req.ID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	position := valueobjects.Position{X: req.X, Y: req.Y}
	if req.Virtual {
		err = h.service.AddVirtualElement(id, req.Label, position)
	} else {
		err = h.service.AddElement(id, position)
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// ListElements handles GET /elements with page/page_size parameters
func (h *DiagramHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	params := common.ExtractPaginationParams(r)

	elements := h.service.ElementSnapshots()
	total := len(elements)

	start := params.CalculateOffset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}

	common.RespondJSON(w, http.StatusOK, common.NewPaginatedResult(elements[start:end], params.Page, params.PageSize, total))
}

// GetElement handles GET /elements/{elementID}
func (h *DiagramHandler) GetElement(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	snapshot, ok := h.service.ElementSnapshot(id)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("element", id.String()))
		return
	}
	common.RespondJSON(w, http.StatusOK, snapshot)
}

// DeleteElement handles DELETE /elements/{elementID}
func (h *DiagramHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.RemoveElement(id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveElementRequest is the body for PUT /elements/{elementID}/position
type MoveElementRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MoveElement handles PUT /elements/{elementID}/position
func (h *DiagramHandler) MoveElement(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req MoveElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.MoveElement(id, valueobjects.Position{X: req.X, Y: req.Y}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// ResizeElementRequest is the body for PUT /elements/{elementID}/size
type ResizeElementRequest struct {
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// ResizeElement handles PUT /elements/{elementID}/size
func (h *DiagramHandler) ResizeElement(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req ResizeElementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.ResizeElement(id, valueobjects.Size{Width: req.Width, Height: req.Height}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// SetExpandedRequest is the body for PUT /elements/{elementID}/expanded
type SetExpandedRequest struct {
	Expanded bool `json:"expanded"`
}

// SetExpanded handles PUT /elements/{elementID}/expanded
func (h *DiagramHandler) SetExpanded(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SetExpandedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.SetElementExpanded(id, req.Expanded); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// SetElementDataRequest is the body for PUT /elements/{elementID}/data
type SetElementDataRequest struct {
	Types      []string            `json:"types,omitempty" validate:"omitempty,max=100"`
	Label      string              `json:"label,omitempty" validate:"omitempty,max=1000"`
	Properties map[string][]string `json:"properties,omitempty"`
}

// SetElementData handles PUT /elements/{elementID}/data
func (h *DiagramHandler) SetElementData(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewElementIDFromString(chi.URLParam(r, "elementID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SetElementDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	data := entities.ElementData{
		Types:      req.Types,
		Label:      req.Label,
		Properties: req.Properties,
	}
	if err := h.service.SetElementData(id, data); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// HydrateRequest is the body for POST /elements/hydrate and POST /links/load
type HydrateRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=1000"`
}

func (req HydrateRequest) elementIDs() ([]valueobjects.ElementID, error) {
	ids := make([]valueobjects.ElementID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := valueobjects.NewElementIDFromString(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Hydrate handles POST /elements/hydrate, resolving placeholder elements
// against the data provider
func (h *DiagramHandler) Hydrate(w http.ResponseWriter, r *http.Request) {
	var req HydrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := req.elementIDs()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.RequestElementData(r.Context(), ids); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"requested": len(ids)})
}

// LoadLinks handles POST /links/load, discovering links among the given
// elements
func (h *DiagramHandler) LoadLinks(w http.ResponseWriter, r *http.Request) {
	var req HydrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ids, err := req.elementIDs()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	added, err := h.service.LoadLinks(r.Context(), ids)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]int{"added": added})
}

// CreateLinkRequest is the body for POST /links
type CreateLinkRequest struct {
	ID       string `json:"id,omitempty" validate:"omitempty,max=500"`
	SourceID string `json:"source_id" validate:"required,max=500"`
	TargetID string `json:"target_id" validate:"required,max=500"`
	TypeIRI  string `json:"type" validate:"required,max=1000"`
}

// CreateLink handles POST /links
func (h *DiagramHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	linkID, err := valueobjects.NewLinkIDFromString(req.ID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	sourceID, err := valueobjects.NewElementIDFromString(req.SourceID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	targetID, err := valueobjects.NewElementIDFromString(req.TargetID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.AddLink(linkID, sourceID, targetID, req.TypeIRI); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, map[string]string{"id": linkID.String()})
}

// ListLinks handles GET /links
func (h *DiagramHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.service.LinkSnapshots())
}

// DeleteLink handles DELETE /links/{linkID}
func (h *DiagramHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewLinkIDFromString(chi.URLParam(r, "linkID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.RemoveLink(id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetVerticesRequest is the body for PUT /links/{linkID}/vertices
type SetVerticesRequest struct {
	Vertices []MoveElementRequest `json:"vertices" validate:"max=100"`
}

// SetVertices handles PUT /links/{linkID}/vertices
func (h *DiagramHandler) SetVertices(w http.ResponseWriter, r *http.Request) {
	id, err := valueobjects.NewLinkIDFromString(chi.URLParam(r, "linkID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req SetVerticesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.HandleStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}

	vertices := make([]valueobjects.Position, 0, len(req.Vertices))
	for _, v := range req.Vertices {
		vertices = append(vertices, valueobjects.Position{X: v.X, Y: v.Y})
	}

	if err := h.service.SetLinkVertices(id, vertices); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// Export handles GET /diagram, returning the full versioned snapshot
func (h *DiagramHandler) Export(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Export()
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, snapshot)
}

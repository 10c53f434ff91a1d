package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ontoview/application/services"
	"ontoview/pkg/common"
	pkgerrors "ontoview/pkg/errors"
)

// HistoryHandler exposes undo/redo over HTTP
type HistoryHandler struct {
	service *services.DiagramService
	errors  *pkgerrors.ErrorHandler
	logger  *zap.Logger
}

// NewHistoryHandler creates a history handler
func NewHistoryHandler(service *services.DiagramService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

type historyEntry struct {
	Name string `json:"name"`
}

type historyState struct {
	Undo []historyEntry `json:"undo"`
	Redo []historyEntry `json:"redo"`
}

// Get handles GET /history, listing both stacks newest first
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.state())
}

// Undo handles POST /history/undo. Undoing with an empty stack succeeds
// without changing anything.
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Undo(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.state())
}

// Redo handles POST /history/redo
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Redo(); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, h.state())
}

func (h *HistoryHandler) state() historyState {
	undo, redo := h.service.HistoryState()
	state := historyState{
		Undo: make([]historyEntry, 0, len(undo)),
		Redo: make([]historyEntry, 0, len(redo)),
	}
	for _, entry := range undo {
		state.Undo = append(state.Undo, historyEntry{Name: entry.Name})
	}
	for _, entry := range redo {
		state.Redo = append(state.Redo, historyEntry{Name: entry.Name})
	}
	return state
}

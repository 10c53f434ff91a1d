package history

import (
	"sync"

	"go.uber.org/zap"

	"ontoview/application/commands"
	"ontoview/domain/core/aggregates"
	"ontoview/domain/events"
)

// Executor is the mutation entry point handed to components that issue
// commands without owning the history, such as the layout coordinator
type Executor interface {
	Execute(cmd commands.Command) error
}

// Entry describes one command on a history stack, for introspection/export
type Entry struct {
	Name string `json:"name"`
}

// History owns the undo/redo stacks and is the only component allowed to
// mutate the diagram. Every user-visible change is executed as a command
// through this engine; a failing command leaves both stacks untouched.
type History struct {
	mu       sync.Mutex
	diagram  *aggregates.Diagram
	undo     []commands.Command
	redo     []commands.Command
	maxDepth int // 0 means unbounded; oldest entries evicted beyond it
	logger   *zap.Logger
}

// New creates a history engine bound to a diagram
func New(diagram *aggregates.Diagram, maxDepth int, logger *zap.Logger) *History {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{
		diagram:  diagram,
		maxDepth: maxDepth,
		logger:   logger,
	}
}

// Diagram returns the aggregate this engine owns
func (h *History) Diagram() *aggregates.Diagram { return h.diagram }

// Execute applies a command's forward effect, pushes it onto the undo stack,
// and clears the redo stack. On failure the stacks are left unchanged.
func (h *History) Execute(cmd commands.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := cmd.Apply(h.diagram); err != nil {
		h.logger.Warn("command failed",
			zap.String("command", cmd.Name()),
			zap.Error(err),
		)
		return err
	}

	h.undo = append(h.undo, cmd)
	if h.maxDepth > 0 && len(h.undo) > h.maxDepth {
		h.undo = h.undo[len(h.undo)-h.maxDepth:]
	}
	h.redo = h.redo[:0]

	h.logger.Debug("command executed", zap.String("command", cmd.Name()))
	h.diagram.PublishHistoryChanged(events.HistoryExecuted, cmd.Name(), len(h.undo), len(h.redo))
	return nil
}

// Undo pops the newest command and applies its inverse. An empty undo stack
// is a no-op, not an error.
func (h *History) Undo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undo) == 0 {
		return nil
	}
	cmd := h.undo[len(h.undo)-1]

	if err := cmd.Invert().Apply(h.diagram); err != nil {
		h.logger.Error("undo failed",
			zap.String("command", cmd.Name()),
			zap.Error(err),
		)
		return err
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cmd)

	h.diagram.PublishHistoryChanged(events.HistoryUndone, cmd.Name(), len(h.undo), len(h.redo))
	return nil
}

// Redo reapplies the newest undone command. An empty redo stack is a no-op.
func (h *History) Redo() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redo) == 0 {
		return nil
	}
	cmd := h.redo[len(h.redo)-1]

	if err := cmd.Apply(h.diagram); err != nil {
		h.logger.Error("redo failed",
			zap.String("command", cmd.Name()),
			zap.Error(err),
		)
		return err
	}

	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cmd)

	h.diagram.PublishHistoryChanged(events.HistoryRedone, cmd.Name(), len(h.undo), len(h.redo))
	return nil
}

// UndoDepth returns the number of undoable commands
func (h *History) UndoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo)
}

// RedoDepth returns the number of redoable commands
func (h *History) RedoDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo)
}

// UndoEntries lists the undo stack, newest last
func (h *History) UndoEntries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return entriesOf(h.undo)
}

// RedoEntries lists the redo stack, newest last
func (h *History) RedoEntries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return entriesOf(h.redo)
}

func entriesOf(cmds []commands.Command) []Entry {
	out := make([]Entry, len(cmds))
	for i, cmd := range cmds {
		out[i] = Entry{Name: cmd.Name()}
	}
	return out
}

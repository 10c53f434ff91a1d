package commands

import (
	"ontoview/domain/core/aggregates"
)

// Command is an immutable, reversible description of one diagram mutation.
// A command captures everything its inverse needs at construction time, so
// apply/invert pairs satisfy the strict inverse law: applying a command and
// then its inverse leaves the diagram observably unchanged.
//
// Commands never hold live entity pointers; they carry snapshots and
// reconstruct entities on apply, so re-applying after undo is safe.
type Command interface {
	// Name identifies the command kind for history introspection and logging
	Name() string
	// Apply performs the forward effect against the diagram
	Apply(diagram *aggregates.Diagram) error
	// Invert returns the command undoing this one
	Invert() Command
}

// Composite applies an ordered sequence of commands as one atomic unit.
// Its inverse applies the sub-inverses in reverse order. Application is
// all-or-nothing: a failure mid-sequence rolls back the already-applied
// prefix before surfacing the error.
type Composite struct {
	name     string
	commands []Command
}

// NewComposite groups commands under one name
func NewComposite(name string, cmds ...Command) *Composite {
	copied := make([]Command, len(cmds))
	copy(copied, cmds)
	return &Composite{name: name, commands: copied}
}

// Name implements Command
func (c *Composite) Name() string { return c.name }

// Len returns the number of grouped commands
func (c *Composite) Len() int { return len(c.commands) }

// Apply implements Command with all-or-nothing semantics
func (c *Composite) Apply(diagram *aggregates.Diagram) error {
	for i, cmd := range c.commands {
		if err := cmd.Apply(diagram); err != nil {
			// Roll back the applied prefix, newest first.
			for j := i - 1; j >= 0; j-- {
				// Rollback of freshly applied commands cannot fail
				// without a prior invariant violation; ignore errors
				// to unwind as far as possible.
				_ = c.commands[j].Invert().Apply(diagram)
			}
			return err
		}
	}
	return nil
}

// Invert implements Command
func (c *Composite) Invert() Command {
	inverted := make([]Command, len(c.commands))
	for i, cmd := range c.commands {
		inverted[len(c.commands)-1-i] = cmd.Invert()
	}
	return &Composite{name: c.name, commands: inverted}
}

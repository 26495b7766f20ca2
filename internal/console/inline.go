package console

import (
	"context"
	"strconv"
	"sync"
)

// CellState is the inline-edit lifecycle of a single table cell
type CellState int32

const (
	CellViewing CellState = iota
	CellEditing
	CellSaving
)

// CommitFunc persists a committed cell value (typically a single-field
// partial update through the repository).
type CommitFunc func(ctx context.Context, value string) error

// InlineCell is a reusable double-click-to-edit cell: Viewing →
// Editing → Saving → Viewing, with Cancel returning to Viewing and a
// failed save returning to Editing with the draft intact.
type InlineCell struct {
	mu      sync.Mutex
	state   CellState
	value   string
	draft   string
	numeric bool
	commit  CommitFunc
}

// NewInlineCell creates a cell holding the current display value
func NewInlineCell(value string, numeric bool, commit CommitFunc) *InlineCell {
	return &InlineCell{value: value, numeric: numeric, commit: commit}
}

// Begin enters edit mode, seeding the draft from the display value
func (c *InlineCell) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CellViewing {
		return
	}
	c.state = CellEditing
	c.draft = c.value
}

// Input replaces the draft while editing
func (c *InlineCell) Input(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CellEditing {
		return
	}
	c.draft = v
}

// Commit persists the draft. Numeric cells normalize the comma decimal
// separator first and reject non-numeric input without a network call.
func (c *InlineCell) Commit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != CellEditing {
		c.mu.Unlock()
		return nil
	}
	draft := c.draft
	if c.numeric {
		draft = NormalizeDecimal(draft)
		if _, err := strconv.ParseFloat(draft, 64); err != nil {
			c.mu.Unlock()
			return err
		}
		c.draft = draft
	}
	c.state = CellSaving
	c.mu.Unlock()

	err := c.commit(ctx, draft)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = CellEditing
		return err
	}
	c.value = draft
	c.state = CellViewing
	return nil
}

// Cancel abandons the draft and returns to viewing
func (c *InlineCell) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CellSaving {
		return
	}
	c.state = CellViewing
	c.draft = ""
}

// Value returns the committed display value
func (c *InlineCell) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// State returns the cell lifecycle state
func (c *InlineCell) State() CellState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

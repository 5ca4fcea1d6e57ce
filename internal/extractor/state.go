package extractor

import (
	"fmt"

	"github.com/nconklindev/profitcalc/internal/types"
)

type phase int

const (
	attempting phase = iota
	resolved
	fellBack
)

func (p phase) String() string {
	switch p {
	case resolved:
		return "resolved"
	case fellBack:
		return "fallback"
	default:
		return "attempting"
	}
}

// state is one point of the retry policy: Attempting(n), Resolved(v) or
// Fallback(v). attempt counts reads, starting at 1.
type state struct {
	phase   phase
	attempt int
	value   float64
}

func start() state {
	return state{phase: attempting, attempt: 1}
}

func (s state) done() bool {
	return s.phase != attempting
}

// step applies one read of the derived cell. A numeric read resolves; any
// other read moves to the next attempt, or to the fallback value once
// maxAttempts reads have been spent. Terminal states are returned unchanged.
func step(s state, read *types.Cell, maxAttempts int, fallback float64) state {
	if s.done() {
		return s
	}
	if v, ok := read.Number(); ok {
		return state{phase: resolved, attempt: s.attempt, value: v}
	}
	if s.attempt >= maxAttempts {
		return state{phase: fellBack, attempt: s.attempt, value: fallback}
	}
	return state{phase: attempting, attempt: s.attempt + 1}
}

// describe renders a read for the log trace.
func describe(c *types.Cell) string {
	switch {
	case c == nil || c.Value == nil:
		return "empty"
	case c.IsText():
		return fmt.Sprintf("text %q", c.Value)
	default:
		return fmt.Sprintf("%T %v", c.Value, c.Value)
	}
}

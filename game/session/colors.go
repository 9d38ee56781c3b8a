package session

import (
	"fmt"

	"github.com/wricardo/parchis/game/engine"
)

// ColorPool tracks which of the four colors are seated. It is not safe
// for concurrent use; the session lock guards it.
type ColorPool struct {
	taken [engine.MaxPlayers]bool
}

func NewColorPool() *ColorPool {
	return &ColorPool{}
}

// Reserve claims preferred, or the first free color in canonical order
// when preferred is empty
func (p *ColorPool) Reserve(preferred engine.Color) (engine.Color, error) {
	if preferred != "" {
		i := preferred.Ordinal()
		if i < 0 {
			return "", fmt.Errorf("%w: %q", engine.ErrUnknownColor, preferred)
		}
		if p.taken[i] {
			return "", fmt.Errorf("%w: %s", engine.ErrColorTaken, preferred)
		}
		p.taken[i] = true
		return preferred, nil
	}

	for i, taken := range p.taken {
		if !taken {
			p.taken[i] = true
			return engine.Colors[i], nil
		}
	}
	return "", engine.ErrSessionFull
}

// Release returns c to the pool
func (p *ColorPool) Release(c engine.Color) error {
	i := c.Ordinal()
	if i < 0 {
		return fmt.Errorf("%w: %q", engine.ErrUnknownColor, c)
	}
	if !p.taken[i] {
		return fmt.Errorf("color %s is not reserved", c)
	}
	p.taken[i] = false
	return nil
}

// Available lists the free colors in canonical order
func (p *ColorPool) Available() []engine.Color {
	var out []engine.Color
	for i, taken := range p.taken {
		if !taken {
			out = append(out, engine.Colors[i])
		}
	}
	return out
}

package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Activity is the kind of galaxy traffic the pulse is showing.
type Activity int

const (
	ActivityIdle  Activity = iota
	ActivityCalm           // lifecycle changes, sunrays, moves
	ActivityAlert          // asteroids, destroyed planets, failed relocations
)

const (
	pulseWidth    = 12
	pulseDuration = 25 // ticks an event keeps the pulse moving
	pulseInterval = 80 * time.Millisecond
)

// Pulse is a bouncing indicator that moves for a while after each galaxy
// event and settles back to idle.
type Pulse struct {
	activity  Activity
	remaining int
	position  int
	direction int
}

// PulseTickMsg advances the pulse animation.
type PulseTickMsg time.Time

// NewPulse returns an idle pulse.
func NewPulse() Pulse {
	return Pulse{direction: 1}
}

// Kick restarts the animation. An alert is never downgraded by a calm kick
// while it is still showing.
func (p *Pulse) Kick(a Activity) {
	if a < p.activity && p.remaining > 0 {
		p.remaining = pulseDuration
		return
	}
	p.activity = a
	p.remaining = pulseDuration
}

// Activity returns what the pulse is currently showing.
func (p Pulse) Activity() Activity {
	return p.activity
}

// Init starts the animation loop.
func (p Pulse) Init() tea.Cmd {
	return p.tick()
}

// Update handles tick messages.
func (p Pulse) Update(msg tea.Msg) (Pulse, tea.Cmd) {
	if _, ok := msg.(PulseTickMsg); !ok {
		return p, nil
	}
	if p.activity != ActivityIdle {
		p.position += p.direction
		if p.position >= pulseWidth-1 {
			p.position = pulseWidth - 1
			p.direction = -1
		} else if p.position <= 0 {
			p.position = 0
			p.direction = 1
		}
		p.remaining--
		if p.remaining <= 0 {
			p.activity = ActivityIdle
			p.remaining = 0
		}
	}
	return p, p.tick()
}

func (p Pulse) tick() tea.Cmd {
	return tea.Tick(pulseInterval, func(t time.Time) tea.Msg {
		return PulseTickMsg(t)
	})
}

// View renders the indicator.
func (p Pulse) View() string {
	const (
		barEmpty  = "░"
		barFilled = "█"
		barLeft   = "▐"
		barRight  = "▌"
	)

	var style lipgloss.Style
	var label string
	switch p.activity {
	case ActivityIdle:
		style = dimmedStyle
		label = "⬦ IDLE "
	case ActivityCalm:
		style = lipgloss.NewStyle().Foreground(colorTeal).Bold(true)
		label = "⬥ FLUX "
	case ActivityAlert:
		style = lipgloss.NewStyle().Foreground(colorAsteroid).Bold(true)
		label = "⬥ ALERT"
	}

	bar := barLeft
	for i := 0; i < pulseWidth; i++ {
		if p.activity != ActivityIdle && i >= p.position-1 && i <= p.position+1 {
			bar += barFilled
		} else {
			bar += barEmpty
		}
	}
	bar += barRight

	return style.Render(label + " " + bar)
}

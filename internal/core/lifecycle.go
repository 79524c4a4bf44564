package core

import "github.com/xonecas/zoea-galaxy/internal/protocol"

// planetTransition decides how a planet in state handles msg.
// It returns the next state and whether the message is served; a message
// that is not served is answered with protocol.Stopped.
func planetTransition(state LifecycleState, msg protocol.OrchestratorToPlanet) (LifecycleState, bool) {
	if state == StateKilled {
		return StateKilled, false
	}

	switch m := msg.(type) {
	case protocol.KillPlanet:
		return StateKilled, true
	case protocol.StartPlanetAI:
		switch state {
		case StateNotStarted, StateRunning:
			return StateRunning, true
		}
		// A stopped planet is never restarted.
		return state, false
	case protocol.StopPlanetAI:
		if state == StateRunning {
			return StateStopped, true
		}
		return state, true
	case protocol.IncomingExplorerCancel:
		// Compensation must land even if the planet stopped meanwhile.
		return state, true
	case protocol.IncomingExplorerRequest:
		if m.Restore {
			return state, true
		}
	}

	return state, state == StateRunning
}

// explorerTransition decides how an explorer in state handles msg.
// Explorers serve every message in every live state; only lifecycle
// commands change the state.
func explorerTransition(state LifecycleState, msg protocol.OrchestratorToExplorer) LifecycleState {
	if state == StateKilled {
		return StateKilled
	}

	switch msg.(type) {
	case protocol.KillExplorer:
		return StateKilled
	case protocol.StartExplorerAI:
		if state == StateNotStarted {
			return StateRunning
		}
	case protocol.StopExplorerAI:
		if state == StateRunning {
			return StateStopped
		}
	case protocol.ResetExplorerAI:
		return StateRunning
	}
	return state
}

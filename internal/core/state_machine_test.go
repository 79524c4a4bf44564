package core

import (
	"testing"

	"github.com/xonecas/zoea-galaxy/internal/protocol"
)

// TestStateTransition_Planet_NotStarted_To_Running tests the first start.
// Trigger: StartPlanetAI
// Expected: Running, served
func TestStateTransition_Planet_NotStarted_To_Running(t *testing.T) {
	next, served := planetTransition(StateNotStarted, protocol.StartPlanetAI{})
	if !served {
		t.Fatal("expected StartPlanetAI to be served")
	}
	if next != StateRunning {
		t.Errorf("expected state=running, got %s", next)
	}
}

// TestStateTransition_Planet_Running_Start tests that start is idempotent.
// Trigger: StartPlanetAI while running
// Expected: Running, served
func TestStateTransition_Planet_Running_Start(t *testing.T) {
	next, served := planetTransition(StateRunning, protocol.StartPlanetAI{})
	if !served || next != StateRunning {
		t.Errorf("expected (running, true), got (%s, %t)", next, served)
	}
}

// TestStateTransition_Planet_Stopped_No_Restart tests that a stopped planet stays stopped.
// Trigger: StartPlanetAI while stopped
// Expected: Stopped, not served
func TestStateTransition_Planet_Stopped_No_Restart(t *testing.T) {
	next, served := planetTransition(StateStopped, protocol.StartPlanetAI{})
	if served {
		t.Error("expected restart to be refused")
	}
	if next != StateStopped {
		t.Errorf("expected state=stopped, got %s", next)
	}
}

// TestStateTransition_Planet_Running_To_Stopped tests stopping.
// Trigger: StopPlanetAI
// Expected: Stopped, served
func TestStateTransition_Planet_Running_To_Stopped(t *testing.T) {
	next, served := planetTransition(StateRunning, protocol.StopPlanetAI{})
	if !served || next != StateStopped {
		t.Errorf("expected (stopped, true), got (%s, %t)", next, served)
	}
}

// TestStateTransition_Planet_Kill_From_Any tests that kill is always served.
// Trigger: KillPlanet from every live state
// Expected: Killed, served
func TestStateTransition_Planet_Kill_From_Any(t *testing.T) {
	for _, state := range []LifecycleState{StateNotStarted, StateRunning, StateStopped} {
		next, served := planetTransition(state, protocol.KillPlanet{})
		if !served || next != StateKilled {
			t.Errorf("from %s: expected (killed, true), got (%s, %t)", state, next, served)
		}
	}
}

// TestStateTransition_Planet_Killed_Absorbing tests that nothing leaves killed.
func TestStateTransition_Planet_Killed_Absorbing(t *testing.T) {
	msgs := []protocol.OrchestratorToPlanet{
		protocol.StartPlanetAI{},
		protocol.KillPlanet{},
		protocol.IncomingExplorerCancel{ExplorerID: 1},
	}
	for _, msg := range msgs {
		next, served := planetTransition(StateKilled, msg)
		if served || next != StateKilled {
			t.Errorf("%s: expected (killed, false), got (%s, %t)", protocol.Name(msg), next, served)
		}
	}
}

// TestStateTransition_Planet_Stopped_Refuses_Work tests that a stopped
// planet only answers compensation.
func TestStateTransition_Planet_Stopped_Refuses_Work(t *testing.T) {
	refused := []protocol.OrchestratorToPlanet{
		protocol.Sunray{},
		protocol.Asteroid{},
		protocol.InternalStateRequest{},
		protocol.IncomingExplorerRequest{ExplorerID: 1},
		protocol.OutgoingExplorerRequest{ExplorerID: 1},
	}
	for _, msg := range refused {
		if _, served := planetTransition(StateStopped, msg); served {
			t.Errorf("expected %s refused while stopped", protocol.Name(msg))
		}
		if _, served := planetTransition(StateNotStarted, msg); served {
			t.Errorf("expected %s refused before start", protocol.Name(msg))
		}
	}

	if _, served := planetTransition(StateStopped, protocol.IncomingExplorerCancel{ExplorerID: 1}); !served {
		t.Error("expected IncomingExplorerCancel served while stopped")
	}
	if _, served := planetTransition(StateStopped, protocol.IncomingExplorerRequest{ExplorerID: 1, Restore: true}); !served {
		t.Error("expected a restoring IncomingExplorerRequest served while stopped")
	}
}

// TestStateTransition_Explorer tests the explorer state machine.
func TestStateTransition_Explorer(t *testing.T) {
	cases := []struct {
		from LifecycleState
		msg  protocol.OrchestratorToExplorer
		want LifecycleState
	}{
		{StateNotStarted, protocol.StartExplorerAI{}, StateRunning},
		{StateRunning, protocol.StopExplorerAI{}, StateStopped},
		{StateStopped, protocol.StartExplorerAI{}, StateStopped},
		{StateStopped, protocol.ResetExplorerAI{}, StateRunning},
		{StateNotStarted, protocol.StopExplorerAI{}, StateNotStarted},
		{StateStopped, protocol.BagContentRequest{}, StateStopped},
		{StateStopped, protocol.KillExplorer{}, StateKilled},
		{StateKilled, protocol.ResetExplorerAI{}, StateKilled},
	}
	for _, c := range cases {
		if got := explorerTransition(c.from, c.msg); got != c.want {
			t.Errorf("%s on %s: expected %s, got %s", protocol.Name(c.msg), c.from, c.want, got)
		}
	}
}

package core

import (
	"errors"
	"fmt"

	"github.com/xonecas/zoea-galaxy/internal/resource"
)

var (
	// ErrProtocolViolation is returned when a message reaches an actor in a
	// state that does not accept it, including any message to a killed actor.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrActorUnreachable is returned when an actor's mailbox is closed, stays
	// full, or the actor does not answer in time.
	ErrActorUnreachable = errors.New("actor unreachable")

	// ErrRelocationInProgress is returned when an explorer already has a
	// relocation in flight.
	ErrRelocationInProgress = errors.New("relocation already in progress")

	// ErrNotFound is returned for ids the directory has never allocated.
	ErrNotFound = errors.New("not found")

	// ErrNotNeighbor is returned when an explorer asks to travel to a planet
	// that is not adjacent to its current one.
	ErrNotNeighbor = errors.New("not a neighbor")

	// ErrAIHookFailed is returned when a PlanetAI or ExplorerAI hook panicked.
	ErrAIHookFailed = errors.New("ai hook failed")

	// ErrInvariantViolation is returned when the directory is found in a
	// state it should never reach. Only the current operation is aborted.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrLimitReached is returned when the galaxy is full.
	ErrLimitReached = errors.New("limit reached")

	errRocketNotAllowed = errors.New("planet type cannot have a rocket")
	errRocketExists     = errors.New("rocket already built")

	// ErrForgePoisoned is resource.ErrForgePoisoned.
	ErrForgePoisoned = resource.ErrForgePoisoned
)

type (
	// CombinationError is resource.CombinationError.
	CombinationError = resource.CombinationError
	// ResourceGenerationError is resource.GenerationError.
	ResourceGenerationError = resource.GenerationError
)

// ErrResourceGenerationFailed matches any *ResourceGenerationError via errors.Is.
var ErrResourceGenerationFailed = errors.New("resource generation failed")

// RelocationStage is the step of the relocation handshake that failed.
type RelocationStage string

const (
	StageValidate RelocationStage = "validate"
	StageIncoming RelocationStage = "incoming"
	StageOutgoing RelocationStage = "outgoing"
)

// RelocationRejectedError reports a relocation that did not happen.
// The explorer is still recorded at From.
type RelocationRejectedError struct {
	ExplorerID ExplorerID
	From       PlanetID
	To         PlanetID
	Stage      RelocationStage
	Reason     string
	Err        error
}

func (e *RelocationRejectedError) Error() string {
	msg := fmt.Sprintf("relocate %s from %s to %s rejected at %s: %s", e.ExplorerID, e.From, e.To, e.Stage, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RelocationRejectedError) Unwrap() error {
	return e.Err
}

// hookError wraps a recovered panic value.
func hookError(hook string, r any) error {
	return fmt.Errorf("%s: %w: %v", hook, ErrAIHookFailed, r)
}

// generationFailed wraps a generation failure so both errors.Is and errors.As work.
func generationFailed(err *resource.GenerationError) error {
	return fmt.Errorf("%w: %w", ErrResourceGenerationFailed, err)
}

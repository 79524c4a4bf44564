package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xonecas/zoea-galaxy/internal/constants"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
)

// RelocationPhase is the step an in-flight relocation is waiting on.
type RelocationPhase string

const (
	PhaseAwaitingIncoming RelocationPhase = "awaiting_incoming"
	PhaseAwaitingOutgoing RelocationPhase = "awaiting_outgoing"
	PhaseAwaitingMove     RelocationPhase = "awaiting_move"
	PhaseCompensating     RelocationPhase = "compensating"
)

// RelocationOrigin records who asked for a relocation.
type RelocationOrigin string

const (
	OriginOrchestrator RelocationOrigin = "orchestrator"
	OriginExplorer     RelocationOrigin = "explorer"
)

// RelocationAttempt is an in-flight move of one explorer.
type RelocationAttempt struct {
	ID          uuid.UUID
	ExplorerID  ExplorerID
	Source      PlanetID
	Destination PlanetID
	Phase       RelocationPhase
	Origin      RelocationOrigin
	StartedAt   time.Time

	// abort is set when an actor in the move dies before the commit.
	abort string
}

// MoveExplorer relocates an explorer to any running planet. Adjacency is
// not required.
func (o *Orchestrator) MoveExplorer(ctx context.Context, id ExplorerID, to PlanetID) error {
	return o.relocate(ctx, id, 0, to, OriginOrchestrator)
}

// Relocations returns a copy of the in-flight relocation attempts.
func (o *Orchestrator) Relocations() []RelocationAttempt {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]RelocationAttempt, 0, len(o.relocations))
	for _, a := range o.relocations {
		out = append(out, *a)
	}
	return out
}

type relocationRun struct {
	attempt *RelocationAttempt
	er      *explorerRecord
	src     *planetRecord
	dst     *planetRecord
}

// admitRelocation validates a relocation and registers its attempt. It has
// no side effect when it fails.
func (o *Orchestrator) admitRelocation(id ExplorerID, claimedFrom, to PlanetID, origin RelocationOrigin) (*relocationRun, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	reject := func(from PlanetID, reason string, err error) error {
		return &RelocationRejectedError{ExplorerID: id, From: from, To: to, Stage: StageValidate, Reason: reason, Err: err}
	}

	er, ok := o.explorers[id]
	if !ok {
		return nil, reject(claimedFrom, "unknown explorer", ErrNotFound)
	}
	from := er.planet
	if er.state == StateKilled || er.dying {
		return nil, reject(from, "explorer is killed", ErrProtocolViolation)
	}
	if _, busy := o.relocations[id]; busy {
		return nil, reject(from, "relocation already in progress", ErrRelocationInProgress)
	}
	if origin == OriginExplorer && claimedFrom != from {
		return nil, reject(from, fmt.Sprintf("explorer claims to be on %s", claimedFrom), ErrProtocolViolation)
	}
	if to == from {
		return nil, reject(from, "already on destination", ErrProtocolViolation)
	}

	src, ok := o.planets[from]
	if !ok {
		return nil, reject(from, "explorer recorded on unknown planet", ErrInvariantViolation)
	}
	dst, ok := o.planets[to]
	if !ok {
		return nil, reject(from, "unknown destination", ErrNotFound)
	}
	if dst.state != StateRunning || dst.dying {
		return nil, reject(from, fmt.Sprintf("destination is %s", dst.state), ErrProtocolViolation)
	}
	if origin == OriginExplorer {
		if _, adjacent := src.neighbors[to]; !adjacent {
			return nil, reject(from, "destination is not a neighbor", ErrNotNeighbor)
		}
	}

	a := &RelocationAttempt{
		ID:          uuid.New(),
		ExplorerID:  id,
		Source:      from,
		Destination: to,
		Phase:       PhaseAwaitingIncoming,
		Origin:      origin,
		StartedAt:   time.Now(),
	}
	o.relocations[id] = a
	return &relocationRun{attempt: a, er: er, src: src, dst: dst}, nil
}

func (o *Orchestrator) setPhase(a *RelocationAttempt, phase RelocationPhase) {
	o.mu.Lock()
	a.Phase = phase
	o.mu.Unlock()
}

func (o *Orchestrator) finishRelocation(a *RelocationAttempt) {
	o.mu.Lock()
	if o.relocations[a.ExplorerID] == a {
		delete(o.relocations, a.ExplorerID)
	}
	o.mu.Unlock()
}

// relocate runs the two-planet handshake for one explorer. claimedFrom is
// only checked for explorer-initiated moves.
func (o *Orchestrator) relocate(ctx context.Context, id ExplorerID, claimedFrom, to PlanetID, origin RelocationOrigin) (err error) {
	ctx, span := o.tracer.Start(ctx, "relocate", trace.WithAttributes(
		attribute.Int64("explorer.id", int64(id)),
		attribute.Int64("planet.destination", int64(to)),
		attribute.String("relocation.origin", string(origin)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			o.relocationFailed(err)
		}
		span.End()
	}()

	run, err := o.admitRelocation(id, claimedFrom, to, origin)
	if err != nil {
		return err
	}
	a := run.attempt
	defer o.finishRelocation(a)

	span.SetAttributes(
		attribute.String("relocation.id", a.ID.String()),
		attribute.Int64("planet.source", int64(a.Source)),
	)
	log.Debug().Str("relocation_id", a.ID.String()).Uint32("explorer_id", uint32(id)).
		Uint32("from", uint32(a.Source)).Uint32("to", uint32(to)).Msg("Relocation admitted")

	reject := func(stage RelocationStage, reason string, cause error) error {
		return &RelocationRejectedError{ExplorerID: id, From: a.Source, To: to, Stage: stage, Reason: reason, Err: cause}
	}

	// Destination first: the source keeps the explorer until the
	// destination has agreed to take it.
	span.AddEvent(string(PhaseAwaitingIncoming))
	reply, err := o.askPlanet(ctx, run.dst, protocol.IncomingExplorerRequest{ExplorerID: id, Mailbox: run.er.actor.Replies()}, incomingReply(id))
	if err != nil {
		o.setPhase(a, PhaseCompensating)
		o.cancelIncoming(context.WithoutCancel(ctx), run.dst, id)
		return reject(StageIncoming, "destination unreachable", err)
	}
	switch r := reply.(type) {
	case protocol.Stopped:
		return reject(StageIncoming, "destination not running", ErrProtocolViolation)
	case protocol.IncomingExplorerResponse:
		if !r.Outcome.Accepted {
			return reject(StageIncoming, r.Outcome.Reason, nil)
		}
	}

	o.setPhase(a, PhaseAwaitingOutgoing)
	span.AddEvent(string(PhaseAwaitingOutgoing))
	reply, err = o.askPlanet(ctx, run.src, protocol.OutgoingExplorerRequest{ExplorerID: id}, outgoingReply(id))
	var reason string
	var cause error
	switch {
	case err != nil:
		reason, cause = "source unreachable", err
	default:
		switch r := reply.(type) {
		case protocol.Stopped:
			reason, cause = "source not running", ErrProtocolViolation
		case protocol.OutgoingExplorerResponse:
			if !r.Outcome.Accepted {
				reason = r.Outcome.Reason
				if reason == "" {
					reason = "source refused"
				}
			}
		}
	}
	if reason != "" {
		o.compensate(ctx, run, err != nil)
		return reject(StageOutgoing, reason, cause)
	}

	// Commit. From here the directory names the destination, unless one of
	// the actors died while the source was deciding.
	o.mu.Lock()
	abort := a.abort
	explorerGone := run.er.dying || run.er.state == StateKilled
	switch {
	case abort != "":
	case explorerGone:
		abort = "explorer killed"
	case run.dst.dying || run.dst.state == StateKilled:
		abort = "destination destroyed"
	default:
		run.er.planet = to
		a.Phase = PhaseAwaitingMove
	}
	o.mu.Unlock()
	if abort != "" {
		o.compensate(ctx, run, !explorerGone)
		return reject(StageOutgoing, abort, ErrActorUnreachable)
	}
	span.AddEvent(string(PhaseAwaitingMove))

	o.publish(Event{Type: EventExplorerMoved, ExplorerID: id, PlanetID: to, Data: MoveData{From: a.Source, To: to}})
	o.log.Log(logging.ChannelInfo, logging.InternalOrchestratorAction, logging.Explorer(uint32(id)), "explorer moved",
		"from", a.Source.String(), "to", to.String())

	if _, err := o.askExplorer(ctx, run.er, protocol.MoveToPlanet{PlanetID: to, Mailbox: run.dst.actor.ExplorerInbox()},
		explorerReply[protocol.MovedToPlanetResult], o.timeout()); err != nil {
		log.Warn().Err(err).Uint32("explorer_id", uint32(id)).Uint32("planet_id", uint32(to)).
			Msg("Explorer did not acknowledge move")
		o.mu.RLock()
		gone := run.er.dying || run.er.state == StateKilled
		o.mu.RUnlock()
		if gone {
			o.cancelIncoming(context.WithoutCancel(ctx), run.dst, id)
		}
		return fmt.Errorf("move %s to %s: %w", id, to, err)
	}

	log.Info().Str("relocation_id", a.ID.String()).Uint32("explorer_id", uint32(id)).
		Uint32("from", uint32(a.Source)).Uint32("to", uint32(to)).Msg("Explorer relocated")
	return nil
}

// compensate revokes the destination's registration unless the destination
// is already gone. With restore set the explorer is handed back to the
// source, which may have released it.
func (o *Orchestrator) compensate(ctx context.Context, run *relocationRun, restore bool) {
	ctx = context.WithoutCancel(ctx)
	o.setPhase(run.attempt, PhaseCompensating)
	id := run.attempt.ExplorerID

	o.mu.RLock()
	dstGone := run.dst.dying || run.dst.state == StateKilled
	o.mu.RUnlock()
	if !dstGone {
		o.cancelIncoming(ctx, run.dst, id)
	}
	if !restore {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, constants.CompensationTimeout)
	defer cancel()
	req := protocol.IncomingExplorerRequest{ExplorerID: id, Mailbox: run.er.actor.Replies(), Restore: true}
	reply, err := o.askPlanet(cctx, run.src, req, incomingReply(id))
	if err == nil {
		if r, ok := reply.(protocol.IncomingExplorerResponse); ok && r.Outcome.Accepted {
			return
		}
		err = fmt.Errorf("%s answered %s: %w", run.src.id, protocol.Name(reply), ErrInvariantViolation)
	}
	log.Error().Err(err).Uint32("explorer_id", uint32(id)).Uint32("planet_id", uint32(run.src.id)).
		Msg("Failed to restore explorer at source")
	o.log.Log(logging.ChannelError, logging.InternalOrchestratorAction, logging.Planet(uint32(run.src.id)),
		"restore failed", "explorer", id.String(), "error", err.Error())
}

// abortRelocationsTo marks in-flight moves into a dying planet. The caller
// holds o.mu.
func (o *Orchestrator) abortRelocationsTo(planet PlanetID) {
	for _, a := range o.relocations {
		if a.Destination == planet && a.abort == "" {
			a.abort = "destination destroyed"
		}
	}
}

func (o *Orchestrator) relocationFailed(err error) {
	var rej *RelocationRejectedError
	if !errors.As(err, &rej) {
		return
	}
	log.Info().Uint32("explorer_id", uint32(rej.ExplorerID)).Str("stage", string(rej.Stage)).
		Str("reason", rej.Reason).Msg("Relocation rejected")
	o.log.Log(logging.ChannelWarning, logging.InternalOrchestratorAction, logging.Explorer(uint32(rej.ExplorerID)),
		"relocation rejected", "stage", string(rej.Stage), "reason", rej.Reason)
	o.publish(Event{
		Type:       EventRelocationFailed,
		ExplorerID: rej.ExplorerID,
		PlanetID:   rej.To,
		Data:       RelocationFailedData{From: rej.From, To: rej.To, Stage: rej.Stage, Reason: rej.Reason},
	})
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/constants"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// AddExplorer creates an explorer on a running planet. The planet must
// accept the explorer before it enters the directory.
func (o *Orchestrator) AddExplorer(ctx context.Context, name string, at PlanetID, ai ExplorerAI) (ExplorerID, error) {
	prec, state, err := o.lookupPlanet(at)
	if err != nil {
		return 0, err
	}
	if state != StateRunning {
		return 0, fmt.Errorf("add explorer on %s: planet is %s: %w", at, state, ErrProtocolViolation)
	}

	o.mu.Lock()
	if len(o.explorers) >= o.cfg.Orchestrator.MaxExplorers {
		o.mu.Unlock()
		return 0, fmt.Errorf("max explorers (%d): %w", o.cfg.Orchestrator.MaxExplorers, ErrLimitReached)
	}
	o.nextExplorer++
	id := o.nextExplorer
	o.mu.Unlock()
	if name == "" {
		name = id.String()
	}

	tick := o.cfg.Explorer.TickInterval.Duration
	if tick <= 0 {
		tick = constants.ExplorerTickInterval
	}
	e := newExplorer(explorerParams{
		id:           id,
		name:         name,
		ai:           ai,
		planet:       at,
		planetBox:    prec.actor.ExplorerInbox(),
		toOrch:       o.explorerInbox,
		capacity:     o.cfg.Orchestrator.MailboxCapacity,
		tick:         tick,
		rateLimit:    o.cfg.Explorer.RateLimit,
		rateBurst:    o.cfg.Explorer.RateBurst,
		replyTimeout: o.timeout(),
		sink:         o.sink,
	})

	reply, err := o.askPlanet(ctx, prec, protocol.IncomingExplorerRequest{ExplorerID: id, Mailbox: e.Replies()},
		incomingReply(id))
	if err != nil {
		o.cancelIncoming(ctx, prec, id)
		return 0, fmt.Errorf("add explorer %s on %s: %w", id, at, err)
	}
	switch r := reply.(type) {
	case protocol.Stopped:
		return 0, fmt.Errorf("add explorer %s on %s: planet not running: %w", id, at, ErrProtocolViolation)
	case protocol.IncomingExplorerResponse:
		if !r.Outcome.Accepted {
			return 0, fmt.Errorf("add explorer %s on %s: %s: %w", id, at, r.Outcome.Reason, ErrProtocolViolation)
		}
	}

	o.mu.Lock()
	if prec.dying || prec.state == StateKilled {
		o.mu.Unlock()
		return 0, fmt.Errorf("add explorer %s on %s: planet destroyed: %w", id, at, ErrActorUnreachable)
	}
	ctx, cancel := context.WithCancel(o.ctx)
	rec := &explorerRecord{
		id:     id,
		name:   name,
		actor:  e,
		cancel: cancel,
		state:  StateNotStarted,
		planet: at,
		corr:   newCorrelator[protocol.ExplorerToOrchestrator](),
	}
	o.explorers[id] = rec
	o.mu.Unlock()
	o.spawn(func() { e.run(ctx) }, exitNotice{explorer: id})

	log.Info().Uint32("explorer_id", uint32(id)).Str("name", name).Uint32("planet_id", uint32(at)).Msg("Explorer added")
	o.log.Log(logging.ChannelInfo, logging.InternalOrchestratorAction, logging.Explorer(uint32(id)), "explorer added", "name", name, "planet", at.String())
	o.publish(Event{Type: EventExplorerAdded, ExplorerID: id, PlanetID: at})
	return id, nil
}

// StartExplorer starts an explorer's AI. Stopped explorers resume through
// ResetExplorer.
func (o *Orchestrator) StartExplorer(ctx context.Context, id ExplorerID) error {
	rec, state, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	switch state {
	case StateRunning:
		return nil
	case StateStopped:
		return fmt.Errorf("explorer %s is stopped, reset it instead: %w", id, ErrProtocolViolation)
	}

	reply, err := o.askExplorer(ctx, rec, protocol.StartExplorerAI{}, explorerReply[protocol.StartExplorerAIResult], o.timeout())
	if err != nil {
		return fmt.Errorf("start explorer %s: %w", id, err)
	}
	if r := reply.(protocol.StartExplorerAIResult); r.Err != nil {
		return fmt.Errorf("start explorer %s: %w", id, r.Err)
	}
	o.setExplorerState(rec, StateRunning)
	return nil
}

// StopExplorer puts an explorer in manual mode.
func (o *Orchestrator) StopExplorer(ctx context.Context, id ExplorerID) error {
	rec, state, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.StopExplorerAI{}, explorerReply[protocol.StopExplorerAIResult], o.timeout())
	if err != nil {
		return fmt.Errorf("stop explorer %s: %w", id, err)
	}
	if state == StateRunning {
		o.setExplorerState(rec, StateStopped)
	}
	if r := reply.(protocol.StopExplorerAIResult); r.Err != nil {
		return fmt.Errorf("stop explorer %s: %w", id, r.Err)
	}
	return nil
}

// ResetExplorer clears an explorer's AI state and resumes it. The bag and
// current planet are kept.
func (o *Orchestrator) ResetExplorer(ctx context.Context, id ExplorerID) error {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.ResetExplorerAI{}, explorerReply[protocol.ResetExplorerAIResult], o.timeout())
	if err != nil {
		return fmt.Errorf("reset explorer %s: %w", id, err)
	}
	if r := reply.(protocol.ResetExplorerAIResult); r.Err != nil {
		return fmt.Errorf("reset explorer %s: %w", id, r.Err)
	}
	o.setExplorerState(rec, StateRunning)
	return nil
}

// KillExplorer kills an explorer and releases it from its planet.
func (o *Orchestrator) KillExplorer(ctx context.Context, id ExplorerID) error {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	return o.killExplorer(ctx, rec, true)
}

// killExplorer kills rec. With release set the explorer's planet is told
// to forget it.
func (o *Orchestrator) killExplorer(ctx context.Context, rec *explorerRecord, release bool) error {
	o.mu.Lock()
	if rec.dying || rec.state == StateKilled {
		o.mu.Unlock()
		return nil
	}
	rec.dying = true
	planet := rec.planet
	if a, ok := o.relocations[rec.id]; ok && a.abort == "" {
		a.abort = "explorer killed"
	}
	o.mu.Unlock()

	var killErr error
	if _, err := o.askExplorer(ctx, rec, protocol.KillExplorer{}, explorerReply[protocol.KillExplorerResult], o.timeout()); err != nil {
		killErr = fmt.Errorf("kill explorer %s: %w", rec.id, err)
		rec.cancel()
	}
	o.setExplorerStateKilled(rec)

	if release {
		if prec, _, err := o.lookupPlanet(planet); err == nil {
			o.cancelIncoming(ctx, prec, rec.id)
		}
	}

	log.Info().Uint32("explorer_id", uint32(rec.id)).Uint32("planet_id", uint32(planet)).Msg("Explorer killed")
	return killErr
}

func (o *Orchestrator) setExplorerStateKilled(rec *explorerRecord) {
	o.mu.Lock()
	old := rec.state
	rec.state = StateKilled
	o.mu.Unlock()
	o.publish(Event{
		Type:       EventExplorerStateChanged,
		ExplorerID: rec.id,
		Data:       StateChangeData{OldState: old, NewState: StateKilled},
	})
}

// cancelIncoming tells a planet to forget an explorer. It is best effort.
func (o *Orchestrator) cancelIncoming(ctx context.Context, prec *planetRecord, id ExplorerID) bool {
	ctx, cancel := context.WithTimeout(ctx, constants.CompensationTimeout)
	defer cancel()
	if _, err := o.askPlanet(ctx, prec, protocol.IncomingExplorerCancel{ExplorerID: id}, cancelReply(id)); err != nil {
		log.Warn().Err(err).Uint32("explorer_id", uint32(id)).Uint32("planet_id", uint32(prec.id)).
			Msg("Failed to cancel explorer registration")
		return false
	}
	return true
}

// ExplorerPlanet returns the planet the directory records for an explorer.
func (o *Orchestrator) ExplorerPlanet(id ExplorerID) (PlanetID, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.explorers[id]
	if !ok {
		return 0, fmt.Errorf("explorer %s: %w", id, ErrNotFound)
	}
	return rec.planet, nil
}

// CurrentPlanet asks the explorer where it believes it is.
func (o *Orchestrator) CurrentPlanet(ctx context.Context, id ExplorerID) (PlanetID, error) {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return 0, err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.CurrentPlanetRequest{}, explorerReply[protocol.CurrentPlanetResult], o.timeout())
	if err != nil {
		return 0, fmt.Errorf("current planet of %s: %w", id, err)
	}
	return reply.(protocol.CurrentPlanetResult).PlanetID, nil
}

// BagContent returns a copy of an explorer's bag.
func (o *Orchestrator) BagContent(ctx context.Context, id ExplorerID) (resource.Contents, error) {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return resource.Contents{}, err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.BagContentRequest{}, explorerReply[protocol.BagContentResponse], o.timeout())
	if err != nil {
		return resource.Contents{}, fmt.Errorf("bag of %s: %w", id, err)
	}
	return reply.(protocol.BagContentResponse).Bag, nil
}

// commandTimeout covers an explorer command that itself waits on a planet.
func (o *Orchestrator) commandTimeout() time.Duration {
	return 2 * o.timeout()
}

// SupportedResources asks an explorer which resources its planet generates.
func (o *Orchestrator) SupportedResources(ctx context.Context, id ExplorerID) ([]resource.BasicKind, error) {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return nil, err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.AskSupportedResources{}, explorerReply[protocol.SupportedResourcesResult], o.commandTimeout())
	if err != nil {
		return nil, fmt.Errorf("supported resources via %s: %w", id, err)
	}
	r := reply.(protocol.SupportedResourcesResult)
	return r.Kinds, r.Err
}

// SupportedCombinations asks an explorer which combinations its planet offers.
func (o *Orchestrator) SupportedCombinations(ctx context.Context, id ExplorerID) ([]resource.ComplexKind, error) {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return nil, err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.AskSupportedCombinations{}, explorerReply[protocol.SupportedCombinationsResult], o.commandTimeout())
	if err != nil {
		return nil, fmt.Errorf("supported combinations via %s: %w", id, err)
	}
	r := reply.(protocol.SupportedCombinationsResult)
	return r.Kinds, r.Err
}

// Generate makes an explorer generate a basic resource on its planet.
func (o *Orchestrator) Generate(ctx context.Context, id ExplorerID, kind resource.BasicKind) error {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.GenerateCommand{Kind: kind}, explorerReply[protocol.GenerateCommandResult], o.commandTimeout())
	if err != nil {
		return fmt.Errorf("generate %s via %s: %w", kind, id, err)
	}
	return reply.(protocol.GenerateCommandResult).Err
}

// Combine makes an explorer combine a complex resource on its planet.
func (o *Orchestrator) Combine(ctx context.Context, id ExplorerID, kind resource.ComplexKind) error {
	rec, _, err := o.lookupExplorer(id)
	if err != nil {
		return err
	}
	reply, err := o.askExplorer(ctx, rec, protocol.CombineCommand{Kind: kind}, explorerReply[protocol.CombineCommandResult], o.commandTimeout())
	if err != nil {
		return fmt.Errorf("combine %s via %s: %w", kind, id, err)
	}
	return reply.(protocol.CombineCommandResult).Err
}

// handleExplorerRequest serves NeighborsRequest and TravelToPlanet.
func (o *Orchestrator) handleExplorerRequest(msg protocol.ExplorerToOrchestrator) {
	ctx := o.ctx
	switch m := msg.(type) {
	case protocol.NeighborsRequest:
		rec, _, err := o.lookupExplorer(m.ExplorerID)
		if err != nil {
			return
		}
		o.mu.RLock()
		planet := rec.planet
		var neighbors []PlanetID
		if prec, ok := o.planets[planet]; ok {
			neighbors = sortedNeighbors(prec)
		}
		o.mu.RUnlock()
		o.notifyExplorer(ctx, rec, protocol.NeighborsResponse{PlanetID: planet, Neighbors: neighbors})

	case protocol.TravelToPlanet:
		err := o.relocate(ctx, m.ExplorerID, m.From, m.To, OriginExplorer)
		var rej *RelocationRejectedError
		if !errors.As(err, &rej) {
			// Moved, or failed after the commit: the move stands.
			return
		}
		rec, _, lerr := o.lookupExplorer(m.ExplorerID)
		if lerr != nil {
			return
		}
		o.mu.RLock()
		current := rec.planet
		o.mu.RUnlock()
		o.notifyExplorer(ctx, rec, protocol.MoveToPlanet{PlanetID: m.To, Mailbox: nil})
		log.Debug().Err(err).Uint32("explorer_id", uint32(m.ExplorerID)).Uint32("planet_id", uint32(current)).
			Msg("Travel denied")
	}
}

// notifyExplorer sends a message that is not answered.
func (o *Orchestrator) notifyExplorer(ctx context.Context, rec *explorerRecord, msg protocol.OrchestratorToExplorer) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout())
	defer cancel()
	if err := rec.actor.inbox.Send(ctx, msg); err != nil {
		log.Warn().Err(err).Uint32("explorer_id", uint32(rec.id)).Str("message", protocol.Name(msg)).
			Msg("Failed to notify explorer")
		return
	}
	o.log.Log(logging.ChannelTrace, logging.MessageOrchestratorToExplorer, logging.Explorer(uint32(rec.id)), protocol.Name(msg))
}

// incomingReply accepts the IncomingExplorerResponse for id, or Stopped.
func incomingReply(id ExplorerID) func(protocol.PlanetToOrchestrator) bool {
	return func(msg protocol.PlanetToOrchestrator) bool {
		switch r := msg.(type) {
		case protocol.IncomingExplorerResponse:
			return r.ExplorerID == id
		case protocol.Stopped:
			return true
		}
		return false
	}
}

func outgoingReply(id ExplorerID) func(protocol.PlanetToOrchestrator) bool {
	return func(msg protocol.PlanetToOrchestrator) bool {
		switch r := msg.(type) {
		case protocol.OutgoingExplorerResponse:
			return r.ExplorerID == id
		case protocol.Stopped:
			return true
		}
		return false
	}
}

func cancelReply(id ExplorerID) func(protocol.PlanetToOrchestrator) bool {
	return func(msg protocol.PlanetToOrchestrator) bool {
		r, ok := msg.(protocol.IncomingExplorerCancelResult)
		return ok && r.ExplorerID == id
	}
}

// PlanetInfo is a directory view of one planet.
type PlanetInfo struct {
	ID        PlanetID
	Name      string
	Type      resource.PlanetType
	State     LifecycleState
	Neighbors []PlanetID
	Explorers []ExplorerID
}

// ExplorerInfo is a directory view of one explorer.
type ExplorerInfo struct {
	ID     ExplorerID
	Name   string
	State  LifecycleState
	Planet PlanetID
}

// Planets returns the directory's planets in id order.
func (o *Orchestrator) Planets() []PlanetInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	hosted := make(map[PlanetID][]ExplorerID)
	for _, er := range o.explorers {
		if er.state != StateKilled {
			hosted[er.planet] = append(hosted[er.planet], er.id)
		}
	}

	infos := make([]PlanetInfo, 0, len(o.planets))
	for _, rec := range o.planets {
		ids := hosted[rec.id]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		infos = append(infos, PlanetInfo{
			ID:        rec.id,
			Name:      rec.name,
			Type:      rec.typ,
			State:     rec.state,
			Neighbors: sortedNeighbors(rec),
			Explorers: ids,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Explorers returns the directory's explorers in id order.
func (o *Orchestrator) Explorers() []ExplorerInfo {
	o.mu.RLock()
	defer o.mu.RUnlock()

	infos := make([]ExplorerInfo, 0, len(o.explorers))
	for _, rec := range o.explorers {
		infos = append(infos, ExplorerInfo{
			ID:     rec.id,
			Name:   rec.name,
			State:  rec.state,
			Planet: rec.planet,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/mailbox"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// ExplorerAdmitter is an optional PlanetAI extension that vets explorers
// before they are registered or released.
type ExplorerAdmitter interface {
	AdmitExplorer(state *PlanetState, id ExplorerID) protocol.Outcome
	ReleaseExplorer(state *PlanetState, id ExplorerID) protocol.Outcome
}

// Planet is a planet actor. It owns its energy cells and rocket, and
// serves the explorers registered on it.
type Planet struct {
	id    PlanetID
	name  string
	ai    PlanetAI
	forge *resource.Forge
	state *PlanetState

	inbox         *mailbox.Mailbox[protocol.OrchestratorToPlanet]
	explorerInbox *protocol.PlanetInbox
	toOrch        *mailbox.Mailbox[protocol.PlanetToOrchestrator]

	mu        sync.RWMutex
	lifecycle LifecycleState

	replyTimeout time.Duration
	log          *logging.Emitter
	done         chan struct{}
}

type planetParams struct {
	id           PlanetID
	name         string
	typ          resource.PlanetType
	rules        resource.Rules
	ai           PlanetAI
	forge        *resource.Forge
	toOrch       *mailbox.Mailbox[protocol.PlanetToOrchestrator]
	capacity     int
	replyTimeout time.Duration
	sink         logging.Sink
}

func newPlanet(p planetParams) *Planet {
	if p.ai == nil {
		p.ai = BasePlanetAI{}
	}
	return &Planet{
		id:            p.id,
		name:          p.name,
		ai:            p.ai,
		forge:         p.forge,
		state:         newPlanetState(p.id, p.typ, p.rules),
		inbox:         mailbox.New[protocol.OrchestratorToPlanet](p.capacity),
		explorerInbox: mailbox.New[protocol.ExplorerToPlanet](p.capacity),
		toOrch:        p.toOrch,
		lifecycle:     StateNotStarted,
		replyTimeout:  p.replyTimeout,
		log:           logging.NewEmitter(p.sink, logging.Planet(uint32(p.id))),
		done:          make(chan struct{}),
	}
}

// ID returns the planet id.
func (p *Planet) ID() PlanetID { return p.id }

// Name returns the planet name.
func (p *Planet) Name() string { return p.name }

// State returns the lifecycle state as seen by the planet itself.
func (p *Planet) State() LifecycleState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lifecycle
}

// Done is closed when the planet goroutine has exited.
func (p *Planet) Done() <-chan struct{} { return p.done }

// ExplorerInbox returns the mailbox explorers on this planet send requests to.
func (p *Planet) ExplorerInbox() *protocol.PlanetInbox { return p.explorerInbox }

func (p *Planet) setState(s LifecycleState) {
	p.mu.Lock()
	p.lifecycle = s
	p.mu.Unlock()
}

// run is the planet's message loop. It returns after KillPlanet or when ctx ends.
func (p *Planet) run(ctx context.Context) {
	defer func() {
		p.inbox.Close()
		p.explorerInbox.Close()
		close(p.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.inbox.Receive():
			if !p.handleOrchestrator(ctx, msg) {
				return
			}
		case req := <-p.explorerInbox.Receive():
			p.handleExplorer(ctx, req)
		}
	}
}

// handleOrchestrator serves one orchestrator message. It returns false once
// the planet has been killed.
func (p *Planet) handleOrchestrator(ctx context.Context, msg protocol.OrchestratorToPlanet) bool {
	p.log.Log(logging.ChannelTrace, logging.MessageOrchestratorToPlanet, logging.Orchestrator, protocol.Name(msg))

	current := p.State()
	next, served := planetTransition(current, msg)
	if !served {
		p.reply(ctx, protocol.Stopped{PlanetID: p.id})
		return true
	}

	switch m := msg.(type) {
	case protocol.StartPlanetAI:
		if current == StateRunning {
			p.reply(ctx, protocol.StartPlanetAIResult{PlanetID: p.id})
			return true
		}
		if err := p.start(); err != nil {
			p.log.Log(logging.ChannelError, logging.InternalPlanetAction, logging.Actor{}, "start failed", "error", err.Error())
			p.reply(ctx, protocol.StartPlanetAIResult{PlanetID: p.id, Err: err})
			return true
		}
		p.setState(next)
		p.reply(ctx, protocol.StartPlanetAIResult{PlanetID: p.id})

	case protocol.StopPlanetAI:
		var err error
		if current == StateRunning {
			err = safely("planet.OnStop", func() {
				p.ai.OnStop(p.state, p.state.generator, p.state.combinator)
			})
		}
		p.setState(next)
		p.reply(ctx, protocol.StopPlanetAIResult{PlanetID: p.id, Err: err})

	case protocol.KillPlanet:
		p.setState(StateKilled)
		p.reply(ctx, protocol.KillPlanetResult{PlanetID: p.id})
		p.log.Log(logging.ChannelInfo, logging.InternalPlanetAction, logging.Actor{}, "killed")
		return false

	case protocol.Sunray:
		if err := safely("planet.HandleSunray", func() { p.ai.HandleSunray(p.state, m.Payload) }); err != nil {
			p.hookFailed(err)
		}
		p.reply(ctx, protocol.SunrayAck{PlanetID: p.id})

	case protocol.Asteroid:
		var rocket *resource.Rocket
		if err := safely("planet.HandleAsteroid", func() { rocket = p.ai.HandleAsteroid(p.state) }); err != nil {
			p.hookFailed(err)
			rocket = nil
		}
		p.reply(ctx, protocol.AsteroidAck{PlanetID: p.id, RocketUsed: rocket != nil})

	case protocol.InternalStateRequest:
		p.reply(ctx, protocol.InternalStateResponse{PlanetID: p.id, State: p.snapshot()})

	case protocol.IncomingExplorerRequest:
		p.reply(ctx, protocol.IncomingExplorerResponse{
			PlanetID:   p.id,
			ExplorerID: m.ExplorerID,
			Outcome:    p.admit(m.ExplorerID, m.Mailbox, m.Restore),
		})

	case protocol.OutgoingExplorerRequest:
		p.reply(ctx, protocol.OutgoingExplorerResponse{
			PlanetID:   p.id,
			ExplorerID: m.ExplorerID,
			Outcome:    p.release(m.ExplorerID),
		})

	case protocol.IncomingExplorerCancel:
		if p.state.Hosts(m.ExplorerID) {
			delete(p.state.explorers, m.ExplorerID)
			if err := safely("planet.OnExplorerDeparture", func() { p.ai.OnExplorerDeparture(p.state, m.ExplorerID) }); err != nil {
				p.hookFailed(err)
			}
		}
		p.reply(ctx, protocol.IncomingExplorerCancelResult{PlanetID: p.id, ExplorerID: m.ExplorerID})
	}
	return true
}

// start acquires the shared generator and combinator and runs OnStart.
func (p *Planet) start() error {
	gen, err := p.forge.Generator()
	if err != nil {
		return fmt.Errorf("acquire generator: %w", err)
	}
	comb, err := p.forge.Combinator()
	if err != nil {
		return fmt.Errorf("acquire combinator: %w", err)
	}
	p.state.generator = gen
	p.state.combinator = comb
	return safely("planet.OnStart", func() { p.ai.OnStart(p.state, gen, comb) })
}

func (p *Planet) snapshot() protocol.PlanetSnapshot {
	snap := p.state.Snapshot()
	if err := safely("planet.HandleInternalState", func() { snap = p.ai.HandleInternalState(p.state) }); err != nil {
		p.hookFailed(err)
		snap = p.state.Snapshot()
	}
	snap.PlanetID = p.id
	return snap
}

// admit registers an explorer. Registering one that is already hosted is
// accepted without running the arrival hook again. A restore is never
// refused: the directory already records the explorer here.
func (p *Planet) admit(id ExplorerID, box *protocol.ExplorerInbox, restore bool) protocol.Outcome {
	if box == nil {
		return protocol.Reject("no reply mailbox")
	}
	if p.state.Hosts(id) {
		p.state.explorers[id] = box
		return protocol.Accept()
	}

	if restore {
		p.state.explorers[id] = box
		if err := safely("planet.OnExplorerArrival", func() { p.ai.OnExplorerArrival(p.state, id) }); err != nil {
			p.hookFailed(err)
		}
		p.log.Log(logging.ChannelWarning, logging.InternalPlanetAction, logging.Explorer(uint32(id)), "explorer restored")
		return protocol.Accept()
	}

	if gate, ok := p.ai.(ExplorerAdmitter); ok {
		var outcome protocol.Outcome
		if err := safely("planet.AdmitExplorer", func() { outcome = gate.AdmitExplorer(p.state, id) }); err != nil {
			p.hookFailed(err)
			return protocol.Reject(err.Error())
		}
		if !outcome.Accepted {
			return outcome
		}
	}

	p.state.explorers[id] = box
	if err := safely("planet.OnExplorerArrival", func() { p.ai.OnExplorerArrival(p.state, id) }); err != nil {
		p.hookFailed(err)
		delete(p.state.explorers, id)
		return protocol.Reject(err.Error())
	}
	return protocol.Accept()
}

// release unregisters an explorer.
func (p *Planet) release(id ExplorerID) protocol.Outcome {
	box, ok := p.state.explorers[id]
	if !ok {
		return protocol.Reject("explorer not hosted")
	}

	if gate, ok := p.ai.(ExplorerAdmitter); ok {
		var outcome protocol.Outcome
		if err := safely("planet.ReleaseExplorer", func() { outcome = gate.ReleaseExplorer(p.state, id) }); err != nil {
			p.hookFailed(err)
			return protocol.Reject(err.Error())
		}
		if !outcome.Accepted {
			return outcome
		}
	}

	delete(p.state.explorers, id)
	if err := safely("planet.OnExplorerDeparture", func() { p.ai.OnExplorerDeparture(p.state, id) }); err != nil {
		p.hookFailed(err)
		p.state.explorers[id] = box
		return protocol.Reject(err.Error())
	}
	return protocol.Accept()
}

// handleExplorer answers a request from a hosted explorer.
func (p *Planet) handleExplorer(ctx context.Context, req protocol.ExplorerToPlanet) {
	id := protocol.RequesterOf(req)
	box, ok := p.state.explorers[id]
	if !ok {
		log.Warn().Uint32("planet_id", uint32(p.id)).Uint32("explorer_id", uint32(id)).
			Str("request", protocol.Name(req)).Msg("Request from explorer not hosted here")
		return
	}
	p.log.Log(logging.ChannelTrace, logging.MessageExplorerToPlanet, logging.Explorer(uint32(id)), protocol.Name(req))

	var resp protocol.PlanetToExplorer
	if p.State() != StateRunning {
		resp = protocol.PlanetUnavailable{ExplorerID: id, PlanetID: p.id, Reason: "planet not running"}
	} else if err := safely("planet.HandleExplorerRequest", func() { resp = p.ai.HandleExplorerRequest(p.state, req) }); err != nil {
		p.hookFailed(err)
		resp = protocol.PlanetUnavailable{ExplorerID: id, PlanetID: p.id, Reason: err.Error()}
	}
	if resp == nil {
		resp = p.defaultExplorerResponse(req)
	}

	sendCtx, cancel := context.WithTimeout(ctx, p.replyTimeout)
	defer cancel()
	if err := box.Send(sendCtx, resp); err != nil {
		log.Warn().Err(err).Uint32("planet_id", uint32(p.id)).Uint32("explorer_id", uint32(id)).
			Msg("Failed to reply to explorer")
		return
	}
	p.log.Log(logging.ChannelTrace, logging.MessagePlanetToExplorer, logging.Explorer(uint32(id)), protocol.Name(resp))
}

func (p *Planet) defaultExplorerResponse(req protocol.ExplorerToPlanet) protocol.PlanetToExplorer {
	s := p.state
	switch r := req.(type) {
	case protocol.SupportedResourceRequest:
		return protocol.SupportedResourceResponse{ExplorerID: r.ExplorerID, Kinds: append([]resource.BasicKind(nil), s.rules.Generate...)}

	case protocol.SupportedCombinationRequest:
		return protocol.SupportedCombinationResponse{ExplorerID: r.ExplorerID, Kinds: append([]resource.ComplexKind(nil), s.rules.Combine...)}

	case protocol.GenerateResourceRequest:
		resp := protocol.GenerateResourceResponse{ExplorerID: r.ExplorerID}
		if !s.rules.CanGenerate(r.Kind) || s.generator == nil {
			return resp
		}
		cell, ok := s.FullCell()
		if !ok {
			return resp
		}
		if res, ok := s.generator.TryMake(r.Kind, cell); ok {
			resp.Resource = &res
		}
		return resp

	case protocol.CombineResourceRequest:
		resp := protocol.CombineResourceResponse{ExplorerID: r.ExplorerID}
		if !s.rules.CanCombine(r.Kind) || s.combinator == nil {
			resp.Err = &resource.CombinationError{Kind: r.Kind, Reason: "planet cannot combine " + r.Kind.String(), First: r.First, Second: r.Second}
			return resp
		}
		res, err := s.combinator.Make(r.Kind, r.First, r.Second)
		if err != nil {
			var cerr *resource.CombinationError
			if !errors.As(err, &cerr) {
				cerr = &resource.CombinationError{Kind: r.Kind, Reason: err.Error(), First: r.First, Second: r.Second}
			}
			resp.Err = cerr
			return resp
		}
		resp.Resource = &res
		return resp

	case protocol.AvailableEnergyCellRequest:
		return protocol.AvailableEnergyCellResponse{ExplorerID: r.ExplorerID, Count: s.ChargedCells()}

	case protocol.PlanetStateRequest:
		return protocol.PlanetStateResponse{ExplorerID: r.ExplorerID, State: p.snapshot()}
	}
	return protocol.PlanetUnavailable{ExplorerID: protocol.RequesterOf(req), PlanetID: p.id, Reason: "unsupported request"}
}

func (p *Planet) reply(ctx context.Context, msg protocol.PlanetToOrchestrator) {
	sendCtx, cancel := context.WithTimeout(ctx, p.replyTimeout)
	defer cancel()
	if err := p.toOrch.Send(sendCtx, msg); err != nil {
		log.Warn().Err(err).Uint32("planet_id", uint32(p.id)).Str("reply", protocol.Name(msg)).
			Msg("Failed to reply to orchestrator")
		return
	}
	p.log.Log(logging.ChannelTrace, logging.MessagePlanetToOrchestrator, logging.Orchestrator, protocol.Name(msg))
}

func (p *Planet) hookFailed(err error) {
	p.log.Log(logging.ChannelError, logging.InternalPlanetAction, logging.Actor{}, "ai hook failed", "error", err.Error())
	log.Error().Err(err).Uint32("planet_id", uint32(p.id)).Msg("Planet AI hook failed")
}

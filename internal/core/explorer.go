package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/mailbox"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

// Explorer is an explorer actor. It lives on exactly one planet at a time
// and carries a bag of resources.
type Explorer struct {
	id   ExplorerID
	name string
	ai   ExplorerAI
	ctrl *ExplorerControl

	inbox         *mailbox.Mailbox[protocol.OrchestratorToExplorer]
	planetReplies *protocol.ExplorerInbox
	toOrch        *mailbox.Mailbox[protocol.ExplorerToOrchestrator]

	mu        sync.RWMutex
	lifecycle LifecycleState
	planet    PlanetID
	planetBox *protocol.PlanetInbox

	// bag is only touched from the explorer goroutine.
	bag *resource.Bag

	limiter      *rate.Limiter
	tick         time.Duration
	replyTimeout time.Duration
	log          *logging.Emitter
	done         chan struct{}
}

type explorerParams struct {
	id           ExplorerID
	name         string
	ai           ExplorerAI
	planet       PlanetID
	planetBox    *protocol.PlanetInbox
	toOrch       *mailbox.Mailbox[protocol.ExplorerToOrchestrator]
	capacity     int
	tick         time.Duration
	rateLimit    float64
	rateBurst    int
	replyTimeout time.Duration
	sink         logging.Sink
}

func newExplorer(p explorerParams) *Explorer {
	if p.ai == nil {
		p.ai = BaseExplorerAI{}
	}
	e := &Explorer{
		id:            p.id,
		name:          p.name,
		ai:            p.ai,
		inbox:         mailbox.New[protocol.OrchestratorToExplorer](p.capacity),
		planetReplies: mailbox.New[protocol.PlanetToExplorer](p.capacity),
		toOrch:        p.toOrch,
		lifecycle:     StateNotStarted,
		planet:        p.planet,
		planetBox:     p.planetBox,
		bag:           resource.NewBag(),
		limiter:       rate.NewLimiter(rate.Limit(p.rateLimit), p.rateBurst),
		tick:          p.tick,
		replyTimeout:  p.replyTimeout,
		log:           logging.NewEmitter(p.sink, logging.Explorer(uint32(p.id))),
		done:          make(chan struct{}),
	}
	e.ctrl = &ExplorerControl{e: e}
	return e
}

// ID returns the explorer id.
func (e *Explorer) ID() ExplorerID { return e.id }

// Name returns the explorer name.
func (e *Explorer) Name() string { return e.name }

// State returns the lifecycle state as seen by the explorer itself.
func (e *Explorer) State() LifecycleState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lifecycle
}

// Planet returns the planet the explorer believes it is on.
func (e *Explorer) Planet() PlanetID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.planet
}

// Done is closed when the explorer goroutine has exited.
func (e *Explorer) Done() <-chan struct{} { return e.done }

// Replies returns the mailbox planets answer this explorer on.
func (e *Explorer) Replies() *protocol.ExplorerInbox { return e.planetReplies }

func (e *Explorer) setState(s LifecycleState) {
	e.mu.Lock()
	e.lifecycle = s
	e.mu.Unlock()
}

func (e *Explorer) currentPlanet() (PlanetID, *protocol.PlanetInbox) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.planet, e.planetBox
}

// run is the explorer's message loop. Step runs on every tick while running.
func (e *Explorer) run(ctx context.Context) {
	ticker := time.NewTicker(e.tick)
	defer func() {
		ticker.Stop()
		e.inbox.Close()
		e.planetReplies.Close()
		close(e.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-e.inbox.Receive():
			if !e.handle(ctx, msg) {
				return
			}
		case <-ticker.C:
			if e.State() != StateRunning {
				continue
			}
			if err := safely("explorer.Step", func() { e.ai.Step(ctx, e.ctrl) }); err != nil {
				e.hookFailed(err)
			}
		}
	}
}

// handle serves one orchestrator message. It returns false once the
// explorer has been killed.
func (e *Explorer) handle(ctx context.Context, msg protocol.OrchestratorToExplorer) bool {
	e.log.Log(logging.ChannelTrace, logging.MessageOrchestratorToExplorer, logging.Orchestrator, protocol.Name(msg))

	current := e.State()
	next := explorerTransition(current, msg)

	switch m := msg.(type) {
	case protocol.StartExplorerAI:
		var err error
		switch current {
		case StateNotStarted:
			if err = safely("explorer.OnStart", func() { e.ai.OnStart(e.ctrl) }); err == nil {
				e.setState(next)
			}
		case StateStopped:
			err = fmt.Errorf("%w: explorer is stopped, reset it instead", ErrProtocolViolation)
		}
		e.reply(ctx, protocol.StartExplorerAIResult{ExplorerID: e.id, Err: err})

	case protocol.StopExplorerAI:
		var err error
		if current == StateRunning {
			err = safely("explorer.OnStop", func() { e.ai.OnStop(e.ctrl) })
			e.setState(next)
		}
		e.reply(ctx, protocol.StopExplorerAIResult{ExplorerID: e.id, Err: err})

	case protocol.ResetExplorerAI:
		err := safely("explorer.OnReset", func() { e.ai.OnReset(e.ctrl) })
		if err == nil {
			e.setState(next)
		}
		e.reply(ctx, protocol.ResetExplorerAIResult{ExplorerID: e.id, Err: err})

	case protocol.KillExplorer:
		e.setState(StateKilled)
		e.reply(ctx, protocol.KillExplorerResult{ExplorerID: e.id})
		e.log.Log(logging.ChannelInfo, logging.InternalExplorerAction, logging.Actor{}, "killed")
		return false

	case protocol.MoveToPlanet:
		if m.Mailbox == nil {
			if err := safely("explorer.OnTravelDenied", func() { e.ai.OnTravelDenied(e.ctrl, m.PlanetID) }); err != nil {
				e.hookFailed(err)
			}
			return true
		}
		e.mu.Lock()
		e.planet = m.PlanetID
		e.planetBox = m.Mailbox
		e.mu.Unlock()
		e.drainReplies()
		if err := safely("explorer.OnMoved", func() { e.ai.OnMoved(e.ctrl, m.PlanetID) }); err != nil {
			e.hookFailed(err)
		}
		e.reply(ctx, protocol.MovedToPlanetResult{ExplorerID: e.id, PlanetID: m.PlanetID})

	case protocol.CurrentPlanetRequest:
		e.reply(ctx, protocol.CurrentPlanetResult{ExplorerID: e.id, PlanetID: e.Planet()})

	case protocol.NeighborsResponse:
		if err := safely("explorer.OnNeighbors", func() { e.ai.OnNeighbors(e.ctrl, m.Neighbors) }); err != nil {
			e.hookFailed(err)
		}

	case protocol.BagContentRequest:
		e.reply(ctx, protocol.BagContentResponse{ExplorerID: e.id, Bag: e.bag.Contents()})

	case protocol.AskSupportedResources:
		kinds, err := e.ctrl.SupportedResources(ctx)
		e.reply(ctx, protocol.SupportedResourcesResult{ExplorerID: e.id, Kinds: kinds, Err: err})

	case protocol.AskSupportedCombinations:
		kinds, err := e.ctrl.SupportedCombinations(ctx)
		e.reply(ctx, protocol.SupportedCombinationsResult{ExplorerID: e.id, Kinds: kinds, Err: err})

	case protocol.GenerateCommand:
		err := e.ctrl.Generate(ctx, m.Kind)
		e.reply(ctx, protocol.GenerateCommandResult{ExplorerID: e.id, Err: err})

	case protocol.CombineCommand:
		err := e.ctrl.Combine(ctx, m.Kind)
		e.reply(ctx, protocol.CombineCommandResult{ExplorerID: e.id, Err: err})
	}
	return true
}

// drainReplies discards planet replies left over from abandoned requests.
func (e *Explorer) drainReplies() {
	for {
		select {
		case <-e.planetReplies.Receive():
		default:
			return
		}
	}
}

func (e *Explorer) reply(ctx context.Context, msg protocol.ExplorerToOrchestrator) {
	sendCtx, cancel := context.WithTimeout(ctx, e.replyTimeout)
	defer cancel()
	if err := e.toOrch.Send(sendCtx, msg); err != nil {
		log.Warn().Err(err).Uint32("explorer_id", uint32(e.id)).Str("reply", protocol.Name(msg)).
			Msg("Failed to reply to orchestrator")
		return
	}
	e.log.Log(logging.ChannelTrace, logging.MessageExplorerToOrchestrator, logging.Orchestrator, protocol.Name(msg))
}

func (e *Explorer) hookFailed(err error) {
	e.log.Log(logging.ChannelError, logging.InternalExplorerAction, logging.Actor{}, "ai hook failed", "error", err.Error())
	log.Error().Err(err).Uint32("explorer_id", uint32(e.id)).Msg("Explorer AI hook failed")
}

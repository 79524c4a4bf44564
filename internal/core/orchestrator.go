package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xonecas/zoea-galaxy/internal/config"
	"github.com/xonecas/zoea-galaxy/internal/constants"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/mailbox"
	"github.com/xonecas/zoea-galaxy/internal/protocol"
	"github.com/xonecas/zoea-galaxy/internal/resource"
)

const tracerName = "github.com/xonecas/zoea-galaxy/internal/core"

type planetRecord struct {
	id        PlanetID
	name      string
	typ       resource.PlanetType
	actor     *Planet
	cancel    context.CancelFunc
	state     LifecycleState
	dying     bool
	neighbors map[PlanetID]struct{}
	corr      *correlator[protocol.PlanetToOrchestrator]
}

type explorerRecord struct {
	id     ExplorerID
	name   string
	actor  *Explorer
	cancel context.CancelFunc
	state  LifecycleState
	dying  bool
	planet PlanetID
	corr   *correlator[protocol.ExplorerToOrchestrator]
}

type exitNotice struct {
	planet   PlanetID
	explorer ExplorerID
}

// Orchestrator owns the directory of planets and explorers, the neighbor
// graph and every relocation. It is the only component that mutates records.
type Orchestrator struct {
	mu           sync.RWMutex
	planets      map[PlanetID]*planetRecord
	explorers    map[ExplorerID]*explorerRecord
	nextPlanet   PlanetID
	nextExplorer ExplorerID
	relocations  map[ExplorerID]*RelocationAttempt

	cfg    *config.Config
	forge  *resource.Forge
	bus    *EventBus
	sink   logging.Sink
	log    *logging.Emitter
	tracer trace.Tracer

	planetInbox   *mailbox.Mailbox[protocol.PlanetToOrchestrator]
	explorerInbox *mailbox.Mailbox[protocol.ExplorerToOrchestrator]
	exits         chan exitNotice

	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	handlers       sync.WaitGroup
	stop           chan struct{}
	stopOnce       sync.Once
	dispatcherDone chan struct{}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSink sets the protocol log sink shared by every actor.
func WithSink(sink logging.Sink) Option {
	return func(o *Orchestrator) { o.sink = sink }
}

// WithTracer sets the tracer used for relocation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// NewOrchestrator creates an orchestrator and starts its dispatcher.
func NewOrchestrator(cfg *config.Config, forge *resource.Forge, bus *EventBus, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if forge == nil {
		forge = resource.NewForge()
	}
	if bus == nil {
		bus = NewEventBus(constants.MinEventBusBufferSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		planets:        make(map[PlanetID]*planetRecord),
		explorers:      make(map[ExplorerID]*explorerRecord),
		relocations:    make(map[ExplorerID]*RelocationAttempt),
		cfg:            cfg,
		forge:          forge,
		bus:            bus,
		sink:           logging.Discard,
		tracer:         otel.Tracer(tracerName),
		planetInbox:    mailbox.New[protocol.PlanetToOrchestrator](constants.OrchestratorInboxCapacity),
		explorerInbox:  mailbox.New[protocol.ExplorerToOrchestrator](constants.OrchestratorInboxCapacity),
		exits:          make(chan exitNotice, 16),
		ctx:            ctx,
		cancel:         cancel,
		stop:           make(chan struct{}),
		dispatcherDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = logging.NewEmitter(o.sink, logging.Orchestrator)

	go o.dispatch()
	return o
}

// Bus returns the event bus.
func (o *Orchestrator) Bus() *EventBus { return o.bus }

// Forge returns the shared forge.
func (o *Orchestrator) Forge() *resource.Forge { return o.forge }

func (o *Orchestrator) timeout() time.Duration {
	if d := o.cfg.Orchestrator.RequestTimeout.Duration; d > 0 {
		return d
	}
	return constants.RequestTimeout
}

func (o *Orchestrator) publish(e Event) {
	e.Timestamp = time.Now()
	o.bus.Publish(e)
}

// dispatch routes actor replies to their waiters until Shutdown.
func (o *Orchestrator) dispatch() {
	defer close(o.dispatcherDone)
	for {
		select {
		case <-o.stop:
			return
		case msg := <-o.planetInbox.Receive():
			o.routePlanet(msg)
		case msg := <-o.explorerInbox.Receive():
			o.routeExplorer(msg)
		case n := <-o.exits:
			o.drainInboxes()
			o.actorExited(n)
		}
	}
}

func (o *Orchestrator) drainInboxes() {
	for {
		select {
		case msg := <-o.planetInbox.Receive():
			o.routePlanet(msg)
		case msg := <-o.explorerInbox.Receive():
			o.routeExplorer(msg)
		default:
			return
		}
	}
}

func (o *Orchestrator) routePlanet(msg protocol.PlanetToOrchestrator) {
	id := protocol.PlanetIDOf(msg)
	o.mu.RLock()
	rec, ok := o.planets[id]
	o.mu.RUnlock()
	if !ok || !rec.corr.deliver(msg) {
		log.Debug().Uint32("planet_id", uint32(id)).Str("reply", protocol.Name(msg)).Msg("Dropping unexpected planet reply")
	}
}

func (o *Orchestrator) routeExplorer(msg protocol.ExplorerToOrchestrator) {
	id := protocol.ExplorerIDOf(msg)
	if protocol.IsExplorerRequest(msg) {
		o.handlers.Add(1)
		go func() {
			defer o.handlers.Done()
			o.handleExplorerRequest(msg)
		}()
		return
	}

	o.mu.RLock()
	rec, ok := o.explorers[id]
	o.mu.RUnlock()
	if !ok || !rec.corr.deliver(msg) {
		log.Debug().Uint32("explorer_id", uint32(id)).Str("reply", protocol.Name(msg)).Msg("Dropping unexpected explorer reply")
	}
}

// actorExited fails the waiters of an actor whose goroutine ended. An actor
// that exits without being killed is recorded as killed.
func (o *Orchestrator) actorExited(n exitNotice) {
	if n.planet != 0 {
		o.mu.Lock()
		rec, ok := o.planets[n.planet]
		unexpected := ok && rec.state != StateKilled && !rec.dying
		if unexpected {
			rec.state = StateKilled
		}
		o.mu.Unlock()
		if !ok {
			return
		}
		rec.corr.fail()
		if unexpected {
			log.Warn().Uint32("planet_id", uint32(n.planet)).Msg("Planet exited unexpectedly")
			o.handlers.Add(1)
			go func() {
				defer o.handlers.Done()
				o.afterPlanetDestroyed(o.ctx, rec)
			}()
		}
		return
	}

	o.mu.Lock()
	rec, ok := o.explorers[n.explorer]
	if ok && rec.state != StateKilled && !rec.dying {
		rec.state = StateKilled
		log.Warn().Uint32("explorer_id", uint32(n.explorer)).Msg("Explorer exited unexpectedly")
	}
	o.mu.Unlock()
	if ok {
		rec.corr.fail()
	}
}

// spawn runs fn on its own goroutine and reports its exit to the dispatcher.
func (o *Orchestrator) spawn(run func(), n exitNotice) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		run()
		select {
		case o.exits <- n:
		case <-o.dispatcherDone:
		}
	}()
}

// planetReply accepts replies of type T and the Stopped refusal.
func planetReply[T protocol.PlanetToOrchestrator](msg protocol.PlanetToOrchestrator) bool {
	if _, ok := msg.(T); ok {
		return true
	}
	_, ok := msg.(protocol.Stopped)
	return ok
}

func explorerReply[T protocol.ExplorerToOrchestrator](msg protocol.ExplorerToOrchestrator) bool {
	_, ok := msg.(T)
	return ok
}

func (o *Orchestrator) askPlanet(ctx context.Context, rec *planetRecord, msg protocol.OrchestratorToPlanet, accepts func(protocol.PlanetToOrchestrator) bool) (protocol.PlanetToOrchestrator, error) {
	o.log.Log(logging.ChannelTrace, logging.MessageOrchestratorToPlanet, logging.Planet(uint32(rec.id)), protocol.Name(msg))
	return request(ctx, rec.corr, rec.actor.inbox, msg, accepts, o.timeout())
}

func (o *Orchestrator) askExplorer(ctx context.Context, rec *explorerRecord, msg protocol.OrchestratorToExplorer, accepts func(protocol.ExplorerToOrchestrator) bool, timeout time.Duration) (protocol.ExplorerToOrchestrator, error) {
	o.log.Log(logging.ChannelTrace, logging.MessageOrchestratorToExplorer, logging.Explorer(uint32(rec.id)), protocol.Name(msg))
	return request(ctx, rec.corr, rec.actor.inbox, msg, accepts, timeout)
}

// lookupPlanet returns a live planet record. Killed planets report
// ErrProtocolViolation, unknown ids ErrNotFound.
func (o *Orchestrator) lookupPlanet(id PlanetID) (*planetRecord, LifecycleState, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.planets[id]
	if !ok {
		return nil, "", fmt.Errorf("planet %s: %w", id, ErrNotFound)
	}
	if rec.state == StateKilled {
		return nil, StateKilled, fmt.Errorf("planet %s is killed: %w", id, ErrProtocolViolation)
	}
	return rec, rec.state, nil
}

func (o *Orchestrator) lookupExplorer(id ExplorerID) (*explorerRecord, LifecycleState, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.explorers[id]
	if !ok {
		return nil, "", fmt.Errorf("explorer %s: %w", id, ErrNotFound)
	}
	if rec.state == StateKilled {
		return nil, StateKilled, fmt.Errorf("explorer %s is killed: %w", id, ErrProtocolViolation)
	}
	return rec, rec.state, nil
}

func (o *Orchestrator) setPlanetState(rec *planetRecord, s LifecycleState) {
	o.mu.Lock()
	old := rec.state
	if old == StateKilled || old == s {
		o.mu.Unlock()
		return
	}
	rec.state = s
	o.mu.Unlock()

	o.publish(Event{
		Type:     EventPlanetStateChanged,
		PlanetID: rec.id,
		Data:     StateChangeData{OldState: old, NewState: s},
	})
}

func (o *Orchestrator) setExplorerState(rec *explorerRecord, s LifecycleState) {
	o.mu.Lock()
	old := rec.state
	if old == StateKilled || old == s {
		o.mu.Unlock()
		return
	}
	rec.state = s
	o.mu.Unlock()

	o.publish(Event{
		Type:       EventExplorerStateChanged,
		ExplorerID: rec.id,
		Data:       StateChangeData{OldState: old, NewState: s},
	})
}

// AddPlanet creates a planet actor in state NotStarted.
func (o *Orchestrator) AddPlanet(name string, typ resource.PlanetType, rules resource.Rules, ai PlanetAI) (PlanetID, error) {
	if err := typ.Validate(rules); err != nil {
		return 0, fmt.Errorf("planet %q: %w", name, err)
	}

	o.mu.Lock()
	if len(o.planets) >= o.cfg.Orchestrator.MaxPlanets {
		o.mu.Unlock()
		return 0, fmt.Errorf("max planets (%d): %w", o.cfg.Orchestrator.MaxPlanets, ErrLimitReached)
	}
	o.nextPlanet++
	id := o.nextPlanet
	if name == "" {
		name = id.String()
	}

	p := newPlanet(planetParams{
		id:           id,
		name:         name,
		typ:          typ,
		rules:        rules,
		ai:           ai,
		forge:        o.forge,
		toOrch:       o.planetInbox,
		capacity:     o.cfg.Orchestrator.MailboxCapacity,
		replyTimeout: o.timeout(),
		sink:         o.sink,
	})
	ctx, cancel := context.WithCancel(o.ctx)
	o.planets[id] = &planetRecord{
		id:        id,
		name:      name,
		typ:       typ,
		actor:     p,
		cancel:    cancel,
		state:     StateNotStarted,
		neighbors: make(map[PlanetID]struct{}),
		corr:      newCorrelator[protocol.PlanetToOrchestrator](),
	}
	o.mu.Unlock()

	o.spawn(func() { p.run(ctx) }, exitNotice{planet: id})

	log.Info().Uint32("planet_id", uint32(id)).Str("name", name).Str("type", typ.String()).Msg("Planet added")
	o.log.Log(logging.ChannelInfo, logging.InternalOrchestratorAction, logging.Planet(uint32(id)), "planet added", "name", name, "type", typ.String())
	o.publish(Event{Type: EventPlanetAdded, PlanetID: id})
	return id, nil
}

// Connect adds an undirected edge between two live planets.
func (o *Orchestrator) Connect(a, b PlanetID) error {
	if a == b {
		return fmt.Errorf("connect %s to itself: %w", a, ErrProtocolViolation)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	pa, ok := o.planets[a]
	if !ok {
		return fmt.Errorf("planet %s: %w", a, ErrNotFound)
	}
	pb, ok := o.planets[b]
	if !ok {
		return fmt.Errorf("planet %s: %w", b, ErrNotFound)
	}
	if pa.state == StateKilled || pb.state == StateKilled {
		return fmt.Errorf("connect %s and %s: killed planet: %w", a, b, ErrProtocolViolation)
	}
	pa.neighbors[b] = struct{}{}
	pb.neighbors[a] = struct{}{}
	return nil
}

// Disconnect removes the edge between two planets, if any.
func (o *Orchestrator) Disconnect(a, b PlanetID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	pa, ok := o.planets[a]
	if !ok {
		return fmt.Errorf("planet %s: %w", a, ErrNotFound)
	}
	pb, ok := o.planets[b]
	if !ok {
		return fmt.Errorf("planet %s: %w", b, ErrNotFound)
	}
	delete(pa.neighbors, b)
	delete(pb.neighbors, a)
	return nil
}

// Neighbors returns the planets adjacent to id in ascending order.
func (o *Orchestrator) Neighbors(id PlanetID) ([]PlanetID, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	rec, ok := o.planets[id]
	if !ok {
		return nil, fmt.Errorf("planet %s: %w", id, ErrNotFound)
	}
	return sortedNeighbors(rec), nil
}

func sortedNeighbors(rec *planetRecord) []PlanetID {
	ids := make([]PlanetID, 0, len(rec.neighbors))
	for n := range rec.neighbors {
		ids = append(ids, n)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StartPlanet starts a planet. Starting a running planet is a no-op;
// a stopped planet cannot be restarted.
func (o *Orchestrator) StartPlanet(ctx context.Context, id PlanetID) error {
	rec, state, err := o.lookupPlanet(id)
	if err != nil {
		return err
	}
	switch state {
	case StateRunning:
		return nil
	case StateStopped:
		return fmt.Errorf("planet %s is stopped: %w", id, ErrProtocolViolation)
	}

	reply, err := o.askPlanet(ctx, rec, protocol.StartPlanetAI{}, planetReply[protocol.StartPlanetAIResult])
	if err != nil {
		return fmt.Errorf("start planet %s: %w", id, err)
	}
	switch r := reply.(type) {
	case protocol.Stopped:
		return fmt.Errorf("start planet %s: %w", id, ErrProtocolViolation)
	case protocol.StartPlanetAIResult:
		if r.Err != nil {
			return fmt.Errorf("start planet %s: %w", id, r.Err)
		}
	}
	o.setPlanetState(rec, StateRunning)
	return nil
}

// StopPlanet stops a planet. It keeps its explorers and resources but
// refuses every request except KillPlanet and compensation.
func (o *Orchestrator) StopPlanet(ctx context.Context, id PlanetID) error {
	rec, state, err := o.lookupPlanet(id)
	if err != nil {
		return err
	}
	if state == StateStopped {
		return nil
	}

	reply, err := o.askPlanet(ctx, rec, protocol.StopPlanetAI{}, planetReply[protocol.StopPlanetAIResult])
	if err != nil {
		return fmt.Errorf("stop planet %s: %w", id, err)
	}
	switch r := reply.(type) {
	case protocol.Stopped:
		return fmt.Errorf("stop planet %s: %w", id, ErrProtocolViolation)
	case protocol.StopPlanetAIResult:
		if state == StateRunning {
			o.setPlanetState(rec, StateStopped)
		}
		if r.Err != nil {
			return fmt.Errorf("stop planet %s: %w", id, r.Err)
		}
	}
	return nil
}

// KillPlanet destroys a planet and every explorer on it.
func (o *Orchestrator) KillPlanet(ctx context.Context, id PlanetID) error {
	rec, _, err := o.lookupPlanet(id)
	if err != nil {
		return err
	}
	return o.destroyPlanet(ctx, rec, "killed")
}

func (o *Orchestrator) destroyPlanet(ctx context.Context, rec *planetRecord, reason string) error {
	o.mu.Lock()
	if rec.dying || rec.state == StateKilled {
		o.mu.Unlock()
		return nil
	}
	rec.dying = true
	o.abortRelocationsTo(rec.id)
	o.mu.Unlock()

	var killErr error
	reply, err := o.askPlanet(ctx, rec, protocol.KillPlanet{}, planetReply[protocol.KillPlanetResult])
	if err != nil {
		killErr = fmt.Errorf("kill planet %s: %w", rec.id, err)
		rec.cancel()
	} else if _, ok := reply.(protocol.KillPlanetResult); !ok {
		killErr = fmt.Errorf("kill planet %s: unexpected %s: %w", rec.id, protocol.Name(reply), ErrProtocolViolation)
		rec.cancel()
	}

	o.mu.Lock()
	old := rec.state
	rec.state = StateKilled
	o.mu.Unlock()
	o.publish(Event{
		Type:     EventPlanetStateChanged,
		PlanetID: rec.id,
		Data:     StateChangeData{OldState: old, NewState: StateKilled},
	})

	log.Info().Uint32("planet_id", uint32(rec.id)).Str("reason", reason).Msg("Planet destroyed")
	o.log.Log(logging.ChannelInfo, logging.InternalOrchestratorAction, logging.Planet(uint32(rec.id)), "planet destroyed", "reason", reason)
	return errors.Join(killErr, o.afterPlanetDestroyed(ctx, rec))
}

// afterPlanetDestroyed removes a killed planet from the graph and kills
// the explorers recorded on it.
func (o *Orchestrator) afterPlanetDestroyed(ctx context.Context, rec *planetRecord) error {
	o.mu.Lock()
	for n := range rec.neighbors {
		if other, ok := o.planets[n]; ok {
			delete(other.neighbors, rec.id)
		}
	}
	rec.neighbors = make(map[PlanetID]struct{})
	o.abortRelocationsTo(rec.id)
	var victims []*explorerRecord
	for _, er := range o.explorers {
		if er.planet == rec.id && er.state != StateKilled {
			victims = append(victims, er)
		}
	}
	o.mu.Unlock()

	o.bus.publishCritical(Event{Type: EventPlanetDestroyed, PlanetID: rec.id, Timestamp: time.Now()})

	var errs []error
	for _, er := range victims {
		if err := o.killExplorer(ctx, er, false); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendSunray mints a sunray and delivers it to a running planet.
func (o *Orchestrator) SendSunray(ctx context.Context, id PlanetID) error {
	rec, _, err := o.lookupPlanet(id)
	if err != nil {
		return err
	}
	reply, err := o.askPlanet(ctx, rec, protocol.Sunray{Payload: o.forge.Sunray()}, planetReply[protocol.SunrayAck])
	if err != nil {
		return fmt.Errorf("sunray to %s: %w", id, err)
	}
	if _, ok := reply.(protocol.Stopped); ok {
		return fmt.Errorf("sunray to %s: planet not running: %w", id, ErrProtocolViolation)
	}
	o.publish(Event{Type: EventSunray, PlanetID: id})
	return nil
}

// AsteroidOutcome reports how an asteroid strike ended.
type AsteroidOutcome struct {
	RocketUsed bool
	Destroyed  bool
}

// SendAsteroid mints an asteroid and delivers it. A planet that does not
// answer with a launched rocket is killed.
func (o *Orchestrator) SendAsteroid(ctx context.Context, id PlanetID) (AsteroidOutcome, error) {
	rec, _, err := o.lookupPlanet(id)
	if err != nil {
		return AsteroidOutcome{}, err
	}

	var out AsteroidOutcome
	reply, err := o.askPlanet(ctx, rec, protocol.Asteroid{Payload: o.forge.Asteroid()}, planetReply[protocol.AsteroidAck])
	switch {
	case err != nil:
		log.Warn().Err(err).Uint32("planet_id", uint32(id)).Msg("Planet did not answer asteroid")
	default:
		if ack, ok := reply.(protocol.AsteroidAck); ok {
			out.RocketUsed = ack.RocketUsed
		}
	}

	var killErr error
	if !out.RocketUsed {
		out.Destroyed = true
		killErr = o.destroyPlanet(ctx, rec, "asteroid")
	}
	o.publish(Event{
		Type:     EventAsteroid,
		PlanetID: id,
		Data:     AsteroidData{RocketUsed: out.RocketUsed, Destroyed: out.Destroyed},
	})
	return out, killErr
}

// PlanetState returns a running planet's snapshot.
func (o *Orchestrator) PlanetState(ctx context.Context, id PlanetID) (protocol.PlanetSnapshot, error) {
	rec, _, err := o.lookupPlanet(id)
	if err != nil {
		return protocol.PlanetSnapshot{}, err
	}
	reply, err := o.askPlanet(ctx, rec, protocol.InternalStateRequest{}, planetReply[protocol.InternalStateResponse])
	if err != nil {
		return protocol.PlanetSnapshot{}, fmt.Errorf("state of %s: %w", id, err)
	}
	resp, ok := reply.(protocol.InternalStateResponse)
	if !ok {
		return protocol.PlanetSnapshot{}, fmt.Errorf("state of %s: planet not running: %w", id, ErrProtocolViolation)
	}
	return resp.State, nil
}

// StartAll starts every not-started planet concurrently, then every
// not-started explorer.
func (o *Orchestrator) StartAll(ctx context.Context) error {
	o.mu.RLock()
	var planets []PlanetID
	for id, rec := range o.planets {
		if rec.state == StateNotStarted {
			planets = append(planets, id)
		}
	}
	o.mu.RUnlock()

	if err := startConcurrently(ctx, planets, o.StartPlanet); err != nil {
		return err
	}

	o.mu.RLock()
	var explorers []ExplorerID
	for id, rec := range o.explorers {
		if rec.state == StateNotStarted {
			explorers = append(explorers, id)
		}
	}
	o.mu.RUnlock()

	return startConcurrently(ctx, explorers, o.StartExplorer)
}

// Shutdown kills every actor and stops the dispatcher.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.RLock()
	var explorers []*explorerRecord
	for _, rec := range o.explorers {
		if rec.state != StateKilled {
			explorers = append(explorers, rec)
		}
	}
	var planets []*planetRecord
	for _, rec := range o.planets {
		if rec.state != StateKilled {
			planets = append(planets, rec)
		}
	}
	o.mu.RUnlock()

	var errs []error
	for _, rec := range explorers {
		if err := o.killExplorer(ctx, rec, false); err != nil {
			errs = append(errs, err)
		}
	}
	for _, rec := range planets {
		if err := o.destroyPlanet(ctx, rec, "shutdown"); err != nil {
			errs = append(errs, err)
		}
	}

	o.cancel()
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		o.handlers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("shutdown: %w", ctx.Err()))
	}

	o.stopOnce.Do(func() { close(o.stop) })
	<-o.dispatcherDone
	o.planetInbox.Close()
	o.explorerInbox.Close()
	return errors.Join(errs...)
}

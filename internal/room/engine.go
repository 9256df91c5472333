package room

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	mathrand "math/rand"
	"sync"
	"time"

	"pixel-beach/server/internal/telemetry"
	"pixel-beach/server/logging"
	loggingchat "pixel-beach/server/logging/chat"
	"pixel-beach/server/logging/lifecycle"
)

// Sender delivers one serialized event to a single connection. Implementations
// must be safe for concurrent use; the engine writes from broadcast paths and
// timer goroutines.
type Sender interface {
	Send(data []byte) error
	Close() error
}

// Config carries the tunables for an Engine. Zero values fall back to the
// defaults below.
type Config struct {
	Bounds           Bounds
	Step             int
	MessageTTL       time.Duration
	MaxMessageLength int
	// Seed fixes the spawn rng when non-zero. Zero seeds from entropy.
	Seed      int64
	Logger    telemetry.Logger
	Publisher logging.Publisher
}

const (
	defaultStep             = 10
	defaultMessageTTL       = 5 * time.Second
	defaultMaxMessageLength = 512
)

// DefaultBounds is the playable rectangle observed by the stock client.
func DefaultBounds() Bounds {
	return Bounds{
		X: Range{Min: 50, Max: 1316},
		Y: Range{Min: 550, Max: 768},
	}
}

// DefaultConfig returns an engine configuration with the stock rectangle,
// step size, and message lifetime.
func DefaultConfig() Config {
	return Config{
		Bounds:           DefaultBounds(),
		Step:             defaultStep,
		MessageTTL:       defaultMessageTTL,
		MaxMessageLength: defaultMaxMessageLength,
	}
}

// Engine is the single in-memory authority for the room. It exclusively owns
// the identity map and the world state; every mutating operation is
// serialized behind one mutex, and broadcasts are written outside it against
// a copied subscriber list.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	world     *worldState
	identity  *identityMap
	subs      map[string]Sender
	scheduler *messageScheduler
	logger    telemetry.Logger
	publisher logging.Publisher
}

// NewEngine constructs an engine instance. There are no package-level
// singletons; the transport layer receives the instance it must talk to.
func NewEngine(cfg Config) *Engine {
	if cfg.Step <= 0 {
		cfg.Step = defaultStep
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = defaultMessageTTL
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = defaultMaxMessageLength
	}
	if cfg.Bounds.X.Span() <= 0 || cfg.Bounds.Y.Span() <= 0 {
		cfg.Bounds = DefaultBounds()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if cfg.Publisher == nil {
		cfg.Publisher = logging.NopPublisher()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = entropySeed()
	}

	return &Engine{
		cfg:       cfg,
		world:     newWorldState(cfg.Bounds, mathrand.New(mathrand.NewSource(seed))),
		identity:  newIdentityMap(),
		subs:      make(map[string]Sender),
		scheduler: newMessageScheduler(),
		logger:    cfg.Logger,
		publisher: cfg.Publisher,
	}
}

func entropySeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

// Subscribe registers a live connection in the anonymous state. The engine
// sends nothing until the connection identifies itself with Join.
func (e *Engine) Subscribe(connID string, sender Sender) {
	e.mu.Lock()
	e.subs[connID] = sender
	e.mu.Unlock()
}

// Join transitions a connection from anonymous to identified. The joining
// connection receives the world as it stood before the join; every other
// connection hears about the identity only if this join created it, so an
// extra tab attaching to an existing name stays silent for observers.
func (e *Engine) Join(connID, name, avatarID string) error {
	if name == "" {
		return ErrUnknownUser
	}

	e.mu.Lock()
	joiner, ok := e.subs[connID]
	if !ok {
		e.mu.Unlock()
		return ErrUnknownConnection
	}

	// Rebinding a live connection to a different name is not something the
	// protocol does, but it must not strand the old identity if it happens.
	if prev, bound := e.identity.lookup(connID); bound && prev != name {
		e.releaseIdentityLocked(connID, prev)
	}

	snapshot := e.world.snapshot()
	e.identity.bind(connID, name)
	rec, created := e.world.getOrCreate(name, avatarID)
	info := rec.info()
	others := e.sendersExceptLocked(connID)
	e.mu.Unlock()

	e.send(connID, joiner, stateMessage{Type: msgTypeState, Users: snapshot})
	if created {
		e.broadcast(others, userAppearedMessage{Type: msgTypeUserAppeared, Name: name, Info: info})
		lifecycle.UserJoined(context.Background(), e.publisher, userRef(name),
			lifecycle.UserJoinedPayload{AvatarID: avatarID, SpawnX: info.X, SpawnY: info.Y}, nil)
	}
	return nil
}

// Move applies a clamped step and broadcasts the absolute position to every
// connection, the mover included, so all views converge on the same value.
func (e *Engine) Move(connID, direction string) error {
	axis, delta, ok := parseDirection(direction, e.cfg.Step)
	if !ok {
		return ErrInvalidDirection
	}

	e.mu.Lock()
	name, bound := e.identity.lookup(connID)
	if !bound {
		e.mu.Unlock()
		return ErrUnknownConnection
	}
	rec, err := e.world.move(name, axis, delta)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	msg := userMovedMessage{Type: msgTypeUserMoved, Name: name, X: rec.X, Y: rec.Y}
	targets := e.sendersLocked()
	e.mu.Unlock()

	e.broadcast(targets, msg)
	return nil
}

// Talk attaches a transient message to the speaker. A still-active previous
// message is expired first, removal notice included, so observers never hold
// two bubbles for one name. Expiry is armed before the broadcast leaves the
// lock, keeping the one-pending-timer invariant.
func (e *Engine) Talk(connID, text string) error {
	text = truncateRunes(text, e.cfg.MaxMessageLength)

	e.mu.Lock()
	name, bound := e.identity.lookup(connID)
	if !bound {
		e.mu.Unlock()
		return ErrUnknownConnection
	}
	rec, ok := e.world.get(name)
	if !ok {
		e.mu.Unlock()
		return ErrUnknownUser
	}

	superseded := rec.message != nil
	if superseded {
		e.scheduler.cancel(name)
	}
	handle := e.scheduler.schedule(name, e.cfg.MessageTTL, func(h *expiryHandle) {
		e.expireMessage(name, h)
	})
	rec.message = &activeMessage{text: text, handle: handle}
	targets := e.sendersLocked()
	e.mu.Unlock()

	if superseded {
		e.broadcast(targets, messageRemovedMessage{Type: msgTypeMessageRemoved, Name: name})
	}
	e.broadcast(targets, userSpokeMessage{Type: msgTypeUserSpoke, Name: name, Text: text})
	loggingchat.UserSpoke(context.Background(), e.publisher, userRef(name),
		loggingchat.UserSpokePayload{Length: len(text), Superseded: superseded}, nil)
	return nil
}

// Disconnect unbinds a connection. Only the departure of the last connection
// for a name evicts the identity and tells the remaining observers; a stale
// tab closing while another is live stays invisible.
func (e *Engine) Disconnect(connID string) {
	e.mu.Lock()
	sender, subbed := e.subs[connID]
	delete(e.subs, connID)

	name, bound := e.identity.unbind(connID)
	if !bound {
		e.mu.Unlock()
		if subbed {
			sender.Close()
		}
		return
	}

	departed := e.departIfLastLocked(connID, name)
	var targets map[string]Sender
	if departed {
		targets = e.sendersLocked()
	}
	e.mu.Unlock()

	if subbed {
		sender.Close()
	}
	if departed {
		e.broadcast(targets, userLeftMessage{Type: msgTypeUserLeft, Name: name})
		lifecycle.UserLeft(context.Background(), e.publisher, userRef(name),
			lifecycle.UserLeftPayload{Reason: "disconnect"}, nil)
	}
}

// releaseIdentityLocked detaches connID from name mid-session and, when it
// was the last connection, removes the record. Caller holds the mutex and is
// responsible for not needing the departure broadcast (only reached on the
// defensive rebind path).
func (e *Engine) releaseIdentityLocked(connID, name string) {
	e.identity.unbind(connID)
	e.departIfLastLocked(connID, name)
}

// departIfLastLocked removes the presence record and its pending expiry when
// no other connection keeps the name alive. Caller holds the mutex.
func (e *Engine) departIfLastLocked(connID, name string) bool {
	if e.identity.hasOtherConnections(name, connID) {
		return false
	}
	e.scheduler.cancel(name)
	e.world.remove(name)
	return true
}

// expireMessage runs on the timer goroutine after the scheduler confirmed the
// handle was still pending. The record is re-checked under the engine mutex:
// a Talk that superseded the message between the timer firing and this lock
// acquisition leaves a different handle behind, and the stale expiry must not
// touch it.
func (e *Engine) expireMessage(name string, h *expiryHandle) {
	e.mu.Lock()
	rec, ok := e.world.get(name)
	if !ok || rec.message == nil || rec.message.handle != h {
		e.mu.Unlock()
		return
	}
	rec.message = nil
	targets := e.sendersLocked()
	e.mu.Unlock()

	e.broadcast(targets, messageRemovedMessage{Type: msgTypeMessageRemoved, Name: name})
	loggingchat.MessageExpired(context.Background(), e.publisher, userRef(name), nil)
}

// Stats is the diagnostics view of the room.
type Stats struct {
	Users           int `json:"users"`
	Connections     int `json:"connections"`
	PendingExpiries int `json:"pendingExpiries"`
}

// DiagnosticsSnapshot exposes counts for the diagnostics endpoint.
func (e *Engine) DiagnosticsSnapshot() Stats {
	e.mu.Lock()
	users := e.world.len()
	conns := e.identity.len()
	e.mu.Unlock()
	return Stats{
		Users:           users,
		Connections:     conns,
		PendingExpiries: e.scheduler.pendingCount(),
	}
}

func (e *Engine) sendersLocked() map[string]Sender {
	targets := make(map[string]Sender, len(e.subs))
	for id, sender := range e.subs {
		targets[id] = sender
	}
	return targets
}

func (e *Engine) sendersExceptLocked(exclude string) map[string]Sender {
	targets := make(map[string]Sender, len(e.subs))
	for id, sender := range e.subs {
		if id == exclude {
			continue
		}
		targets[id] = sender
	}
	return targets
}

// broadcast marshals once and writes to every target. Connections whose
// writes fail are disconnected afterwards; that may recurse into a user-left
// broadcast for the remaining connections.
func (e *Engine) broadcast(targets map[string]Sender, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Printf("failed to marshal broadcast: %v", err)
		return
	}

	var failed []string
	for id, sender := range targets {
		if err := sender.Send(data); err != nil {
			e.logger.Printf("failed to send to %s: %v", id, err)
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		e.Disconnect(id)
	}
}

// send writes one payload to a single connection.
func (e *Engine) send(connID string, sender Sender, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.Printf("failed to marshal message for %s: %v", connID, err)
		return
	}
	if err := sender.Send(data); err != nil {
		e.logger.Printf("failed to send to %s: %v", connID, err)
		e.Disconnect(connID)
	}
}

func userRef(name string) logging.EntityRef {
	return logging.EntityRef{ID: name, Kind: logging.EntityKindUser}
}

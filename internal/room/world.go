package room

import "math/rand"

// PresenceRecord tracks one logical user: the avatar chosen at join time,
// the clamped position, and the currently spoken message if any.
type PresenceRecord struct {
	AvatarID string
	X        int
	Y        int
	message  *activeMessage
}

type activeMessage struct {
	text   string
	handle *expiryHandle
}

// UserInfo is the wire-facing view of a presence record.
type UserInfo struct {
	AvatarID string `json:"avatarId"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Message  string `json:"message,omitempty"`
}

func (r *PresenceRecord) info() UserInfo {
	info := UserInfo{AvatarID: r.AvatarID, X: r.X, Y: r.Y}
	if r.message != nil {
		info.Message = r.message.text
	}
	return info
}

// worldState is the authoritative name → presence mapping. It never enforces
// referential integrity against the identity map; that is the engine's job.
// Not safe for concurrent use; the engine serializes access behind its mutex.
type worldState struct {
	bounds Bounds
	rng    *rand.Rand
	users  map[string]*PresenceRecord
}

func newWorldState(bounds Bounds, rng *rand.Rand) *worldState {
	return &worldState{
		bounds: bounds,
		rng:    rng,
		users:  make(map[string]*PresenceRecord),
	}
}

// getOrCreate returns the record for name, spawning a fresh one at a random
// in-bounds position only when the name is unseen. A second connection
// joining an existing name must never reset position or avatar.
func (w *worldState) getOrCreate(name, avatarID string) (*PresenceRecord, bool) {
	if rec, ok := w.users[name]; ok {
		return rec, false
	}
	x := w.bounds.X.Min + w.rng.Intn(w.bounds.X.Span())
	y := w.bounds.Y.Min + w.rng.Intn(w.bounds.Y.Span())
	rec := &PresenceRecord{AvatarID: avatarID, X: x, Y: y}
	w.users[name] = rec
	return rec, true
}

func (w *worldState) get(name string) (*PresenceRecord, bool) {
	rec, ok := w.users[name]
	return rec, ok
}

// move applies a signed step on one axis and clamps the result to the
// playable rectangle.
func (w *worldState) move(name string, axis Axis, delta int) (*PresenceRecord, error) {
	rec, ok := w.users[name]
	if !ok {
		return nil, ErrUnknownUser
	}
	r := w.bounds.Range(axis)
	if axis == AxisY {
		rec.Y = r.Clamp(rec.Y, delta)
	} else {
		rec.X = r.Clamp(rec.X, delta)
	}
	return rec, nil
}

func (w *worldState) remove(name string) {
	delete(w.users, name)
}

// snapshot copies the full mapping for seeding a new observer. The copy is
// detached from live records so broadcast marshaling can run outside the
// engine mutex.
func (w *worldState) snapshot() map[string]UserInfo {
	users := make(map[string]UserInfo, len(w.users))
	for name, rec := range w.users {
		users[name] = rec.info()
	}
	return users
}

func (w *worldState) len() int {
	return len(w.users)
}

package room

// identityMap associates transport connection identifiers with logical user
// names. Several live connections may map to the same name (extra browser
// tabs); the engine uses hasOtherConnections to decide when an identity is
// truly gone. Not safe for concurrent use on its own; the engine serializes
// access behind its mutex.
type identityMap struct {
	names map[string]string
}

func newIdentityMap() *identityMap {
	return &identityMap{names: make(map[string]string)}
}

// bind registers conn under name. Rebinding an already bound connection
// replaces the prior binding; the engine never does that on purpose, but the
// map must not corrupt state if it happens.
func (m *identityMap) bind(connID, name string) {
	m.names[connID] = name
}

// unbind removes the binding for conn and reports the name it held.
func (m *identityMap) unbind(connID string) (string, bool) {
	name, ok := m.names[connID]
	if !ok {
		return "", false
	}
	delete(m.names, connID)
	return name, true
}

// lookup reports the name conn is currently bound to.
func (m *identityMap) lookup(connID string) (string, bool) {
	name, ok := m.names[connID]
	return name, ok
}

// hasOtherConnections reports whether any connection besides exclude is bound
// to name.
func (m *identityMap) hasOtherConnections(name, exclude string) bool {
	for conn, bound := range m.names {
		if conn == exclude {
			continue
		}
		if bound == name {
			return true
		}
	}
	return false
}

func (m *identityMap) len() int {
	return len(m.names)
}

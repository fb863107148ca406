// Package registry owns the identity ↔ connection binding. Handlers never
// store identity or room state on the transport object; they resolve the
// Connection record here before touching any room state.
package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrUnauthenticated   = errors.New("connection has no registered identity")
	ErrInvalidIdentity   = errors.New("identity must not be empty")
)

// Connection associates one identity with exactly one live channel.
// RoomCode is the room the identity currently occupies, or empty.
type Connection struct {
	ID       string
	Identity string
	RoomCode string
}

type Registry struct {
	mu      sync.RWMutex
	byConn  map[string]*Connection
	byIdent map[string]string // identity → connection ID
}

func New() *Registry {
	return &Registry{
		byConn:  make(map[string]*Connection),
		byIdent: make(map[string]string),
	}
}

// Attach creates an unauthenticated Connection record for a new channel and
// returns its ID.
func (r *Registry) Attach() string {
	id := uuid.NewString()
	r.mu.Lock()
	r.byConn[id] = &Connection{ID: id}
	r.mu.Unlock()
	return id
}

// Register binds identity to the given connection. Fails when the identity is
// held by a different live connection; re-registering the same identity on the
// same connection is a no-op.
func (r *Registry) Register(connID, identity string) (*Connection, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrInvalidIdentity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byConn[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	if holder, taken := r.byIdent[identity]; taken && holder != connID {
		return nil, ErrDuplicateIdentity
	}
	if conn.Identity != "" && conn.Identity != identity {
		delete(r.byIdent, conn.Identity)
	}
	conn.Identity = identity
	r.byIdent[identity] = connID
	snapshot := *conn
	return &snapshot, nil
}

// Release removes the connection record and frees its identity for reuse.
// Idempotent: releasing an unknown connection is a no-op.
func (r *Registry) Release(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.byConn[connID]
	if !ok {
		return
	}
	if conn.Identity != "" && r.byIdent[conn.Identity] == connID {
		delete(r.byIdent, conn.Identity)
	}
	delete(r.byConn, connID)
}

// Resolve returns a copy of the connection's record, requiring a registered
// identity.
func (r *Registry) Resolve(connID string) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.byConn[connID]
	if !ok {
		return nil, ErrUnknownConnection
	}
	if conn.Identity == "" {
		return nil, ErrUnauthenticated
	}
	snapshot := *conn
	return &snapshot, nil
}

// SetRoom records the room the connection's identity occupies.
func (r *Registry) SetRoom(connID, code string) {
	r.mu.Lock()
	if conn, ok := r.byConn[connID]; ok {
		conn.RoomCode = code
	}
	r.mu.Unlock()
}

// ClearRoom drops the connection's room association.
func (r *Registry) ClearRoom(connID string) { r.SetRoom(connID, "") }

// ConnByIdentity returns the live connection ID holding identity, if any.
func (r *Registry) ConnByIdentity(identity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdent[identity]
	return id, ok
}

// Package guard defines the access-control and pause collaborators the
// engine consults before every privileged or state-mutating operation.
// Recur does not implement role management itself; embedders inject
// whatever capability framework they run.
package guard

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/xraph/recur/types"
)

// Role is a named capability checked before privileged mutations.
type Role string

const (
	// RoleAdmin gates catalog, treasury, and duration configuration.
	RoleAdmin Role = "admin"
	// RoleService gates batch and targeted keeper renewal.
	RoleService Role = "service"
)

// Authorizer answers binary capability questions for a caller.
type Authorizer interface {
	HasCapability(ctx context.Context, caller types.Address, role Role) (bool, error)
}

// Pauser reports the global emergency-stop flag. While paused, every
// state-mutating entry point fails; reads keep working.
type Pauser interface {
	IsPaused(ctx context.Context) (bool, error)
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, caller types.Address, role Role) (bool, error)

// HasCapability implements Authorizer.
func (f AuthorizerFunc) HasCapability(ctx context.Context, caller types.Address, role Role) (bool, error) {
	return f(ctx, caller, role)
}

// AllowAll grants every capability to every caller. Test and single-tenant
// embedding use only.
func AllowAll() Authorizer {
	return AuthorizerFunc(func(context.Context, types.Address, Role) (bool, error) {
		return true, nil
	})
}

// DenyAll grants nothing.
func DenyAll() Authorizer {
	return AuthorizerFunc(func(context.Context, types.Address, Role) (bool, error) {
		return false, nil
	})
}

// StaticAuthorizer grants roles from a fixed in-memory table.
type StaticAuthorizer struct {
	mu     sync.RWMutex
	grants map[types.Address]map[Role]bool
}

// NewStaticAuthorizer creates an empty static grant table.
func NewStaticAuthorizer() *StaticAuthorizer {
	return &StaticAuthorizer{grants: make(map[types.Address]map[Role]bool)}
}

// Grant gives caller the role.
func (a *StaticAuthorizer) Grant(caller types.Address, role Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.grants[caller] == nil {
		a.grants[caller] = make(map[Role]bool)
	}
	a.grants[caller][role] = true
}

// Revoke removes the role from caller.
func (a *StaticAuthorizer) Revoke(caller types.Address, role Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.grants[caller], role)
}

// HasCapability implements Authorizer.
func (a *StaticAuthorizer) HasCapability(_ context.Context, caller types.Address, role Role) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.grants[caller][role], nil
}

// Switch is a Pauser backed by an atomic flag.
type Switch struct {
	paused atomic.Bool
}

// NewSwitch creates an unpaused Switch.
func NewSwitch() *Switch { return &Switch{} }

// Pause sets the emergency-stop flag.
func (s *Switch) Pause() { s.paused.Store(true) }

// Resume clears the emergency-stop flag.
func (s *Switch) Resume() { s.paused.Store(false) }

// IsPaused implements Pauser.
func (s *Switch) IsPaused(context.Context) (bool, error) {
	return s.paused.Load(), nil
}

// NeverPaused is a Pauser that always reports running.
func NeverPaused() Pauser { return pauserFunc(func(context.Context) (bool, error) { return false, nil }) }

type pauserFunc func(ctx context.Context) (bool, error)

func (f pauserFunc) IsPaused(ctx context.Context) (bool, error) { return f(ctx) }

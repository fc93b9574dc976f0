// Package admin decides whether a request is made by the site admin.
package admin

import (
	"context"

	"github.com/kalambet/folio/internal/appwrite"
)

// State is the visitor's standing for one request.
type State int

const (
	Guest State = iota
	Admin
)

func (s State) String() string {
	if s == Admin {
		return "admin"
	}
	return "guest"
}

// Identity is the gateway surface the gate depends on.
type Identity interface {
	SignIn(ctx context.Context, email, password string) (string, *appwrite.User, error)
	SignOut(ctx context.Context)
	CurrentIdentity(ctx context.Context) *appwrite.User
	AdminUserID() string
}

// Gate holds no state of its own; the backend session in ctx is the only
// source of truth.
type Gate struct {
	id Identity
}

func NewGate(id Identity) *Gate {
	return &Gate{id: id}
}

// Resolve returns Admin only when the session in ctx belongs to the
// configured admin.
func (g *Gate) Resolve(ctx context.Context) (State, *appwrite.User) {
	me := g.id.CurrentIdentity(ctx)
	if me == nil {
		return Guest, nil
	}
	if admin := g.id.AdminUserID(); admin == "" || me.ID != admin {
		return Guest, me
	}
	return Admin, me
}

// SignIn returns the backend session secret for an admin sign-in. The
// gateway has already rejected and deleted sessions of anyone else.
func (g *Gate) SignIn(ctx context.Context, email, password string) (string, *appwrite.User, error) {
	return g.id.SignIn(ctx, email, password)
}

// SignOut always succeeds; the caller drops its session carrier regardless.
func (g *Gate) SignOut(ctx context.Context) {
	g.id.SignOut(ctx)
}

package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/kalambet/folio/internal/appwrite"
)

type fakeIdentity struct {
	admin    string
	current  *appwrite.User
	signedIn bool
	signOuts int
}

func (f *fakeIdentity) SignIn(_ context.Context, email, _ string) (string, *appwrite.User, error) {
	if email != "admin@example.com" {
		return "", nil, errors.New("unauthorized")
	}
	f.signedIn = true
	return "secret", &appwrite.User{ID: f.admin}, nil
}

func (f *fakeIdentity) SignOut(context.Context)                        { f.signOuts++ }
func (f *fakeIdentity) CurrentIdentity(context.Context) *appwrite.User { return f.current }
func (f *fakeIdentity) AdminUserID() string                            { return f.admin }

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		admin   string
		current *appwrite.User
		want    State
	}{
		{"no session", "admin-1", nil, Guest},
		{"admin", "admin-1", &appwrite.User{ID: "admin-1"}, Admin},
		{"other user", "admin-1", &appwrite.User{ID: "eve"}, Guest},
		{"no admin configured", "", &appwrite.User{ID: "admin-1"}, Guest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(&fakeIdentity{admin: tt.admin, current: tt.current})
			got, _ := g.Resolve(context.Background())
			if got != tt.want {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignIn_NonAdminStaysGuest(t *testing.T) {
	id := &fakeIdentity{admin: "admin-1"}
	g := NewGate(id)

	if _, _, err := g.SignIn(context.Background(), "eve@example.com", "pw"); err == nil {
		t.Fatal("expected error")
	}
	if state, _ := g.Resolve(context.Background()); state != Guest {
		t.Errorf("state = %v, want guest", state)
	}
}

func TestSignOut_Delegates(t *testing.T) {
	id := &fakeIdentity{admin: "admin-1"}
	g := NewGate(id)
	g.SignOut(context.Background())
	if id.signOuts != 1 {
		t.Errorf("signOuts = %d", id.signOuts)
	}
}

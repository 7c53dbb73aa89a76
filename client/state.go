// Package client is the Go counterpart of the browser session store: an
// HTTP client that drives the auth endpoints and keeps an immutable
// snapshot of who is signed in.
package client

import "github.com/finvault/finvault/users"

// AuthState is a point-in-time view of the session. Snapshots are never
// mutated; every server response produces a fresh one, so a caller holding
// an old snapshot sees a consistent past, not a moving target.
type AuthState struct {
	Identity   *users.Summary
	Require2FA bool
	Err        error
}

// Authenticated reports whether the snapshot represents a full session.
// A pending 2FA step does not count.
func (s AuthState) Authenticated() bool {
	return s.Identity != nil && !s.Require2FA
}

func stateFromSession(resp *sessionResponse) AuthState {
	if resp.Require2FA {
		return AuthState{Require2FA: true}
	}
	return AuthState{Identity: resp.User}
}

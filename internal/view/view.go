// Package view tracks which screen each user is on.
//
// State is a pure value: every transition returns a new State and never
// touches the network, the chat manager, or the settings store. Handlers
// apply transitions and act on the result (for example closing the chat a
// transition left behind).
package view

import (
	"fmt"
	"sync"
)

// Page is one screen of the client.
type Page string

const (
	Landing Page = "landing"
	Login   Page = "login"
	Signup  Page = "signup"
	Chat    Page = "chat"
)

// Action is a navigation event from the header or a page.
type Action string

const (
	ActionLogo   Action = "logo"   // header logo
	ActionNew    Action = "new"    // header "New"
	ActionBack   Action = "back"   // chat "Back"
	ActionLogin  Action = "login"  // header "Login" / signup page link
	ActionSignup Action = "signup" // login page "Sign up" link
)

// State is the router state for one user.
type State struct {
	Page     Page
	LoggedIn bool
	ChatID   string // open chat, only meaningful on the chat page
}

// Initial is the state before anyone logs in.
func Initial() State {
	return State{Page: Landing}
}

// Resolve returns the page that is actually shown. Anonymous users only
// ever see login or signup; a chat page without a chat shows nothing and
// falls back to landing.
func (s State) Resolve() Page {
	if !s.LoggedIn && s.Page != Login && s.Page != Signup {
		return Login
	}
	if s.Page == Chat && s.ChatID == "" {
		return Landing
	}
	return s.Page
}

// LoggedInAs is the state after a successful login or signup.
func (s State) LoggedInAs() State {
	return State{Page: Landing, LoggedIn: true}
}

// LoggedOut is the state after logout: back to login with no chat.
func (s State) LoggedOut() State {
	return State{Page: Login}
}

// OpenChat moves to the chat page for chatID (upload or history select).
func (s State) OpenChat(chatID string) State {
	return State{Page: Chat, LoggedIn: s.LoggedIn, ChatID: chatID}
}

// Apply handles a navigation action. Logo, New and Back all drop the
// current file and return to landing.
func (s State) Apply(a Action) (State, error) {
	switch a {
	case ActionLogo, ActionNew, ActionBack:
		return State{Page: Landing, LoggedIn: s.LoggedIn}, nil
	case ActionLogin:
		return State{Page: Login, LoggedIn: s.LoggedIn}, nil
	case ActionSignup:
		return State{Page: Signup, LoggedIn: s.LoggedIn}, nil
	default:
		return s, fmt.Errorf("unknown view action %q", a)
	}
}

// Registry holds the state of every user. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]State)}
}

// Get returns the state for userID, or Initial when unknown.
func (r *Registry) Get(userID string) State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.states[userID]; ok {
		return s
	}
	return Initial()
}

// Update applies fn to the user's state atomically and returns the old and
// new states.
func (r *Registry) Update(userID string, fn func(State) (State, error)) (prev, next State, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.states[userID]
	if !ok {
		prev = Initial()
	}
	next, err = fn(prev)
	if err != nil {
		return prev, prev, err
	}
	r.states[userID] = next
	return prev, next, nil
}

// Forget drops the user's state.
func (r *Registry) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
}

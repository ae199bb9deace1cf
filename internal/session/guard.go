package session

import (
	"sync"
	"time"
)

// DefaultIdleTimeout ends a session after 15 minutes without user activity.
const DefaultIdleTimeout = 15 * time.Minute

type State int

const (
	Expired State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "expired"
}

// Activity is a kind of user interaction.
type Activity string

const (
	PointerMove Activity = "pointermove"
	KeyPress    Activity = "keypress"
	Click       Activity = "click"
	Scroll      Activity = "scroll"
)

func (a Activity) qualifies() bool {
	switch a {
	case PointerMove, KeyPress, Click, Scroll:
		return true
	default:
		return false
	}
}

// Reason explains why a session ended.
type Reason string

const (
	ReasonIdle            Reason = "idle"
	ReasonUnload          Reason = "unload"
	ReasonLogout          Reason = "logout"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonLoginFailed     Reason = "login_failed"
)

// Notice returns the user-facing message for a session end, if any.
func (r Reason) Notice() string {
	switch r {
	case ReasonIdle:
		return "Session expired due to inactivity"
	case ReasonUnauthenticated:
		return "Your session is no longer valid. Please log in again."
	default:
		return ""
	}
}

// Guard tracks whether a session is Active and expires it after an idle period.
// Once Expired, only a new Start makes it Active again.
type Guard struct {
	onExpire func(Reason)

	mu    sync.Mutex
	state State
	idle  *IdleTimer
}

func NewGuard(timeout time.Duration, onExpire func(Reason)) *Guard {
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}
	g := &Guard{onExpire: onExpire}
	g.idle = NewIdleTimer(timeout, func() { g.expire(ReasonIdle) })
	return g
}

// Start makes the guard Active and arms the idle timer.
func (g *Guard) Start() {
	g.mu.Lock()
	g.state = Active
	g.mu.Unlock()
	g.idle.Start()
}

// Touch records user activity. It returns false when the activity does not
// qualify or the guard is not Active.
func (g *Guard) Touch(a Activity) bool {
	if !a.qualifies() {
		return false
	}
	g.mu.Lock()
	active := g.state == Active
	g.mu.Unlock()
	if !active {
		return false
	}
	g.idle.Reset()
	return true
}

// Unload ends the session unconditionally, as when the client shuts down.
func (g *Guard) Unload() {
	g.expire(ReasonUnload)
}

// End expires the guard for an explicit reason.
func (g *Guard) End(r Reason) {
	g.expire(r)
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) expire(r Reason) {
	g.mu.Lock()
	wasActive := g.state == Active
	g.state = Expired
	g.mu.Unlock()

	g.idle.Cancel()
	if (wasActive || r == ReasonUnload) && g.onExpire != nil {
		g.onExpire(r)
	}
}

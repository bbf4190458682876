package session

// Phase is the stage of a session.
type Phase int

const (
	Idle Phase = iota
	LoggingIn
	Authenticated
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case LoggingIn:
		return "logging_in"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Route is the navigation decision derived from a State.
type Route int

const (
	// RouteStay keeps the current screen.
	RouteStay Route = iota
	// RouteLogin goes to the login screen and clears the navigation history.
	RouteLogin
)

func (r Route) String() string {
	if r == RouteLogin {
		return "login"
	}
	return "stay"
}

// Principal identifies an authenticated user.
type Principal struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// State is an immutable session value. The zero State is Idle.
// Transitions return a new State and never look at the receiver:
// every login attempt replaces the state wholesale.
type State struct {
	Phase Phase     `json:"phase"`
	Error string    `json:"error,omitempty"`
	User  Principal `json:"user"`
}

func (s State) IsLoading() bool       { return s.Phase == LoggingIn }
func (s State) IsAuthenticated() bool { return s.Phase == Authenticated }

func (s State) Begin() State {
	return State{Phase: LoggingIn}
}

func (s State) Succeed(p Principal) State {
	return State{Phase: Authenticated, User: p}
}

func (s State) Fail(msg string) State {
	return State{Phase: Failed, Error: msg}
}

func (s State) SignedOut() State {
	return State{}
}

// Route goes to login whenever the session is not authenticated.
func (s State) Route() Route {
	if s.IsAuthenticated() {
		return RouteStay
	}
	return RouteLogin
}

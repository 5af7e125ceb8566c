package domain

// LoginState is the lifecycle state of the login form.
type LoginState string

const (
	LoginIdle             LoginState = "idle"
	LoginSubmitting       LoginState = "submitting"
	LoginAuthenticated    LoginState = "authenticated"
	LoginRejected         LoginState = "rejected"
	LoginConnectionFailed LoginState = "connection_failed"
)

// loginTransitions defines the allowed login state machine transitions.
var loginTransitions = map[LoginState][]LoginState{
	LoginIdle:             {LoginSubmitting},
	LoginSubmitting:       {LoginAuthenticated, LoginRejected, LoginConnectionFailed},
	LoginRejected:         {LoginIdle},
	LoginConnectionFailed: {LoginIdle},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s LoginState) CanTransitionTo(next LoginState) bool {
	for _, allowed := range loginTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LoginView is the plain data a login form is rendered from.
type LoginView struct {
	State         LoginState
	SubmitEnabled bool
	Loading       bool
	Notice        *Notice
}

// LoginResult is what the backend returns on a successful exchange.
type LoginResult struct {
	Message string       `json:"mensaje"`
	Token   Token        `json:"token"`
	User    *SessionUser `json:"usuario"`
}

// LoginOutcome reports the terminal state reached by a submission and the
// message shown to the user.
type LoginOutcome struct {
	State   LoginState
	Message string
	User    *SessionUser
}

package session

import (
	"context"
	"sync"

	"github.com/trezcool/gradebook/core"
)

// Machine holds the session State of one client and publishes every change to its subscribers.
type Machine struct {
	auth   Authority
	logger core.Logger

	mu     sync.Mutex
	state  State
	gen    uint64 // bumped by every login attempt and logout
	subs   map[int]chan State
	nextID int
}

func NewMachine(auth Authority, logger core.Logger) *Machine {
	return &Machine{
		auth:   auth,
		logger: logger,
		subs:   make(map[int]chan State),
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe returns a channel receiving the current State right away, then every change.
// A subscriber lagging behind only gets the latest State. Call cancel to unsubscribe.
func (m *Machine) Subscribe() (updates <-chan State, cancel func()) {
	ch := make(chan State, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	ch <- m.state
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// publish must be called with mu held.
func (m *Machine) publish(s State) State {
	m.state = s
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			// drop the stale state
			select {
			case <-ch:
			default:
			}
			ch <- s
		}
	}
	return s
}

// begin publishes s as the first state of a new generation.
func (m *Machine) begin(s State) (uint64, State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen, m.publish(s)
}

// settle publishes s unless a later login or logout superseded generation gen.
func (m *Machine) settle(gen uint64, s State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return m.state
	}
	return m.publish(s)
}

// Login signs in with email and password and returns the resulting State.
// The outcome of a login overtaken by another login or a logout is dropped.
func (m *Machine) Login(ctx context.Context, email, password string) State {
	email, err := cleanCredentials(email, password)
	if err != nil {
		_, s := m.begin(m.State().Fail(err.Error()))
		return s
	}

	gen, _ := m.begin(m.State().Begin())
	p, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return m.settle(gen, m.State().Fail(err.Error()))
	}
	return m.settle(gen, m.State().Succeed(p))
}

// Logout signs out of the authority from any state, then always returns to Idle.
// A sign out failure is logged, not surfaced.
func (m *Machine) Logout(ctx context.Context) State {
	cur := m.State()
	if err := m.auth.SignOut(ctx, cur.User); err != nil {
		m.logger.Warn("signing out", err, cur.User)
	}
	_, s := m.begin(m.State().SignedOut())
	return s
}

// ChangePassword changes the password of the signed in user.
func (m *Machine) ChangePassword(ctx context.Context, pc PasswordChange) error {
	cur := m.State()
	if !cur.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return ChangePassword(ctx, m.auth, cur.User, pc)
}

// /internal/voice/session.go
package voice

import "sync"

// State is the lifecycle position of a voice session.
type State int

const (
	StateConnecting State = iota
	StateReady
	StatePlaying
	StateIdle
	StateDisconnected
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "Connecting"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StateIdle:
		return "Idle"
	case StateDisconnected:
		return "Disconnected"
	case StateDestroyed:
		return "Destroyed"
	}
	return "Unknown"
}

// Conn abstracts the platform voice connection so the state machine can be
// exercised without a live gateway.
type Conn interface {
	Speaking(b bool) error
	OpusSend() chan<- []byte
	Dropped() bool // transport has lost readiness
	Resumed() bool // transport readiness is established
	Disconnect() error
}

// Dialer establishes voice connections. Join may block; the manager bounds
// the wait.
type Dialer interface {
	Join(guildID, channelID string) (Conn, error)
}

// Session is the live binding between the bot and one voice channel.
// At most one exists per guild; the manager owns it exclusively and
// releases the connection on every exit path.
type Session struct {
	GuildID   string
	ChannelID string

	mu    sync.Mutex
	state State
	prev  State // state held before an involuntary disconnect
	conn  Conn
}

func newSession(guildID, channelID string) *Session {
	return &Session{
		GuildID:   guildID,
		ChannelID: channelID,
		state:     StateConnecting,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Conn() Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) setConn(c Conn) {
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
}

// transition moves the session to the given state. Destroyed is terminal:
// once there, every transition is refused.
func (s *Session) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDestroyed {
		return false
	}
	s.state = to
	return true
}

// transitionFrom moves the session to the given state only if it currently
// holds from. The claim is atomic: of two flows racing for the same cycle,
// exactly one wins.
func (s *Session) transitionFrom(from, to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return false
	}
	s.state = to
	return true
}

// markDisconnected records an involuntary disconnect, remembering where the
// session was so a platform-side reconnection can put it back.
func (s *Session) markDisconnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateReady, StatePlaying, StateIdle:
		s.prev = s.state
		s.state = StateDisconnected
		return true
	}
	return false
}

// recover reattaches after a detected reconnection. No-op unless the
// session is still sitting in Disconnected.
func (s *Session) recover() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDisconnected {
		return false
	}
	s.state = s.prev
	return true
}

// destroy makes the session terminal and reports the state it left behind.
// A session destroyed while Disconnected reports the state it held before
// the drop, so an interrupted playback still stops the sink.
func (s *Session) destroy() (prior State, performed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDestroyed {
		return StateDestroyed, false
	}
	prior = s.state
	if prior == StateDisconnected {
		prior = s.prev
	}
	s.state = StateDestroyed
	return prior, true
}

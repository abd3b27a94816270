// /internal/voice/manager.go
package voice

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	ErrConnectTimeout  = errors.New("timed out waiting for the voice connection to become ready")
	ErrNoSounds        = errors.New("no sounds available")
	ErrAlreadyPlaying  = errors.New("a sound is already playing in this guild")
	ErrSessionReplaced = errors.New("session was torn down before it became ready")
)

// Picker selects a sound and maps it to an asset path.
type Picker interface {
	Resolve(userID, channelID string) (string, bool)
	Random() (string, bool)
	Path(name string) string
}

// Player is the shared output sink the manager hands connections to.
type Player interface {
	Play(vc Conn, path string) (<-chan struct{}, error)
	Stop()
}

// Options bound the suspension points of the session state machine.
type Options struct {
	ReadyTimeout     time.Duration // wait for voice readiness after join
	ReconnectTimeout time.Duration // each leg of the reconnect detection race
	SettleDelay      time.Duration // pause before attaching the sink
}

func (o *Options) fillDefaults() {
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = 5 * time.Second
	}
	if o.ReconnectTimeout <= 0 {
		o.ReconnectTimeout = 5 * time.Second
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
}

// Manager owns the guild → session registry and drives every session from
// creation to teardown. Each greet runs start-to-finish in the goroutine of
// the event that created the session; the registry mutex is the only shared
// entry point.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	dialer Dialer
	picker Picker
	player Player
	opts   Options
}

func NewManager(dialer Dialer, picker Picker, player Player, opts Options) *Manager {
	opts.fillDefaults()
	return &Manager{
		sessions: make(map[string]*Session),
		dialer:   dialer,
		picker:   picker,
		player:   player,
		opts:     opts,
	}
}

// Greet reacts to a member entering a voice channel: join, resolve, play
// once, leave. Returns nil when another session already owns the guild or
// when there is simply nothing to play.
func (m *Manager) Greet(guildID, channelID, userID string) error {
	sess, ok := m.claim(guildID, channelID)
	if !ok {
		return nil
	}

	if err := m.dial(sess); err != nil {
		m.destroy(sess)
		return err
	}

	name, found := m.picker.Resolve(userID, channelID)
	if !found {
		log.Printf("[Session] No sound resolvable for user %s in guild %s, leaving", userID, guildID)
		m.destroy(sess)
		return nil
	}

	if !sess.transitionFrom(StateReady, StatePlaying) {
		// Stopped, or a command claimed the cycle while we were resolving;
		// whoever owns it now also owns the teardown.
		return nil
	}
	return m.playAndPart(sess, name)
}

// PlayRandom serves the explicit command path: join (or reuse) a session in
// the invoker's channel and play a uniformly random sound, ignoring
// preference precedence.
func (m *Manager) PlayRandom(guildID, channelID string) error {
	name, found := m.picker.Random()
	if !found {
		return ErrNoSounds
	}

	m.mu.Lock()
	existing := m.sessions[guildID]
	m.mu.Unlock()

	if existing != nil {
		switch existing.State() {
		case StateConnecting, StatePlaying, StateDisconnected:
			return ErrAlreadyPlaying
		case StateReady, StateIdle:
			if existing.ChannelID == channelID {
				// Claim the cycle atomically; a Ready session may still be
				// owned by an in-flight greet, and losing the claim means it
				// is not ours to drive.
				if existing.transitionFrom(StateReady, StatePlaying) ||
					existing.transitionFrom(StateIdle, StatePlaying) {
					return m.playAndPart(existing, name)
				}
				return ErrAlreadyPlaying
			}
			m.destroy(existing)
		}
	}

	sess, ok := m.claim(guildID, channelID)
	if !ok {
		return ErrAlreadyPlaying
	}
	if err := m.dial(sess); err != nil {
		m.destroy(sess)
		return err
	}
	if !sess.transitionFrom(StateReady, StatePlaying) {
		return ErrSessionReplaced
	}
	return m.playAndPart(sess, name)
}

// Stop tears the guild session down unconditionally and reports whether one
// was active.
func (m *Manager) Stop(guildID string) bool {
	m.mu.Lock()
	sess := m.sessions[guildID]
	m.mu.Unlock()

	if sess == nil || sess.State() == StateDestroyed {
		return false
	}
	m.destroy(sess)
	return true
}

// ChannelEmptied tears the session down when its origin channel has no
// non-bot occupants left.
func (m *Manager) ChannelEmptied(guildID, channelID string) {
	m.mu.Lock()
	sess := m.sessions[guildID]
	m.mu.Unlock()

	if sess == nil || sess.ChannelID != channelID {
		return
	}
	log.Printf("[Session] Channel %s emptied, leaving guild %s", channelID, guildID)
	m.destroy(sess)
}

// ChannelChanged handles the bot being dragged to another channel by the
// platform. The session does not follow: it exists to greet its origin
// channel, so it is torn down instead of retargeted.
func (m *Manager) ChannelChanged(guildID, channelID string) {
	m.mu.Lock()
	sess := m.sessions[guildID]
	m.mu.Unlock()

	if sess == nil || sess.ChannelID == channelID {
		return
	}
	log.Printf("[Session] Moved out of channel %s in guild %s, leaving", sess.ChannelID, guildID)
	m.destroy(sess)
}

// HandleDisconnect reacts to an involuntary disconnect reported by the
// platform. Recovery means the transport actually dropped and then regained
// readiness, each leg within its own bounded wait: a disconnect signal whose
// transport never drops is the platform telling us we left, and a drop that
// never resumes is final. Either way the session is torn down; a completed
// recovery keeps the same session object attached.
func (m *Manager) HandleDisconnect(guildID string) {
	m.mu.Lock()
	sess := m.sessions[guildID]
	m.mu.Unlock()

	if sess == nil {
		log.Printf("[WARN] Disconnect signal for guild %s with no session, ignoring", guildID)
		return
	}
	if !sess.markDisconnected() {
		return
	}

	conn := sess.Conn()
	if waitUntil(conn.Dropped, m.opts.ReconnectTimeout) &&
		waitUntil(conn.Resumed, m.opts.ReconnectTimeout) {
		if sess.recover() {
			log.Printf("[Session] Guild %s voice reconnected, staying attached", guildID)
		}
		return
	}

	log.Printf("[Session] Guild %s voice did not recover in time, tearing down", guildID)
	m.destroy(sess)
}

// Active reports whether the guild currently owns a live session.
func (m *Manager) Active(guildID string) bool {
	m.mu.Lock()
	sess := m.sessions[guildID]
	m.mu.Unlock()
	return sess != nil && sess.State() != StateDestroyed
}

// Shutdown destroys every live session, used on process exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		live = append(live, sess)
	}
	m.mu.Unlock()

	for _, sess := range live {
		m.destroy(sess)
	}
}

// claim inserts a fresh Connecting session unless the guild already owns a
// live one.
func (m *Manager) claim(guildID, channelID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sessions[guildID]; ok && cur.State() != StateDestroyed {
		return nil, false
	}
	sess := newSession(guildID, channelID)
	m.sessions[guildID] = sess
	return sess, true
}

// dial joins the voice channel with a bounded wait for readiness. A timed
// out wait is definitive failure; there is no retry.
func (m *Manager) dial(sess *Session) error {
	type result struct {
		conn Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := m.dialer.Join(sess.GuildID, sess.ChannelID)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("voice join failed: %w", r.err)
		}
		sess.setConn(r.conn)
		if !sess.transition(StateReady) {
			// Torn down while we were connecting; release the handle.
			_ = r.conn.Disconnect()
			return ErrSessionReplaced
		}
		return nil
	case <-time.After(m.opts.ReadyTimeout):
		go func() {
			// Release a connection that arrives after we gave up.
			if r := <-ch; r.conn != nil {
				_ = r.conn.Disconnect()
			}
		}()
		return ErrConnectTimeout
	}
}

// playAndPart runs one play-to-idle cycle and tears the session down. The
// caller has already claimed Playing, so no other flow can drive this
// session concurrently. The settle delay absorbs platform adapter latency
// between readiness and attaching the sink.
func (m *Manager) playAndPart(sess *Session, name string) error {
	if m.opts.SettleDelay > 0 {
		time.Sleep(m.opts.SettleDelay)
	}

	conn := sess.Conn()
	path := m.picker.Path(name)
	done, err := m.player.Play(conn, path)
	if err != nil {
		m.destroy(sess)
		return fmt.Errorf("cannot play %q: %w", name, err)
	}

	if sess.State() == StateDestroyed {
		// Torn down while the sink was starting; cut the stream.
		m.player.Stop()
		<-done
		m.destroy(sess)
		return nil
	}

	<-done
	sess.transitionFrom(StatePlaying, StateIdle)
	m.destroy(sess)
	return nil
}

// destroy releases every resource the session holds and removes it from the
// registry. Idempotent.
func (m *Manager) destroy(sess *Session) {
	prior, performed := sess.destroy()
	if performed && prior == StatePlaying {
		m.player.Stop()
	}
	if conn := sess.Conn(); conn != nil {
		_ = conn.Disconnect()
	}

	m.mu.Lock()
	if cur, ok := m.sessions[sess.GuildID]; ok && cur == sess {
		delete(m.sessions, sess.GuildID)
	}
	m.mu.Unlock()
}

// waitUntil polls pred until it holds or the timeout passes.
func waitUntil(pred func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if pred() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		<-ticker.C
	}
}

package voice

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a controllable stand-in for a platform voice connection.
// Its readiness flag mirrors the real adapter: Dropped is !ready, Resumed
// is ready.
type fakeConn struct {
	mu           sync.Mutex
	ready        bool
	disconnected int
	opus         chan []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{ready: true, opus: make(chan []byte, 64)}
}

func (c *fakeConn) Speaking(bool) error     { return nil }
func (c *fakeConn) OpusSend() chan<- []byte { return c.opus }

func (c *fakeConn) Dropped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.ready
}

func (c *fakeConn) Resumed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

func (c *fakeConn) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected++
	return nil
}

func (c *fakeConn) setReady(v bool) {
	c.mu.Lock()
	c.ready = v
	c.mu.Unlock()
}

func (c *fakeConn) disconnects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// fakeDialer hands out one conn per Join, optionally after a delay.
type fakeDialer struct {
	mu    sync.Mutex
	delay time.Duration
	err   error
	conns []*fakeConn
}

func (d *fakeDialer) Join(guildID, channelID string) (Conn, error) {
	d.mu.Lock()
	delay, err := d.delay, d.err
	d.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// fakePicker returns a fixed sound, or none.
type fakePicker struct {
	name string
}

func (p *fakePicker) Resolve(userID, channelID string) (string, bool) {
	return p.name, p.name != ""
}
func (p *fakePicker) Random() (string, bool)  { return p.name, p.name != "" }
func (p *fakePicker) Path(name string) string { return "/sounds/" + name + ".mp3" }

// fakePlayer hands back done channels the test (or Stop) closes.
type playHandle struct {
	done chan struct{}
	once sync.Once
}

type fakePlayer struct {
	mu      sync.Mutex
	err     error
	handles []*playHandle
	started chan string
	stops   int
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{started: make(chan string, 8)}
}

func (p *fakePlayer) Play(vc Conn, path string) (<-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	h := &playHandle{done: make(chan struct{})}
	p.handles = append(p.handles, h)
	p.started <- path
	return h.done, nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.closeAll()
}

// finish simulates the clip reaching its natural end.
func (p *fakePlayer) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeAll()
}

func (p *fakePlayer) closeAll() {
	for _, h := range p.handles {
		h.once.Do(func() { close(h.done) })
	}
	p.handles = nil
}

func (p *fakePlayer) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stops
}

func testOptions() Options {
	return Options{
		ReadyTimeout:     200 * time.Millisecond,
		ReconnectTimeout: 300 * time.Millisecond,
		SettleDelay:      0,
	}
}

func newTestManager(dialer *fakeDialer, picker *fakePicker, player *fakePlayer) *Manager {
	return NewManager(dialer, picker, player, testOptions())
}

// waitPlaying blocks until the guild session reaches Playing.
func waitPlaying(t *testing.T, m *Manager, guildID string) {
	t.Helper()
	waitFor(t, func() bool {
		m.mu.Lock()
		sess := m.sessions[guildID]
		m.mu.Unlock()
		return sess != nil && sess.State() == StatePlaying
	}, "session playing")
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for: %s", msg)
}

func TestGreet_PlaysOnceAndLeaves(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()

	path := <-player.started
	assert.Equal(t, "/sounds/bell.mp3", path)
	assert.True(t, m.Active("g1"))

	player.finish()
	require.NoError(t, <-errCh)

	assert.False(t, m.Active("g1"))
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestGreet_NothingToPlayLeavesQuietly(t *testing.T) {
	dialer := &fakeDialer{}
	m := newTestManager(dialer, &fakePicker{name: ""}, newFakePlayer())

	require.NoError(t, m.Greet("g1", "c1", "u1"))

	assert.False(t, m.Active("g1"))
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestGreet_SecondJoinerIgnoredWhileSessionLive(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// Second member enters while we are busy; nothing new happens.
	require.NoError(t, m.Greet("g1", "c1", "u2"))
	dialer.mu.Lock()
	joins := len(dialer.conns)
	dialer.mu.Unlock()
	assert.Equal(t, 1, joins)

	player.finish()
	require.NoError(t, <-errCh)
}

func TestGreet_SeparateGuildsRunIndependently(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 2)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started
	assert.True(t, m.Active("g1"))

	go func() { errCh <- m.Greet("g2", "c9", "u2") }()
	<-player.started
	assert.True(t, m.Active("g2"))

	player.finish()
	require.NoError(t, <-errCh)
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
	assert.False(t, m.Active("g2"))
}

func TestGreet_ConnectTimeout(t *testing.T) {
	dialer := &fakeDialer{delay: time.Second}
	m := newTestManager(dialer, &fakePicker{name: "bell"}, newFakePlayer())

	err := m.Greet("g1", "c1", "u1")
	assert.ErrorIs(t, err, ErrConnectTimeout)
	assert.False(t, m.Active("g1"))

	// The connection that eventually arrives must be released.
	waitFor(t, func() bool {
		c := dialer.lastConn()
		return c != nil && c.disconnects() == 1
	}, "late connection released")
}

func TestGreet_JoinError(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("gateway said no")}
	m := newTestManager(dialer, &fakePicker{name: "bell"}, newFakePlayer())

	err := m.Greet("g1", "c1", "u1")
	require.Error(t, err)
	assert.False(t, m.Active("g1"))
}

func TestGreet_PlayerErrorTearsDown(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	player.err = errors.New("asset gone")
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	err := m.Greet("g1", "c1", "u1")
	require.Error(t, err)
	assert.False(t, m.Active("g1"))
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestStop_CutsPlaybackAndReports(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	assert.True(t, m.Stop("g1"))
	require.NoError(t, <-errCh)

	assert.False(t, m.Active("g1"))
	assert.GreaterOrEqual(t, player.stopCount(), 1)
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestStop_NothingActive(t *testing.T) {
	m := newTestManager(&fakeDialer{}, &fakePicker{name: "bell"}, newFakePlayer())
	assert.False(t, m.Stop("g1"))
}

func TestChannelEmptied_TearsDownMatchingChannel(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// Some other channel emptying is not our business.
	m.ChannelEmptied("g1", "c2")
	assert.True(t, m.Active("g1"))

	m.ChannelEmptied("g1", "c1")
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
}

func TestChannelChanged_TearsDownWhenMoved(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// Landing in the session's own channel is the join echo, not a move.
	m.ChannelChanged("g1", "c1")
	assert.True(t, m.Active("g1"))

	// Dragged elsewhere: the session leaves rather than follows.
	m.ChannelChanged("g1", "c2")
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestHandleDisconnect_RecoversWhenTransportResumes(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// The transport drops and comes back while we wait.
	conn := dialer.lastConn()
	conn.setReady(false)
	go func() {
		time.Sleep(50 * time.Millisecond)
		conn.setReady(true)
	}()
	m.HandleDisconnect("g1")

	// Recovery spotted; the session survives and keeps playing.
	assert.True(t, m.Active("g1"))
	assert.Equal(t, 0, conn.disconnects())

	player.finish()
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
}

func TestHandleDisconnect_NeverResumesTearsDown(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// Kicked: readiness drops and never comes back.
	dialer.lastConn().setReady(false)
	m.HandleDisconnect("g1")

	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
	assert.GreaterOrEqual(t, player.stopCount(), 1)
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestHandleDisconnect_PhantomDropTearsDown(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	// The platform says we left but the transport never loses readiness;
	// trust the platform and leave rather than linger forever.
	m.HandleDisconnect("g1")

	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
	assert.Equal(t, 1, dialer.lastConn().disconnects())
}

func TestHandleDisconnect_UnknownGuildIgnored(t *testing.T) {
	m := newTestManager(&fakeDialer{}, &fakePicker{name: "bell"}, newFakePlayer())
	m.HandleDisconnect("g1") // must not panic or block
}

func TestPlayRandom_NoSounds(t *testing.T) {
	m := newTestManager(&fakeDialer{}, &fakePicker{name: ""}, newFakePlayer())
	assert.ErrorIs(t, m.PlayRandom("g1", "c1"), ErrNoSounds)
}

func TestPlayRandom_JoinsAndPlays(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.PlayRandom("g1", "c1") }()

	<-player.started
	player.finish()
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
}

func TestPlayRandom_RefusedWhilePlaying(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started
	waitPlaying(t, m, "g1")

	assert.ErrorIs(t, m.PlayRandom("g1", "c1"), ErrAlreadyPlaying)

	player.finish()
	require.NoError(t, <-errCh)
}

// A greet owns its cycle from the moment it leaves Ready, settle delay
// included; a command arriving in that window is refused instead of racing
// the sink and tearing down the shared session.
func TestPlayRandom_RefusedDuringGreetSettle(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	opts := testOptions()
	opts.SettleDelay = 150 * time.Millisecond
	m := NewManager(dialer, &fakePicker{name: "bell"}, player, opts)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	waitPlaying(t, m, "g1")

	assert.ErrorIs(t, m.PlayRandom("g1", "c1"), ErrAlreadyPlaying)
	assert.True(t, m.Active("g1"))
	assert.Equal(t, 0, player.stopCount())

	<-player.started
	player.finish()
	require.NoError(t, <-errCh)

	dialer.mu.Lock()
	joins := len(dialer.conns)
	dialer.mu.Unlock()
	assert.Equal(t, 1, joins)
}

func TestShutdown_DestroysEverything(t *testing.T) {
	dialer := &fakeDialer{}
	player := newFakePlayer()
	m := newTestManager(dialer, &fakePicker{name: "bell"}, player)

	errCh := make(chan error, 1)
	go func() { errCh <- m.Greet("g1", "c1", "u1") }()
	<-player.started

	m.Shutdown()
	require.NoError(t, <-errCh)
	assert.False(t, m.Active("g1"))
}

func TestSession_DestroyIsTerminal(t *testing.T) {
	sess := newSession("g1", "c1")
	require.True(t, sess.transition(StateReady))

	prior, performed := sess.destroy()
	assert.True(t, performed)
	assert.Equal(t, StateReady, prior)

	// Everything after destruction is refused.
	assert.False(t, sess.transition(StateIdle))
	assert.False(t, sess.markDisconnected())
	assert.False(t, sess.recover())

	_, performed = sess.destroy()
	assert.False(t, performed)
}

func TestSession_DisconnectRecoverRestoresState(t *testing.T) {
	sess := newSession("g1", "c1")
	require.True(t, sess.transition(StatePlaying))

	require.True(t, sess.markDisconnected())
	assert.Equal(t, StateDisconnected, sess.State())

	require.True(t, sess.recover())
	assert.Equal(t, StatePlaying, sess.State())

	// recover is a no-op when not disconnected.
	assert.False(t, sess.recover())
}

func TestSession_MarkDisconnectedOnlyWhenLive(t *testing.T) {
	sess := newSession("g1", "c1")
	// Still connecting; a disconnect signal means nothing yet.
	assert.False(t, sess.markDisconnected())
}

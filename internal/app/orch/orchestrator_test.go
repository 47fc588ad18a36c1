package orch_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/groupcall/internal/app"
	"github.com/dkeye/groupcall/internal/app/orch"
	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/core/mediatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	engine *mediatest.Engine
	orch   *orch.Orchestrator
	conns  map[core.SessionID]*mediatest.Conn
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	engine := mediatest.NewEngine()
	return &harness{
		engine: engine,
		orch: &orch.Orchestrator{
			Registry:           app.NewRegistry(),
			Rooms:              core.NewRoomManager(engine),
			Policy:             app.SimplePolicy{},
			NegotiationTimeout: time.Second,
		},
		conns: make(map[core.SessionID]*mediatest.Conn),
	}
}

func (h *harness) connect(sid core.SessionID) *mediatest.Conn {
	conn := mediatest.NewConn()
	h.conns[sid] = conn
	h.orch.Registry.BindSignal(sid, conn, nil)
	return conn
}

func (h *harness) send(t *testing.T, sid core.SessionID, raw string) error {
	t.Helper()
	env, err := core.DecodeEnvelope([]byte(raw))
	require.NoError(t, err)
	return h.orch.Dispatch(context.Background(), sid, env)
}

func (h *harness) participant(t *testing.T, room, name string) *core.Participant {
	t.Helper()
	r, err := h.orch.Rooms.Get(domainRoom(room))
	require.NoError(t, err)
	p, err := r.Participant(domainName(name))
	require.NoError(t, err)
	return p
}

func TestDemoScenario(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	bobConn := h.connect("bob")

	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.Len(t, h.engine.Pipelines(), 1)
	alice := h.participant(t, "demo", "Alice")
	assert.Zero(t, alice.IncomingCount())

	require.NoError(t, h.send(t, "bob", `{"id":"joinRoom","room":"demo","name":"Bob"}`))
	require.Len(t, h.engine.Pipelines(), 1)
	bob := h.participant(t, "demo", "Bob")

	require.NoError(t, h.send(t, "bob", `{"id":"receiveVideoFrom","sender":"Alice","sdpOffer":"O1"}`))
	in, ok := bob.Incoming("Alice")
	require.True(t, ok)
	assert.Equal(t, []string{alice.Outgoing().ID()}, in.(*mediatest.Endpoint).Sources())
	answers := bobConn.ByID(core.IDReceiveVideoAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, "Alice", answers[0]["name"])
	assert.Equal(t, mediatest.Answer("O1"), answers[0]["sdpAnswer"])

	require.NoError(t, h.send(t, "alice", `{"id":"leaveRoom"}`))
	_, ok = bob.Incoming("Alice")
	assert.False(t, ok)
	_, err := h.orch.Rooms.Get("demo")
	require.NoError(t, err, "room survives while Bob remains")

	require.NoError(t, h.send(t, "bob", `{"id":"leaveRoom"}`))
	_, err = h.orch.Rooms.Get("demo")
	require.ErrorIs(t, err, core.ErrUnknownRoom)
	assert.Empty(t, h.engine.Live())
	assert.Equal(t, 1, h.engine.Pipelines()[0].Releases())
}

func TestLoopbackThroughRouter(t *testing.T) {
	h := newHarness(t)
	conn := h.connect("alice")
	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.NoError(t, h.send(t, "alice", `{"id":"receiveVideoFrom","sender":"Alice","sdpOffer":"mine"}`))

	alice := h.participant(t, "demo", "Alice")
	assert.Zero(t, alice.IncomingCount())
	assert.Equal(t, []string{"mine"}, alice.Outgoing().(*mediatest.Endpoint).Offers())
	assert.Len(t, conn.ByID(core.IDReceiveVideoAnswer), 1)
}

func TestCommandsRequireJoin(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")

	err := h.send(t, "alice", `{"id":"receiveVideoFrom","sender":"Bob","sdpOffer":"o"}`)
	require.ErrorIs(t, err, app.ErrNotJoined)
	assert.Equal(t, "not_joined", orch.ErrorCode(err))

	err = h.send(t, "alice", `{"id":"onIceCandidate","name":"Bob","candidate":{"candidate":"c"}}`)
	require.ErrorIs(t, err, app.ErrNotJoined)

	require.NoError(t, h.send(t, "alice", `{"id":"leaveRoom"}`), "leave while unbound is a no-op")
}

func TestJoinTwiceIsRejected(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	err := h.send(t, "alice", `{"id":"joinRoom","room":"other","name":"Alice2"}`)
	require.ErrorIs(t, err, app.ErrAlreadyJoined)
	_, err = h.orch.Rooms.Get("other")
	require.ErrorIs(t, err, core.ErrUnknownRoom)
}

func TestDuplicateNameIsRejected(t *testing.T) {
	h := newHarness(t)
	h.connect("a1")
	h.connect("a2")
	require.NoError(t, h.send(t, "a1", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	err := h.send(t, "a2", `{"id":"joinRoom","room":"demo","name":"Alice"}`)
	require.ErrorIs(t, err, core.ErrDuplicateParticipant)
	assert.Equal(t, "duplicate_participant", orch.ErrorCode(err))

	r, err := h.orch.Rooms.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestInvalidNames(t *testing.T) {
	h := newHarness(t)
	h.connect("a")
	err := h.send(t, "a", `{"id":"joinRoom","room":"","name":"Alice"}`)
	require.Error(t, err)
	assert.Equal(t, "invalid_name", orch.ErrorCode(err))
}

func TestUnknownSender(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	h.connect("zed")
	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.NoError(t, h.send(t, "zed", `{"id":"joinRoom","room":"elsewhere","name":"Zed"}`))

	err := h.send(t, "alice", `{"id":"receiveVideoFrom","sender":"Ghost","sdpOffer":"o"}`)
	require.ErrorIs(t, err, core.ErrUnknownParticipant)

	err = h.send(t, "alice", `{"id":"receiveVideoFrom","sender":"Zed","sdpOffer":"o"}`)
	require.ErrorIs(t, err, core.ErrUnknownParticipant, "senders from other rooms are not visible")
}

func TestNegotiationTimeoutKeepsRoom(t *testing.T) {
	h := newHarness(t)
	h.orch.NegotiationTimeout = 20 * time.Millisecond
	h.connect("alice")
	h.connect("bob")
	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.NoError(t, h.send(t, "bob", `{"id":"joinRoom","room":"demo","name":"Bob"}`))

	h.engine.BlockNegotiate = true
	err := h.send(t, "bob", `{"id":"receiveVideoFrom","sender":"Alice","sdpOffer":"o"}`)
	require.ErrorIs(t, err, core.ErrNegotiationTimeout)
	assert.Equal(t, "negotiation_timeout", orch.ErrorCode(err))

	r, err := h.orch.Rooms.Get("demo")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
}

func TestIceCandidateRouting(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	h.connect("bob")
	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.NoError(t, h.send(t, "bob", `{"id":"joinRoom","room":"demo","name":"Bob"}`))
	require.NoError(t, h.send(t, "bob", `{"id":"receiveVideoFrom","sender":"Alice","sdpOffer":"o"}`))

	require.NoError(t, h.send(t, "bob", `{"id":"onIceCandidate","name":"Alice","candidate":{"candidate":"c1","sdpMid":"0","sdpMLineIndex":0}}`))
	require.NoError(t, h.send(t, "bob", `{"id":"onIceCandidate","name":"Bob","candidate":{"candidate":"c2","sdpMid":"0","sdpMLineIndex":0}}`))
	require.NoError(t, h.send(t, "bob", `{"id":"onIceCandidate","name":"Nobody","candidate":{"candidate":"c3"}}`))

	bob := h.participant(t, "demo", "Bob")
	in, _ := bob.Incoming("Alice")
	assert.Equal(t, "c1", in.(*mediatest.Endpoint).Candidates()[0].Candidate)
	assert.Equal(t, "c2", bob.Outgoing().(*mediatest.Endpoint).Candidates()[0].Candidate)
}

func TestUnknownEnvelopeIgnored(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	require.NoError(t, h.send(t, "alice", `{"id":"somethingNew","x":1}`))
}

func TestDisconnectBeforeJoinIsNoop(t *testing.T) {
	h := newHarness(t)
	h.connect("alice")
	assert.NotPanics(t, func() { h.orch.OnDisconnect(context.Background(), "alice") })
	assert.NotPanics(t, func() { h.orch.OnDisconnect(context.Background(), "never-connected") })
	assert.Zero(t, h.orch.Registry.Len())
}

func TestLeaveRacingDisconnectReleasesOnce(t *testing.T) {
	for range 20 {
		h := newHarness(t)
		h.connect("alice")
		h.connect("bob")
		require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
		require.NoError(t, h.send(t, "bob", `{"id":"joinRoom","room":"demo","name":"Bob"}`))
		require.NoError(t, h.send(t, "bob", `{"id":"receiveVideoFrom","sender":"Alice","sdpOffer":"o"}`))
		require.NoError(t, h.send(t, "alice", `{"id":"receiveVideoFrom","sender":"Bob","sdpOffer":"o"}`))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, h.orch.Leave(context.Background(), "alice"))
		}()
		go func() {
			defer wg.Done()
			h.orch.OnDisconnect(context.Background(), "alice")
		}()
		wg.Wait()

		for _, ep := range h.engine.Endpoints() {
			assert.LessOrEqual(t, ep.Releases(), 1)
		}
		bob := h.participant(t, "demo", "Bob")
		assert.Zero(t, bob.IncomingCount())
	}
}

func TestRejoinAfterRoomTeardown(t *testing.T) {
	h := newHarness(t)
	h.connect("a1")
	h.connect("a2")
	require.NoError(t, h.send(t, "a1", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	h.orch.OnDisconnect(context.Background(), "a1")
	_, err := h.orch.Rooms.Get("demo")
	require.ErrorIs(t, err, core.ErrUnknownRoom)

	require.NoError(t, h.send(t, "a2", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	assert.Len(t, h.engine.Pipelines(), 2)
}

func TestConcurrentJoinLeaveAcrossRooms(t *testing.T) {
	h := newHarness(t)
	rooms := []string{"r1", "r2", "r3"}
	var sids []core.SessionID
	for _, r := range rooms {
		for _, n := range []string{"a", "b", "c", "d"} {
			sid := core.SessionID(r + "-" + n)
			h.connect(sid)
			sids = append(sids, sid)
		}
	}

	var wg sync.WaitGroup
	for _, sid := range sids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, name := string(sid[:2]), string(sid)
			assert.NoError(t, h.orch.Join(context.Background(), sid, room, name))
			h.orch.OnDisconnect(context.Background(), sid)
		}()
	}
	wg.Wait()

	assert.Empty(t, h.orch.Rooms.List())
	assert.Empty(t, h.engine.Live())
	for _, pl := range h.engine.Pipelines() {
		assert.Equal(t, 1, pl.Releases())
	}
}

func TestOnBackPressureKicks(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.orch.Registry.BindSignal("alice", mediatest.NewConn(), cancel)

	assert.Equal(t, app.KickMember, h.orch.OnBackPressure("alice"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	h.orch.Policy = app.DropPolicy{}
	assert.Equal(t, app.DropFrame, h.orch.OnBackPressure("alice"))
}

// reactingConn answers every newParticipantArrived with an immediate
// receiveVideoFrom, the way a browser does.
type reactingConn struct {
	*mediatest.Conn
	h   *harness
	sid core.SessionID

	mu   sync.Mutex
	errs []error
}

func (c *reactingConn) TrySend(f core.Frame) error {
	if err := c.Conn.TrySend(f); err != nil {
		return err
	}
	var m struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if json.Unmarshal(f, &m) != nil || m.ID != core.IDNewParticipantArrived {
		return nil
	}
	err := c.h.orch.ReceiveVideoFrom(context.Background(), c.sid, m.Name, "O-"+m.Name)
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
	return nil
}

func TestArrivedParticipantIsImmediatelyReachable(t *testing.T) {
	h := newHarness(t)
	alice := &reactingConn{Conn: mediatest.NewConn(), h: h, sid: "alice"}
	h.orch.Registry.BindSignal("alice", alice, nil)
	h.connect("bob")

	require.NoError(t, h.send(t, "alice", `{"id":"joinRoom","room":"demo","name":"Alice"}`))
	require.NoError(t, h.send(t, "bob", `{"id":"joinRoom","room":"demo","name":"Bob"}`))

	alice.mu.Lock()
	errs := append([]error(nil), alice.errs...)
	alice.mu.Unlock()
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])

	_, ok := h.participant(t, "demo", "Alice").Incoming("Bob")
	assert.True(t, ok)
	answers := alice.ByID(core.IDReceiveVideoAnswer)
	require.Len(t, answers, 1)
	assert.Equal(t, "Bob", answers[0]["name"])
}

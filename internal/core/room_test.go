package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dkeye/groupcall/internal/core"
	"github.com/dkeye/groupcall/internal/core/mediatest"
	"github.com/dkeye/groupcall/internal/core/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRoomJoinCreatesPipelineOnce(t *testing.T) {
	engine := mediatest.NewEngine()
	room := core.NewRoom("demo", engine)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := room.Join(ctx, domainName(name), mediatest.NewConn())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, engine.Pipelines(), 1)
	assert.Equal(t, 8, room.Len())
}

func TestRoomJoinRejectsDuplicateName(t *testing.T) {
	room := core.NewRoom("demo", mediatest.NewEngine())
	ctx := context.Background()

	_, err := room.Join(ctx, "Alice", mediatest.NewConn())
	require.NoError(t, err)
	_, err = room.Join(ctx, "Alice", mediatest.NewConn())
	require.ErrorIs(t, err, core.ErrDuplicateParticipant)
	assert.Equal(t, 1, room.Len())
}

func TestRoomJoinAnnouncesParticipants(t *testing.T) {
	room := core.NewRoom("demo", mediatest.NewEngine())
	ctx := context.Background()
	aliceConn, bobConn := mediatest.NewConn(), mediatest.NewConn()

	_, err := room.Join(ctx, "Alice", aliceConn)
	require.NoError(t, err)
	_, err = room.Join(ctx, "Bob", bobConn)
	require.NoError(t, err)

	existing := bobConn.ByID(core.IDExistingParticipants)
	require.Len(t, existing, 1)
	assert.Equal(t, []any{"Alice"}, existing[0]["data"])

	first := aliceConn.ByID(core.IDExistingParticipants)
	require.Len(t, first, 1)
	assert.Empty(t, first[0]["data"])

	arrived := aliceConn.ByID(core.IDNewParticipantArrived)
	require.Len(t, arrived, 1)
	assert.Equal(t, "Bob", arrived[0]["name"])
}

func TestRoomLeaveCancelsStreamsFromLeaver(t *testing.T) {
	engine := mediatest.NewEngine()
	room := core.NewRoom("demo", engine)
	ctx := context.Background()
	bobConn := mediatest.NewConn()

	alice, err := room.Join(ctx, "Alice", mediatest.NewConn())
	require.NoError(t, err)
	bob, err := room.Join(ctx, "Bob", bobConn)
	require.NoError(t, err)
	carol, err := room.Join(ctx, "Carol", mediatest.NewConn())
	require.NoError(t, err)

	_, err = bob.ReceiveVideoFrom(ctx, alice, "o")
	require.NoError(t, err)
	_, err = carol.ReceiveVideoFrom(ctx, alice, "o")
	require.NoError(t, err)
	_, err = alice.ReceiveVideoFrom(ctx, bob, "o")
	require.NoError(t, err)
	_, err = carol.ReceiveVideoFrom(ctx, bob, "o")
	require.NoError(t, err)

	empty := room.Leave(ctx, alice)
	assert.False(t, empty)

	_, ok := bob.Incoming("Alice")
	assert.False(t, ok)
	_, ok = carol.Incoming("Alice")
	assert.False(t, ok)
	_, ok = carol.Incoming("Bob")
	assert.True(t, ok, "unrelated streams survive")

	assert.True(t, alice.Closed())
	assert.Zero(t, alice.IncomingCount())
	assert.Equal(t, 1, alice.Outgoing().(*mediatest.Endpoint).Releases())

	left := bobConn.ByID(core.IDParticipantLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "Alice", left[0]["name"])

	// Everything still live belongs to Bob or Carol.
	for _, ep := range engine.Live() {
		assert.NotEqual(t, alice.Outgoing().ID(), ep.ID())
	}
	assert.Len(t, engine.Live(), 3)
}

func TestRoomLeaveIsIdempotent(t *testing.T) {
	engine := mediatest.NewEngine()
	room := core.NewRoom("demo", engine)
	ctx := context.Background()

	alice, err := room.Join(ctx, "Alice", mediatest.NewConn())
	require.NoError(t, err)
	_, err = room.Join(ctx, "Bob", mediatest.NewConn())
	require.NoError(t, err)

	assert.False(t, room.Leave(ctx, alice))
	assert.False(t, room.Leave(ctx, alice))
	assert.Equal(t, 1, alice.Outgoing().(*mediatest.Endpoint).Releases())
	assert.Equal(t, 1, room.Len())
}

func TestRoomLastLeaveClosesRoomAndReleasesPipeline(t *testing.T) {
	engine := mediatest.NewEngine()
	room := core.NewRoom("demo", engine)
	ctx := context.Background()

	alice, err := room.Join(ctx, "Alice", mediatest.NewConn())
	require.NoError(t, err)

	assert.True(t, room.Leave(ctx, alice))
	assert.True(t, room.Closed())
	require.Len(t, engine.Pipelines(), 1)
	assert.Equal(t, 1, engine.Pipelines()[0].Releases())

	_, err = room.Join(ctx, "Bob", mediatest.NewConn())
	require.ErrorIs(t, err, core.ErrRoomClosed)
}

func TestRoomJoinPipelineFailureClosesEmptyRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockMediaEngine(ctrl)
	engine.EXPECT().CreatePipeline(gomock.Any()).Return(nil, errors.New("media server down"))

	room := core.NewRoom("demo", engine)
	_, err := room.Join(context.Background(), "Alice", mediatest.NewConn())
	require.Error(t, err)
	assert.True(t, room.Closed())
	assert.Zero(t, room.Len())
}

func TestRoomJoinEndpointFailureReleasesPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockMediaEngine(ctrl)
	pipeline := mocks.NewMockPipeline(ctrl)
	engine.EXPECT().CreatePipeline(gomock.Any()).Return(pipeline, nil)
	pipeline.EXPECT().ID().Return("p1").AnyTimes()
	pipeline.EXPECT().CreateTransmitEndpoint(gomock.Any()).Return(nil, errors.New("no capacity"))
	pipeline.EXPECT().Release(gomock.Any()).Return(nil)

	room := core.NewRoom("demo", engine)
	_, err := room.Join(context.Background(), "Alice", mediatest.NewConn())
	require.Error(t, err)
	assert.True(t, room.Closed())
}

func TestRoomCloseEvictsEveryone(t *testing.T) {
	engine := mediatest.NewEngine()
	room := core.NewRoom("demo", engine)
	ctx := context.Background()

	alice, err := room.Join(ctx, "Alice", mediatest.NewConn())
	require.NoError(t, err)
	bob, err := room.Join(ctx, "Bob", mediatest.NewConn())
	require.NoError(t, err)
	_, err = bob.ReceiveVideoFrom(ctx, alice, "o")
	require.NoError(t, err)

	room.Close(ctx)
	assert.Empty(t, engine.Live())
	assert.Zero(t, room.Len())
	assert.Equal(t, 1, engine.Pipelines()[0].Releases())
}

func TestRoomInfoIsSorted(t *testing.T) {
	room := core.NewRoom("demo", mediatest.NewEngine())
	ctx := context.Background()
	for _, n := range []string{"Carol", "Alice", "Bob"} {
		_, err := room.Join(ctx, domainName(n), mediatest.NewConn())
		require.NoError(t, err)
	}
	info := room.Info()
	assert.Equal(t, "demo", string(info.Name))
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, namesOf(info.Participants))
}

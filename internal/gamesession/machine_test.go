package gamesession_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"impostor-service/domain"
	"impostor-service/infra/memory"
	"impostor-service/internal/gamesession"
	"impostor-service/internal/impostor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 5 * time.Millisecond
)

type harness struct {
	t     *testing.T
	store *memory.Store
	bus   *memory.Bus
	svc   *impostor.Service
	code  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	subjects := make([]domain.Subject, 6)
	for i := range subjects {
		subjects[i] = domain.Subject{ID: int64(i + 1), Name: fmt.Sprintf("subject-%d", i+1)}
	}
	store := memory.NewStore(subjects...)
	bus := memory.NewBus()
	t.Cleanup(func() {
		bus.Close()
		store.Close()
	})

	svc := impostor.NewService(store, impostor.WithRand(rand.New(rand.NewSource(3))))
	room, err := svc.CreateRoom(context.Background(), 6, 1, "host")
	require.NoError(t, err)

	return &harness{t: t, store: store, bus: bus, svc: svc, code: room.Code}
}

// start runs a machine until the test ends. realtime=false leaves polling as
// the only way to observe other clients.
func (h *harness) start(userID string, realtime bool, poll time.Duration) *gamesession.Machine {
	h.t.Helper()
	var (
		changes gamesession.ChangeFeed
		bus     gamesession.Broadcaster
	)
	if realtime {
		changes = h.store
		bus = h.bus
	}
	m := gamesession.New(h.svc, changes, bus, h.code, userID, "name-"+userID,
		gamesession.Config{PollInterval: poll, RequestTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()
	h.t.Cleanup(func() {
		cancel()
		<-errCh
	})

	require.Eventually(h.t, func() bool { return m.View().State != "" }, waitFor, tick)
	return m
}

func waitState(t *testing.T, m *gamesession.Machine, want gamesession.State) gamesession.View {
	t.Helper()
	require.Eventually(t, func() bool { return m.View().State == want }, waitFor, tick,
		"state stayed %s, want %s", m.View().State, want)
	return m.View()
}

func TestFullRoundFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host := h.start("host", true, time.Hour)
	assert.True(t, host.View().IsHost)
	assert.Equal(t, 1, host.View().PlayerNumber)

	players := []*gamesession.Machine{
		h.start("u2", true, time.Hour),
		h.start("u3", true, time.Hour),
		h.start("u4", true, time.Hour),
	}
	for i, p := range players {
		v := waitState(t, p, gamesession.StateWaiting)
		assert.Equal(t, i+2, v.PlayerNumber)
		assert.False(t, v.IsHost)
	}

	assert.ErrorIs(t, players[0].StartRound(ctx), domain.ErrForbidden)
	assert.ErrorIs(t, players[0].Reveal(ctx), gamesession.ErrInvalidAction)

	require.NoError(t, host.StartRound(ctx))
	assert.Equal(t, gamesession.StateRoleHidden, host.View().State)
	for _, p := range players {
		waitState(t, p, gamesession.StateRoleHidden)
	}

	require.NoError(t, players[0].Reveal(ctx))
	v := players[0].View()
	assert.Equal(t, gamesession.StateRoleRevealed, v.State)
	require.NotNil(t, v.Role)
	assert.Equal(t, 2, v.Role.PlayerNumber)
	if v.Role.IsImpostor {
		assert.Nil(t, v.Subject)
	} else {
		require.NotNil(t, v.Subject)
		assert.Equal(t, v.Role.SubjectID, v.Subject.ID)
	}
	role := v.Role

	require.NoError(t, players[0].Hide(ctx))
	assert.Equal(t, gamesession.StateRoleHidden, players[0].View().State)
	assert.Nil(t, players[0].View().Subject)
	require.NoError(t, players[0].Reveal(ctx))
	assert.Same(t, role, players[0].View().Role)

	assert.ErrorIs(t, players[1].ShowResults(ctx), domain.ErrForbidden)
	require.NoError(t, host.ShowResults(ctx))
	hostResults := host.View().Results
	require.NotNil(t, hostResults)
	assert.Len(t, hostResults.Impostors, 1)
	for _, p := range players {
		v := waitState(t, p, gamesession.StateResultsShown)
		require.NotNil(t, v.Results)
		assert.Equal(t, *hostResults, *v.Results)
	}

	require.NoError(t, host.NewRound(ctx))
	for _, p := range players {
		v := waitState(t, p, gamesession.StateRoleHidden)
		assert.Nil(t, v.Role)
		assert.Nil(t, v.Results)
		assert.Equal(t, 2, v.Room.RoundNumber)
	}

	require.NoError(t, host.End(ctx))
	assert.Equal(t, gamesession.StateClosed, host.View().State)
	for _, p := range players {
		v := waitState(t, p, gamesession.StateClosed)
		assert.NotEmpty(t, v.CloseReason)
	}
	assert.ErrorIs(t, host.Reveal(ctx), gamesession.ErrClosed)

	room, err := h.svc.GetRoom(ctx, h.code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, room.Status)
}

func TestClosesOnHostRosterDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Join(ctx, h.code, "host", "Host")
	require.NoError(t, err)

	player := h.start("u2", true, time.Hour)
	waitState(t, player, gamesession.StateWaiting)

	// Host vanishes without closing the room.
	require.NoError(t, h.svc.Leave(ctx, h.code, "host"))

	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonHostLeft, v.CloseReason)

	room, err := h.svc.GetRoom(ctx, h.code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, room.Status)
}

func TestPollingDetectsFinishedRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	player := h.start("u2", false, 20*time.Millisecond)
	waitState(t, player, gamesession.StateWaiting)

	require.NoError(t, h.svc.CloseRoom(ctx, h.code))

	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonFinished, v.CloseReason)
}

func TestPollingDetectsHostDeparture(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Join(ctx, h.code, "host", "Host")
	require.NoError(t, err)

	player := h.start("u2", false, 20*time.Millisecond)
	waitState(t, player, gamesession.StateWaiting)
	time.Sleep(60 * time.Millisecond)

	require.NoError(t, h.svc.Leave(ctx, h.code, "host"))

	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonHostLeft, v.CloseReason)
}

func TestPollingNotFoundCloses(t *testing.T) {
	h := newHarness(t)

	player := h.start("u2", false, 20*time.Millisecond)
	waitState(t, player, gamesession.StateWaiting)

	h.store.FailNext("GetRoom", fmt.Errorf("%w: room vanished", domain.ErrNotFound))

	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonNotFound, v.CloseReason)
}

func TestJoiningFinishedRoomClosesImmediately(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.svc.CloseRoom(context.Background(), h.code))

	player := h.start("u2", true, time.Hour)
	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonFinished, v.CloseReason)
}

func TestPollingPicksUpNewRound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, u := range []string{"host", "u3", "u4"} {
		_, err := h.svc.Join(ctx, h.code, u, u)
		require.NoError(t, err)
	}

	player := h.start("u2", false, 20*time.Millisecond)
	waitState(t, player, gamesession.StateWaiting)

	_, err := h.svc.StartRound(ctx, h.code, 4, 1)
	require.NoError(t, err)
	waitState(t, player, gamesession.StateRoleHidden)

	require.NoError(t, player.Reveal(ctx))
	require.NotNil(t, player.View().Role)

	// Same slot count and a fresh subject; only the round number tells
	// the client a new round began.
	_, err = h.svc.StartRound(ctx, h.code, 4, 1)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		v := player.View()
		return v.State == gamesession.StateRoleHidden && v.Role == nil && v.Room.RoundNumber == 2
	}, waitFor, tick)
}

func TestRevealSurfacesRetryableError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, u := range []string{"host", "u3", "u4"} {
		_, err := h.svc.Join(ctx, h.code, u, u)
		require.NoError(t, err)
	}

	player := h.start("u2", true, time.Hour)
	_, err := h.svc.StartRound(ctx, h.code, 4, 1)
	require.NoError(t, err)
	waitState(t, player, gamesession.StateRoleHidden)

	h.store.FailNext("LatestSession", fmt.Errorf("%w: timeout", domain.ErrBackend))
	err = player.Reveal(ctx)
	assert.ErrorIs(t, err, domain.ErrBackend)
	v := player.View()
	assert.Equal(t, gamesession.StateRoleHidden, v.State)
	assert.NotEmpty(t, v.Error)

	require.NoError(t, player.Reveal(ctx))
	v = player.View()
	assert.Equal(t, gamesession.StateRoleRevealed, v.State)
	assert.Empty(t, v.Error)
}

func TestStartRoundTooFewPlayersIsRetryable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host := h.start("host", true, time.Hour)
	err := host.StartRound(ctx)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	v := host.View()
	assert.Equal(t, gamesession.StateWaiting, v.State)
	assert.NotEmpty(t, v.Error)
}

func TestNonHostLeave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	player := h.start("u2", true, time.Hour)
	require.NoError(t, player.Leave(ctx))

	v := waitState(t, player, gamesession.StateClosed)
	assert.Equal(t, gamesession.ReasonLeft, v.CloseReason)

	players, err := h.svc.ListPlayers(ctx, h.code)
	require.NoError(t, err)
	assert.Empty(t, players)

	room, err := h.svc.GetRoom(ctx, h.code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, room.Status)
}

func TestStartRoundAfterLeaveSkipsEmptySeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	host := h.start("host", true, time.Hour)
	var players []*gamesession.Machine
	for _, u := range []string{"u2", "u3", "u4", "u5"} {
		p := h.start(u, true, time.Hour)
		waitState(t, p, gamesession.StateWaiting)
		players = append(players, p)
	}
	require.NoError(t, players[1].Leave(ctx))
	waitState(t, players[1], gamesession.StateClosed)

	require.NoError(t, host.StartRound(ctx))

	sessions, err := h.svc.GetSessions(ctx, h.code)
	require.NoError(t, err)
	numbers := make([]int, len(sessions))
	impostors := 0
	for i, s := range sessions {
		numbers[i] = s.PlayerNumber
		if s.IsImpostor {
			impostors++
			assert.NotEqual(t, 3, s.PlayerNumber)
		}
	}
	assert.Equal(t, []int{1, 2, 4, 5}, numbers)
	assert.Equal(t, 1, impostors)

	for _, p := range []*gamesession.Machine{players[0], players[2], players[3]} {
		waitState(t, p, gamesession.StateRoleHidden)
		require.NoError(t, p.Reveal(ctx))
		require.NotNil(t, p.View().Role)
	}
}

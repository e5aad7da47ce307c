package impostor_test

import (
	"context"
	"testing"

	"impostor-service/domain"
	"impostor-service/internal/impostor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countImpostors(roles []bool) int {
	n := 0
	for _, r := range roles {
		if r {
			n++
		}
	}
	return n
}

func TestMaxImpostors(t *testing.T) {
	assert.Equal(t, 1, impostor.MaxImpostors(4))
	assert.Equal(t, 1, impostor.MaxImpostors(5))
	assert.Equal(t, 2, impostor.MaxImpostors(6))
	assert.Equal(t, 4, impostor.MaxImpostors(10))
	assert.Equal(t, 4, impostor.MaxImpostors(20))
	assert.LessOrEqual(t, impostor.MaxImpostors(3), 0)
}

func TestStartRoundDealsExactImpostorCount(t *testing.T) {
	svc, _ := newService(t, 5)
	ctx := context.Background()
	room := createRoom(t, svc, 12, 1, "h1")

	for _, tc := range []struct{ n, k int }{{4, 1}, {6, 2}, {8, 3}, {12, 4}} {
		for i := 0; i < 25; i++ {
			round, err := svc.StartRound(ctx, room.Code, tc.n, tc.k)
			require.NoError(t, err)
			require.Len(t, round.Roles, tc.n)
			assert.Equal(t, tc.k, countImpostors(round.Roles))
		}
	}
}

func TestStartRoundRejectsImpostorBound(t *testing.T) {
	svc, _ := newService(t, 3)
	ctx := context.Background()
	room := createRoom(t, svc, 5, 1, "h1")

	_, err := svc.StartRound(ctx, room.Code, 4, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.StartRound(ctx, room.Code, 4, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.StartRound(ctx, room.Code, 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := svc.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, got.Status)
}

func TestStartRoundAvoidsRepeatsUntilPoolExhausted(t *testing.T) {
	svc, _ := newService(t, 4)
	ctx := context.Background()
	room := createRoom(t, svc, 5, 1, "h1")

	seen := make(map[int64]bool)
	for i := 0; i < 4; i++ {
		round, err := svc.StartRound(ctx, room.Code, 5, 1)
		require.NoError(t, err)
		assert.False(t, seen[round.Subject.ID], "subject %d repeated before exhaustion", round.Subject.ID)
		seen[round.Subject.ID] = true
	}
	assert.Len(t, seen, 4)

	for i := 0; i < 3; i++ {
		round, err := svc.StartRound(ctx, room.Code, 5, 1)
		require.NoError(t, err)
		assert.True(t, seen[round.Subject.ID])
		assert.Equal(t, 5+i, round.Room.RoundNumber)
	}
}

func TestStartRoundWithoutSubjects(t *testing.T) {
	svc, _ := newService(t, 0)
	ctx := context.Background()
	room := createRoom(t, svc, 5, 1, "h1")

	_, err := svc.StartRound(ctx, room.Code, 5, 1)
	assert.ErrorIs(t, err, domain.ErrNoSubjects)

	got, err := svc.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, got.Status)
}

func TestStartRoundBackendFailureLeavesRoomIntact(t *testing.T) {
	svc, store := newService(t, 3)
	ctx := context.Background()
	room := createRoom(t, svc, 5, 1, "h1")

	store.FailNext("BeginRound", domain.ErrBackend)
	_, err := svc.StartRound(ctx, room.Code, 5, 1)
	assert.ErrorIs(t, err, domain.ErrBackend)

	got, err := svc.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, got.Status)
	_, err = svc.GetRole(ctx, room.Code, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStartRoundOnFinishedRoom(t *testing.T) {
	svc, _ := newService(t, 3)
	ctx := context.Background()
	room := createRoom(t, svc, 5, 1, "h1")
	require.NoError(t, svc.CloseRoom(ctx, room.Code))

	_, err := svc.StartRound(ctx, room.Code, 5, 1)
	assert.ErrorIs(t, err, domain.ErrGameOver)
}

func TestGetRoleReflectsLatestRound(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()
	room := createRoom(t, svc, 6, 1, "h1")

	_, err := svc.GetRole(ctx, room.Code, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for i := 0; i < 10; i++ {
		round, err := svc.StartRound(ctx, room.Code, 6, 2)
		require.NoError(t, err)
		for number := 1; number <= 6; number++ {
			session, err := svc.GetRole(ctx, room.Code, number)
			require.NoError(t, err)
			assert.Equal(t, round.Roles[number-1], session.IsImpostor)
			assert.Equal(t, round.Subject.ID, session.SubjectID)
		}
	}

	// One subject only: every restart supersedes the previous rows.
	sessions, err := svc.GetSessions(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, sessions, 6)
	for i, s := range sessions {
		assert.Equal(t, i+1, s.PlayerNumber)
	}
}

func TestEndToEndRound(t *testing.T) {
	svc, _ := newService(t, 10)
	ctx := context.Background()

	room := createRoom(t, svc, 5, 1, "h1")
	assert.Regexp(t, `^[A-Z0-9]{6}$`, room.Code)

	for i, u := range []string{"h1", "u2", "u3"} {
		n, err := svc.Join(ctx, room.Code, u, u)
		require.NoError(t, err)
		assert.Equal(t, i+1, n)
	}

	round, err := svc.StartRound(ctx, room.Code, 5, 1)
	require.NoError(t, err)
	require.Len(t, round.Roles, 5)
	assert.Equal(t, 1, countImpostors(round.Roles))

	got, err := svc.GetRoom(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlaying, got.Status)
	require.NotNil(t, got.CurrentSubjectID)
	require.NotNil(t, got.CurrentSubject)
	assert.Equal(t, round.Subject.Name, got.CurrentSubject.Name)

	session, err := svc.GetRole(ctx, room.Code, 1)
	require.NoError(t, err)
	assert.Equal(t, *got.CurrentSubjectID, session.SubjectID)
}

func TestResultsFiltersToCurrentRound(t *testing.T) {
	svc, _ := newService(t, 5)
	ctx := context.Background()
	room := createRoom(t, svc, 6, 2, "h1")
	for _, u := range []string{"h1", "u2", "u3", "u4", "u5", "u6"} {
		_, err := svc.Join(ctx, room.Code, u, "name-"+u)
		require.NoError(t, err)
	}

	_, err := svc.Results(ctx, room.Code)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.StartRound(ctx, room.Code, 6, 2)
	require.NoError(t, err)
	round, err := svc.StartRound(ctx, room.Code, 6, 2)
	require.NoError(t, err)

	sessions, err := svc.GetSessions(ctx, room.Code)
	require.NoError(t, err)
	assert.Len(t, sessions, 12)

	results, err := svc.Results(ctx, room.Code)
	require.NoError(t, err)
	assert.Equal(t, 2, results.RoundNumber)
	assert.Equal(t, round.Subject.ID, results.Subject.ID)
	require.Len(t, results.Impostors, 2)
	for _, imp := range results.Impostors {
		assert.True(t, round.Roles[imp.PlayerNumber-1])
		assert.NotEmpty(t, imp.DisplayName)
	}
	assert.Less(t, results.Impostors[0].PlayerNumber, results.Impostors[1].PlayerNumber)
}

func TestStartSeatedRoundSkipsVacatedSeats(t *testing.T) {
	svc, _ := newService(t, 1)
	ctx := context.Background()
	room := createRoom(t, svc, 6, 1, "h1")
	seat(t, svc, room.Code, 5)
	require.NoError(t, svc.Leave(ctx, room.Code, "u3"))

	for i := 0; i < 40; i++ {
		round, err := svc.StartSeatedRound(ctx, room.Code, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 4, 5}, round.PlayerNumbers)
		require.Len(t, round.Roles, 4)
		assert.Equal(t, 1, countImpostors(round.Roles))

		results, err := svc.Results(ctx, room.Code)
		require.NoError(t, err)
		require.Len(t, results.Impostors, 1)
		assert.NotEqual(t, 3, results.Impostors[0].PlayerNumber)
		assert.NotEmpty(t, results.Impostors[0].DisplayName)
	}

	sessions, err := svc.GetSessions(ctx, room.Code)
	require.NoError(t, err)
	numbers := make([]int, len(sessions))
	for i, s := range sessions {
		numbers[i] = s.PlayerNumber
	}
	assert.Equal(t, []int{1, 2, 4, 5}, numbers)

	_, err = svc.GetRole(ctx, room.Code, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStartSeatedRoundBoundsBySeatedPlayers(t *testing.T) {
	svc, _ := newService(t, 3)
	ctx := context.Background()
	room := createRoom(t, svc, 10, 1, "h1")

	_, err := svc.StartSeatedRound(ctx, room.Code, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	seat(t, svc, room.Code, 6)
	_, err = svc.StartSeatedRound(ctx, room.Code, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.StartSeatedRound(ctx, room.Code, 2)
	assert.NoError(t, err)
}

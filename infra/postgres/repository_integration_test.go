//go:build integration

package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"impostor-service/domain"
	"impostor-service/infra/postgres"
	"impostor-service/internal/impostor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	repo       *postgres.Repository
	connString string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("impostordb"),
		tcpostgres.WithUsername("testusername"),
		tcpostgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	repo, err = postgres.NewRepository(connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	repo.Close()
	container.Terminate(ctx)
	os.Exit(code)
}

func TestRoomLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := impostor.NewService(repo)

	room, err := svc.CreateRoom(ctx, 5, 1, "h1")
	require.NoError(t, err)

	t.Run("duplicate active code conflicts", func(t *testing.T) {
		_, err := repo.CreateRoom(ctx, domain.Room{Code: room.Code, NumPlayers: 5, NumImpostors: 1})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("join is idempotent under concurrency", func(t *testing.T) {
		var wg sync.WaitGroup
		numbers := make([]int, 6)
		for i := range numbers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				n, err := svc.Join(ctx, room.Code, "h1", "Host")
				assert.NoError(t, err)
				numbers[i] = n
			}(i)
		}
		wg.Wait()
		for _, n := range numbers {
			assert.Equal(t, 1, n)
		}

		for i, u := range []string{"u2", "u3"} {
			n, err := svc.Join(ctx, room.Code, u, u)
			require.NoError(t, err)
			assert.Equal(t, i+2, n)
		}
		players, err := svc.ListPlayers(ctx, room.Code)
		require.NoError(t, err)
		assert.Len(t, players, 3)
	})

	t.Run("rounds supersede roles", func(t *testing.T) {
		first, err := svc.StartRound(ctx, room.Code, 5, 1)
		require.NoError(t, err)
		second, err := svc.StartRound(ctx, room.Code, 5, 1)
		require.NoError(t, err)
		assert.NotEqual(t, first.Subject.ID, second.Subject.ID)
		assert.Equal(t, 2, second.Room.RoundNumber)

		got, err := svc.GetRoom(ctx, room.Code)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPlaying, got.Status)
		require.NotNil(t, got.CurrentSubject)
		assert.Equal(t, second.Subject.Name, got.CurrentSubject.Name)

		for number := 1; number <= 5; number++ {
			session, err := svc.GetRole(ctx, room.Code, number)
			require.NoError(t, err)
			assert.Equal(t, second.Subject.ID, session.SubjectID)
			assert.Equal(t, second.Roles[number-1], session.IsImpostor)
		}

		results, err := svc.Results(ctx, room.Code)
		require.NoError(t, err)
		assert.Len(t, results.Impostors, 1)
	})

	t.Run("close keeps the row and frees the code", func(t *testing.T) {
		require.NoError(t, svc.CloseRoom(ctx, room.Code))
		require.NoError(t, svc.CloseRoom(ctx, room.Code))

		got, err := svc.GetRoom(ctx, room.Code)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFinished, got.Status)

		_, err = repo.CreateRoom(ctx, domain.Room{Code: room.Code, NumPlayers: 4, NumImpostors: 1})
		require.NoError(t, err)
		got, err = svc.GetRoom(ctx, room.Code)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusWaiting, got.Status)
		assert.Equal(t, 4, got.NumPlayers)
	})

	t.Run("unknown room", func(t *testing.T) {
		_, err := svc.GetRoom(ctx, "ZZZZZ9")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, svc.CloseRoom(ctx, "ZZZZZ9"), domain.ErrNotFound)
	})
}

func TestChangeFeedDeliversRosterDeletes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	feed, err := postgres.NewChangeFeed(connString)
	require.NoError(t, err)
	defer feed.Close()

	svc := impostor.NewService(repo)
	room, err := svc.CreateRoom(ctx, 5, 1, "host")
	require.NoError(t, err)
	_, err = svc.Join(ctx, room.Code, "host", "Host")
	require.NoError(t, err)

	sub, err := feed.Subscribe(ctx, domain.ChangeFilter{
		Table:    domain.TablePlayers,
		Op:       domain.OpDelete,
		RoomCode: room.Code,
		Match:    domain.PlayerIs("host"),
	})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Leave(ctx, room.Code, "host"))

	select {
	case change := <-sub.Changes():
		assert.Equal(t, room.Code, change.RoomCode)
	case <-ctx.Done():
		t.Fatal("no delete notification received")
	}
}

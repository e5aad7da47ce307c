package impostor_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"impostor-service/domain"
	"impostor-service/infra/memory"
	"impostor-service/internal/impostor"

	"github.com/stretchr/testify/require"
)

func testSubjects(n int) []domain.Subject {
	subjects := make([]domain.Subject, n)
	for i := range subjects {
		subjects[i] = domain.Subject{ID: int64(i + 1), Name: fmt.Sprintf("subject-%d", i+1), Category: "test"}
	}
	return subjects
}

func newService(t *testing.T, subjects int, opts ...impostor.Option) (*impostor.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(testSubjects(subjects)...)
	t.Cleanup(func() { store.Close() })
	opts = append([]impostor.Option{impostor.WithRand(rand.New(rand.NewSource(7)))}, opts...)
	return impostor.NewService(store, opts...), store
}

func createRoom(t *testing.T, svc *impostor.Service, numPlayers, numImpostors int, host string) domain.Room {
	t.Helper()
	room, err := svc.CreateRoom(context.Background(), numPlayers, numImpostors, host)
	require.NoError(t, err)
	return room
}

// seat joins h1, u2, u3... until n players hold numbers 1..n.
func seat(t *testing.T, svc *impostor.Service, code string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		userID := fmt.Sprintf("u%d", i)
		if i == 1 {
			userID = "h1"
		}
		number, err := svc.Join(context.Background(), code, userID, "name-"+userID)
		require.NoError(t, err)
		require.Equal(t, i, number)
	}
}

package httpUsecase

import (
	"context"
	"sync"

	"impostor-service/domain"

	"github.com/stretchr/testify/mock"
)

// --- RoomService ---

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) CreateRoom(ctx context.Context, numPlayers, numImpostors int, hostUserID string) (domain.Room, error) {
	args := m.Called(ctx, numPlayers, numImpostors, hostUserID)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockRoomService) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockRoomService) CloseRoom(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockRoomService) SetImpostors(ctx context.Context, code, userID string, numImpostors int) (domain.Room, error) {
	args := m.Called(ctx, code, userID, numImpostors)
	return args.Get(0).(domain.Room), args.Error(1)
}

func (m *MockRoomService) Join(ctx context.Context, code, userID, displayName string) (int, error) {
	args := m.Called(ctx, code, userID, displayName)
	return args.Int(0), args.Error(1)
}

func (m *MockRoomService) ListPlayers(ctx context.Context, code string) ([]domain.Player, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]domain.Player), args.Error(1)
}

func (m *MockRoomService) Leave(ctx context.Context, code, userID string) error {
	args := m.Called(ctx, code, userID)
	return args.Error(0)
}

func (m *MockRoomService) StartRound(ctx context.Context, code string, numPlayers, numImpostors int) (domain.Round, error) {
	args := m.Called(ctx, code, numPlayers, numImpostors)
	return args.Get(0).(domain.Round), args.Error(1)
}

func (m *MockRoomService) StartSeatedRound(ctx context.Context, code string, numImpostors int) (domain.Round, error) {
	args := m.Called(ctx, code, numImpostors)
	return args.Get(0).(domain.Round), args.Error(1)
}

func (m *MockRoomService) GetRole(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error) {
	args := m.Called(ctx, code, playerNumber)
	return args.Get(0).(domain.RoundSession), args.Error(1)
}

func (m *MockRoomService) GetSessions(ctx context.Context, code string) ([]domain.RoundSession, error) {
	args := m.Called(ctx, code)
	return args.Get(0).([]domain.RoundSession), args.Error(1)
}

func (m *MockRoomService) Results(ctx context.Context, code string) (domain.RoundResults, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.RoundResults), args.Error(1)
}

// --- Broadcaster / EventPublisher ---

type recorder struct {
	mu    sync.Mutex
	types []string
}

func (r *recorder) Broadcast(ctx context.Context, code, eventType string, content any) error {
	r.record(eventType)
	return nil
}

func (r *recorder) Publish(ctx context.Context, eventType, roomCode string, data any) error {
	r.record(eventType)
	return nil
}

func (r *recorder) record(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, eventType)
}

func (r *recorder) has(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.types {
		if t == eventType {
			return true
		}
	}
	return false
}

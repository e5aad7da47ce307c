package impostor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"impostor-service/domain"

	"go.uber.org/zap"
)

// CreateRoom registers a waiting room under a fresh code. A code collision is
// reported as domain.ErrConflict and the caller is expected to retry.
func (s *Service) CreateRoom(ctx context.Context, numPlayers, numImpostors int, hostUserID string) (domain.Room, error) {
	if numPlayers < s.limits.MinPlayers || numPlayers > s.limits.MaxPlayers {
		return domain.Room{}, fmt.Errorf("%w: number of players must be between %d and %d",
			domain.ErrInvalidInput, s.limits.MinPlayers, s.limits.MaxPlayers)
	}
	if numImpostors < 1 || numImpostors > MaxImpostors(numPlayers) {
		return domain.Room{}, fmt.Errorf("%w: number of impostors must be between 1 and %d",
			domain.ErrInvalidInput, MaxImpostors(numPlayers))
	}

	code, err := s.newCode()
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}

	room, err := s.repo.CreateRoom(ctx, domain.Room{
		Code:         code,
		NumPlayers:   numPlayers,
		NumImpostors: numImpostors,
		HostUserID:   strings.TrimSpace(hostUserID),
		Status:       domain.StatusWaiting,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			zap.L().Debug("Room code collision", zap.String("code", code))
		}
		return domain.Room{}, err
	}
	return room, nil
}

func (s *Service) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	if !ValidCode(code) {
		return domain.Room{}, fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	return s.repo.GetRoom(ctx, code)
}

// CloseRoom marks the room finished. Closing a finished room is a no-op.
func (s *Service) CloseRoom(ctx context.Context, code string) error {
	if !ValidCode(code) {
		return fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	return s.repo.CloseRoom(ctx, code)
}

// SetImpostors lets the host change the impostor count before the first
// round. The count is bounded by the players seated right now.
func (s *Service) SetImpostors(ctx context.Context, code, userID string, numImpostors int) (domain.Room, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}
	if !room.IsHost(userID) {
		return domain.Room{}, fmt.Errorf("%w: only the host can change the impostor count", domain.ErrForbidden)
	}
	switch room.Status {
	case domain.StatusFinished:
		return domain.Room{}, fmt.Errorf("%w: room is closed", domain.ErrGameOver)
	case domain.StatusPlaying:
		return domain.Room{}, fmt.Errorf("%w: round already started", domain.ErrConflict)
	}

	players, err := s.repo.ListPlayers(ctx, code)
	if err != nil {
		return domain.Room{}, err
	}
	if bound := MaxImpostors(len(players)); numImpostors < 1 || numImpostors > bound {
		return domain.Room{}, fmt.Errorf("%w: %d impostors is out of range for %d seated players",
			domain.ErrInvalidInput, numImpostors, len(players))
	}

	if err := s.repo.SetImpostors(ctx, code, numImpostors); err != nil {
		return domain.Room{}, err
	}
	room.NumImpostors = numImpostors
	return room, nil
}

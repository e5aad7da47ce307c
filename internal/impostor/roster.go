package impostor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"impostor-service/domain"

	"go.uber.org/zap"
)

// Join adds userID to the room and returns its player number. Rejoining
// returns the existing number, including when two joins for the same identity
// race each other.
func (s *Service) Join(ctx context.Context, code, userID, displayName string) (int, error) {
	userID = strings.TrimSpace(userID)
	displayName = strings.TrimSpace(displayName)
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if displayName == "" || utf8.RuneCountInString(displayName) > maxDisplayName {
		return 0, fmt.Errorf("%w: display name must be 1 to %d characters", domain.ErrInvalidInput, maxDisplayName)
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return 0, err
	}
	if room.Status == domain.StatusFinished {
		return 0, fmt.Errorf("%w: room %s is closed", domain.ErrGameOver, code)
	}

	for attempt := 0; attempt < joinAttempts; attempt++ {
		existing, err := s.repo.GetPlayer(ctx, code, userID)
		if err == nil {
			return existing.PlayerNumber, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return 0, err
		}

		players, err := s.repo.ListPlayers(ctx, code)
		if err != nil {
			return 0, err
		}
		number := smallestFree(players, room.NumPlayers)
		if number == 0 {
			return 0, fmt.Errorf("%w: all %d seats are taken", domain.ErrRoomFull, room.NumPlayers)
		}

		player, err := s.repo.InsertPlayer(ctx, domain.Player{
			RoomCode:     code,
			UserID:       userID,
			DisplayName:  displayName,
			PlayerNumber: number,
		})
		if err == nil {
			return player.PlayerNumber, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return 0, err
		}
		// Either the same identity won the race (resolved by the re-read at
		// the top of the loop) or another player took this number.
		zap.L().Debug("Join conflict, retrying",
			zap.String("room", code), zap.String("user_id", userID), zap.Int("number", number))
	}
	return 0, fmt.Errorf("%w: could not claim a player number in room %s", domain.ErrConflict, code)
}

// smallestFree returns the lowest number in [1, limit] not held by players,
// or 0 when every number is taken.
func smallestFree(players []domain.Player, limit int) int {
	taken := make(map[int]bool, len(players))
	for _, p := range players {
		taken[p.PlayerNumber] = true
	}
	for n := 1; n <= limit; n++ {
		if !taken[n] {
			return n
		}
	}
	return 0
}

func (s *Service) ListPlayers(ctx context.Context, code string) ([]domain.Player, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	return s.repo.ListPlayers(ctx, code)
}

func (s *Service) Leave(ctx context.Context, code, userID string) error {
	if !ValidCode(code) {
		return fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	return s.repo.DeletePlayer(ctx, code, userID)
}

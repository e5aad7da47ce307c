package postgres

import (
	"context"
	"fmt"

	"impostor-service/domain"
)

func (r *Repository) GetPlayer(ctx context.Context, code, userID string) (domain.Player, error) {
	query := `
		SELECT room_code, user_id, display_name, player_number, joined_at
		FROM room_players
		WHERE room_id = ` + latestRoomID + ` AND user_id = $2
	`
	var p domain.Player
	err := r.db.QueryRowContext(ctx, query, code, userID).
		Scan(&p.RoomCode, &p.UserID, &p.DisplayName, &p.PlayerNumber, &p.JoinedAt)
	if err != nil {
		return domain.Player{}, mapError(err, fmt.Sprintf("player %s in room %s", userID, code))
	}
	return p, nil
}

func (r *Repository) ListPlayers(ctx context.Context, code string) ([]domain.Player, error) {
	query := `
		SELECT room_code, user_id, display_name, player_number, joined_at
		FROM room_players
		WHERE room_id = ` + latestRoomID + `
		ORDER BY player_number ASC
	`
	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, mapError(err, "list players of room "+code)
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.RoomCode, &p.UserID, &p.DisplayName, &p.PlayerNumber, &p.JoinedAt); err != nil {
			return nil, mapError(err, "scan player")
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list players of room "+code)
	}
	return players, nil
}

// InsertPlayer relies on the (room_id, user_id) and (room_id, player_number)
// unique constraints to detect join races.
func (r *Repository) InsertPlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	query := `
		INSERT INTO room_players (room_id, room_code, user_id, display_name, player_number)
		SELECT id, code, $2, $3, $4 FROM rooms WHERE code = $1 ORDER BY id DESC LIMIT 1
		RETURNING joined_at
	`
	err := r.db.QueryRowContext(ctx, query, player.RoomCode, player.UserID, player.DisplayName, player.PlayerNumber).
		Scan(&player.JoinedAt)
	if err != nil {
		return domain.Player{}, mapError(err, fmt.Sprintf("join room %s", player.RoomCode))
	}
	return player, nil
}

func (r *Repository) DeletePlayer(ctx context.Context, code, userID string) error {
	query := `DELETE FROM room_players WHERE room_id = ` + latestRoomID + ` AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, code, userID); err != nil {
		return mapError(err, fmt.Sprintf("leave room %s", code))
	}
	return nil
}

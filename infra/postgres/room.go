package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"impostor-service/domain"
)

func (r *Repository) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	query := `
		INSERT INTO rooms (code, num_players, num_impostors, host_user_id, status)
		VALUES ($1, $2, $3, $4, 'waiting')
		RETURNING round_number, created_at
	`
	host := sql.NullString{String: room.HostUserID, Valid: room.HostUserID != ""}
	err := r.db.QueryRowContext(ctx, query, room.Code, room.NumPlayers, room.NumImpostors, host).
		Scan(&room.RoundNumber, &room.CreatedAt)
	if err != nil {
		return domain.Room{}, mapError(err, "create room "+room.Code)
	}
	room.Status = domain.StatusWaiting
	room.CurrentSubjectID = nil
	room.CurrentSubject = nil
	return room, nil
}

func (r *Repository) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	query := `
		SELECT r.code, r.num_players, r.num_impostors, r.host_user_id, r.status,
			r.current_subject_id, r.round_number, r.created_at,
			s.name, s.category, s.image_url
		FROM rooms r
		LEFT JOIN subjects s ON s.id = r.current_subject_id
		WHERE r.code = $1
		ORDER BY r.id DESC
		LIMIT 1
	`
	var (
		room      domain.Room
		host      sql.NullString
		subjectID sql.NullInt64
		name      sql.NullString
		category  sql.NullString
		imageURL  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&room.Code, &room.NumPlayers, &room.NumImpostors, &host, &room.Status,
		&subjectID, &room.RoundNumber, &room.CreatedAt,
		&name, &category, &imageURL,
	)
	if err != nil {
		return domain.Room{}, mapError(err, "room "+code)
	}

	room.HostUserID = host.String
	if subjectID.Valid {
		id := subjectID.Int64
		room.CurrentSubjectID = &id
		room.CurrentSubject = &domain.Subject{
			ID:       id,
			Name:     name.String,
			Category: category.String,
			ImageURL: imageURL.String,
		}
	}
	return room, nil
}

func (r *Repository) CloseRoom(ctx context.Context, code string) error {
	query := `
		UPDATE rooms SET status = 'finished', finished_at = CURRENT_TIMESTAMP
		WHERE id = ` + latestRoomID + ` AND status <> 'finished'
	`
	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return mapError(err, "close room "+code)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.roomExists(ctx, code)
}

func (r *Repository) SetImpostors(ctx context.Context, code string, numImpostors int) error {
	query := `UPDATE rooms SET num_impostors = $2 WHERE id = ` + latestRoomID
	res, err := r.db.ExecContext(ctx, query, code, numImpostors)
	if err != nil {
		return mapError(err, "set impostors for room "+code)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	return nil
}

func (r *Repository) roomExists(ctx context.Context, code string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return mapError(err, "room "+code)
	}
	if !exists {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	return nil
}

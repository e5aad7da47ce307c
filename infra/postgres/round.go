package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"impostor-service/domain"
)

func (r *Repository) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category, image_url FROM subjects ORDER BY id`)
	if err != nil {
		return nil, mapError(err, "list subjects")
	}
	defer rows.Close()

	var subjects []domain.Subject
	for rows.Next() {
		var (
			s        domain.Subject
			category sql.NullString
			imageURL sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Name, &category, &imageURL); err != nil {
			return nil, mapError(err, "scan subject")
		}
		s.Category = category.String
		s.ImageURL = imageURL.String
		subjects = append(subjects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list subjects")
	}
	return subjects, nil
}

func (r *Repository) UsedSubjectIDs(ctx context.Context, code string) ([]int64, error) {
	query := `SELECT DISTINCT subject_id FROM round_sessions WHERE room_id = ` + latestRoomID
	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, mapError(err, "used subjects of room "+code)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "scan subject id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "used subjects of room "+code)
	}
	return ids, nil
}

func (r *Repository) BeginRound(ctx context.Context, code string, subjectID int64, sessions []domain.RoundSession) (domain.Room, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Room{}, mapError(err, "begin transaction")
	}
	defer tx.Rollback()

	var roomID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM rooms WHERE code = $1 ORDER BY id DESC LIMIT 1 FOR UPDATE`, code,
	).Scan(&roomID)
	if err != nil {
		return domain.Room{}, mapError(err, "room "+code)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM round_sessions WHERE room_id = $1 AND subject_id = $2`, roomID, subjectID,
	); err != nil {
		return domain.Room{}, mapError(err, "clear previous sessions")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO round_sessions (room_id, room_code, player_number, is_impostor, subject_id)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return domain.Room{}, mapError(err, "prepare session insert")
	}
	defer stmt.Close()

	for _, s := range sessions {
		if _, err := stmt.ExecContext(ctx, roomID, code, s.PlayerNumber, s.IsImpostor, subjectID); err != nil {
			return domain.Room{}, mapError(err, fmt.Sprintf("insert session for player %d", s.PlayerNumber))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE rooms
		SET status = 'playing', current_subject_id = $2, round_number = round_number + 1,
			started_at = COALESCE(started_at, CURRENT_TIMESTAMP)
		WHERE id = $1
	`, roomID, subjectID); err != nil {
		return domain.Room{}, mapError(err, "update room "+code)
	}

	if err := tx.Commit(); err != nil {
		return domain.Room{}, mapError(err, "commit round")
	}

	return r.GetRoom(ctx, code)
}

func (r *Repository) LatestSession(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error) {
	query := `
		SELECT id, room_code, player_number, is_impostor, subject_id, created_at
		FROM round_sessions
		WHERE room_id = ` + latestRoomID + ` AND player_number = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var s domain.RoundSession
	err := r.db.QueryRowContext(ctx, query, code, playerNumber).
		Scan(&s.ID, &s.RoomCode, &s.PlayerNumber, &s.IsImpostor, &s.SubjectID, &s.CreatedAt)
	if err != nil {
		return domain.RoundSession{}, mapError(err, fmt.Sprintf("session of player %d in room %s", playerNumber, code))
	}
	return s, nil
}

func (r *Repository) ListSessions(ctx context.Context, code string) ([]domain.RoundSession, error) {
	query := `
		SELECT id, room_code, player_number, is_impostor, subject_id, created_at
		FROM round_sessions
		WHERE room_id = ` + latestRoomID + `
		ORDER BY player_number ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, code)
	if err != nil {
		return nil, mapError(err, "list sessions of room "+code)
	}
	defer rows.Close()

	sessions := []domain.RoundSession{}
	for rows.Next() {
		var s domain.RoundSession
		if err := rows.Scan(&s.ID, &s.RoomCode, &s.PlayerNumber, &s.IsImpostor, &s.SubjectID, &s.CreatedAt); err != nil {
			return nil, mapError(err, "scan session")
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list sessions of room "+code)
	}
	return sessions, nil
}

package postgres

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

const ChangesChannel = "impostor_changes"

const (
	createSubjectsTable = `
		CREATE TABLE IF NOT EXISTS subjects (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			category VARCHAR(50),
			image_url TEXT
		);`

	createRoomsTable = `
		CREATE TABLE IF NOT EXISTS rooms (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(6) NOT NULL CHECK (code ~ '^[A-Z0-9]{6}$'),
			num_players INT NOT NULL CHECK (num_players > 0),
			num_impostors INT NOT NULL CHECK (num_impostors > 0),
			host_user_id TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting' CHECK (status IN ('waiting', 'playing', 'finished')),
			current_subject_id BIGINT REFERENCES subjects(id),
			round_number INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			started_at TIMESTAMP WITH TIME ZONE,
			finished_at TIMESTAMP WITH TIME ZONE
		);`

	createRoomPlayersTable = `
		CREATE TABLE IF NOT EXISTS room_players (
			id BIGSERIAL PRIMARY KEY,
			room_id BIGINT REFERENCES rooms(id) ON DELETE CASCADE NOT NULL,
			room_code VARCHAR(6) NOT NULL,
			user_id TEXT NOT NULL,
			display_name VARCHAR(32) NOT NULL,
			player_number INT NOT NULL CHECK (player_number > 0),
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(room_id, user_id),
			UNIQUE(room_id, player_number)
		);`

	createRoundSessionsTable = `
		CREATE TABLE IF NOT EXISTS round_sessions (
			id BIGSERIAL PRIMARY KEY,
			room_id BIGINT REFERENCES rooms(id) ON DELETE CASCADE NOT NULL,
			room_code VARCHAR(6) NOT NULL,
			player_number INT NOT NULL,
			is_impostor BOOLEAN NOT NULL,
			subject_id BIGINT REFERENCES subjects(id) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);`

	insertSampleSubjects = `
		INSERT INTO subjects (name, category) VALUES
		('Lion', 'Animals'),
		('Penguin', 'Animals'),
		('Octopus', 'Animals'),
		('Giraffe', 'Animals'),
		('Pizza', 'Food'),
		('Sushi', 'Food'),
		('Baklava', 'Food'),
		('Pancake', 'Food'),
		('Hospital', 'Places'),
		('Airport', 'Places'),
		('Library', 'Places'),
		('Beach', 'Places'),
		('Guitar', 'Objects'),
		('Umbrella', 'Objects'),
		('Telescope', 'Objects'),
		('Firefighter', 'Jobs'),
		('Astronaut', 'Jobs'),
		('Chef', 'Jobs')
		ON CONFLICT (name) DO NOTHING;`

	createIndexes = `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_active_code ON rooms(code) WHERE status <> 'finished';
		CREATE INDEX IF NOT EXISTS idx_rooms_code ON rooms(code, id DESC);
		CREATE INDEX IF NOT EXISTS idx_room_players_room_id ON room_players(room_id);
		CREATE INDEX IF NOT EXISTS idx_round_sessions_slot ON round_sessions(room_id, player_number, created_at DESC, id DESC);
		CREATE INDEX IF NOT EXISTS idx_round_sessions_subject ON round_sessions(room_id, subject_id);`

	// Only rooms and room_players are published; round_sessions carry roles
	// and must not reach other players.
	createNotifyTriggers = `
		CREATE OR REPLACE FUNCTION notify_impostor_change() RETURNS trigger AS $$
		DECLARE
			rec RECORD;
		BEGIN
			IF TG_OP = 'DELETE' THEN
				rec := OLD;
			ELSE
				rec := NEW;
			END IF;
			PERFORM pg_notify('` + ChangesChannel + `', json_build_object(
				'table', TG_TABLE_NAME,
				'op', TG_OP,
				'room_code', to_jsonb(rec)->>TG_ARGV[0],
				'row', to_jsonb(rec)
			)::text);
			RETURN rec;
		END;
		$$ LANGUAGE plpgsql;

		DROP TRIGGER IF EXISTS rooms_notify ON rooms;
		CREATE TRIGGER rooms_notify AFTER INSERT OR UPDATE OR DELETE ON rooms
			FOR EACH ROW EXECUTE FUNCTION notify_impostor_change('code');

		DROP TRIGGER IF EXISTS room_players_notify ON room_players;
		CREATE TRIGGER room_players_notify AFTER INSERT OR UPDATE OR DELETE ON room_players
			FOR EACH ROW EXECUTE FUNCTION notify_impostor_change('room_code');`
)

func initDB(db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"subjects", createSubjectsTable},
		{"rooms", createRoomsTable},
		{"room_players", createRoomPlayersTable},
		{"round_sessions", createRoundSessionsTable},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create '%s' table: %w", table.name, err)
		}
		zap.L().Debug("Table ready", zap.String("table", table.name))
	}

	if _, err := db.Exec(insertSampleSubjects); err != nil {
		return fmt.Errorf("failed to insert sample subjects: %w", err)
	}

	if _, err := db.Exec(createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if _, err := db.Exec(createNotifyTriggers); err != nil {
		return fmt.Errorf("failed to create notify triggers: %w", err)
	}

	zap.L().Info("Database initialized successfully with all tables, indexes and triggers")
	return nil
}

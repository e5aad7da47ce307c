// Package memory is an in-process store driver. It emits the same row-change
// notifications as the Postgres triggers.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"impostor-service/domain"
	"impostor-service/pkg/fanout"
)

const subscriberBuffer = 64

type Store struct {
	mu            sync.RWMutex
	rooms         map[string]*domain.Room
	players       map[string]map[string]domain.Player
	sessions      map[string][]domain.RoundSession
	subjects      []domain.Subject
	nextSessionID int64
	faults        map[string]error

	changes *fanout.Hub[domain.RowChange]
	now     func() time.Time
}

func NewStore(subjects ...domain.Subject) *Store {
	return &Store{
		rooms:    make(map[string]*domain.Room),
		players:  make(map[string]map[string]domain.Player),
		sessions: make(map[string][]domain.RoundSession),
		subjects: append([]domain.Subject(nil), subjects...),
		faults:   make(map[string]error),
		changes:  fanout.New[domain.RowChange](),
		now:      time.Now,
	}
}

// FailNext makes the next call of the named method return err.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = err
}

func (s *Store) fault(method string) error {
	err, ok := s.faults[method]
	if !ok {
		return nil
	}
	delete(s.faults, method)
	return err
}

func (s *Store) Close() error {
	s.changes.Close()
	return nil
}

func (s *Store) emit(table string, op domain.ChangeOp, code string, row any) {
	payload, err := json.Marshal(row)
	if err != nil {
		return
	}
	s.changes.Publish(domain.RowChange{Table: table, Op: op, RoomCode: code, Row: payload})
}

func (s *Store) roomView(room *domain.Room) domain.Room {
	out := *room
	out.CurrentSubject = nil
	if room.CurrentSubjectID != nil {
		for _, subject := range s.subjects {
			if subject.ID == *room.CurrentSubjectID {
				out.CurrentSubject = &subject
				break
			}
		}
	}
	return out
}

func rowOf(room *domain.Room) domain.Room {
	out := *room
	out.CurrentSubject = nil
	return out
}

func (s *Store) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CreateRoom"); err != nil {
		return domain.Room{}, err
	}

	if existing, ok := s.rooms[room.Code]; ok && existing.Status != domain.StatusFinished {
		return domain.Room{}, fmt.Errorf("%w: room code %s is in use", domain.ErrConflict, room.Code)
	}

	stored := room
	stored.CurrentSubject = nil
	stored.CurrentSubjectID = nil
	stored.RoundNumber = 0
	if stored.Status == "" {
		stored.Status = domain.StatusWaiting
	}
	stored.CreatedAt = s.now()

	s.rooms[room.Code] = &stored
	s.players[room.Code] = make(map[string]domain.Player)
	s.sessions[room.Code] = nil

	s.emit(domain.TableRooms, domain.OpInsert, room.Code, rowOf(&stored))
	return stored, nil
}

func (s *Store) GetRoom(ctx context.Context, code string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetRoom"); err != nil {
		return domain.Room{}, err
	}

	room, ok := s.rooms[code]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	return s.roomView(room), nil
}

func (s *Store) CloseRoom(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("CloseRoom"); err != nil {
		return err
	}

	room, ok := s.rooms[code]
	if !ok {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	if room.Status == domain.StatusFinished {
		return nil
	}
	room.Status = domain.StatusFinished
	s.emit(domain.TableRooms, domain.OpUpdate, code, rowOf(room))
	return nil
}

func (s *Store) SetImpostors(ctx context.Context, code string, numImpostors int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("SetImpostors"); err != nil {
		return err
	}

	room, ok := s.rooms[code]
	if !ok {
		return fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}
	room.NumImpostors = numImpostors
	s.emit(domain.TableRooms, domain.OpUpdate, code, rowOf(room))
	return nil
}

func (s *Store) GetPlayer(ctx context.Context, code, userID string) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("GetPlayer"); err != nil {
		return domain.Player{}, err
	}

	player, ok := s.players[code][userID]
	if !ok {
		return domain.Player{}, fmt.Errorf("%w: player %s in room %s", domain.ErrNotFound, userID, code)
	}
	return player, nil
}

func (s *Store) ListPlayers(ctx context.Context, code string) ([]domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListPlayers"); err != nil {
		return nil, err
	}

	players := make([]domain.Player, 0, len(s.players[code]))
	for _, p := range s.players[code] {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerNumber < players[j].PlayerNumber })
	return players, nil
}

func (s *Store) InsertPlayer(ctx context.Context, player domain.Player) (domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("InsertPlayer"); err != nil {
		return domain.Player{}, err
	}

	if _, ok := s.rooms[player.RoomCode]; !ok {
		return domain.Player{}, fmt.Errorf("%w: room %s", domain.ErrNotFound, player.RoomCode)
	}
	roster := s.players[player.RoomCode]
	if _, ok := roster[player.UserID]; ok {
		return domain.Player{}, fmt.Errorf("%w: user %s already joined", domain.ErrConflict, player.UserID)
	}
	for _, p := range roster {
		if p.PlayerNumber == player.PlayerNumber {
			return domain.Player{}, fmt.Errorf("%w: player number %d is taken", domain.ErrConflict, player.PlayerNumber)
		}
	}

	player.JoinedAt = s.now()
	roster[player.UserID] = player
	s.emit(domain.TablePlayers, domain.OpInsert, player.RoomCode, player)
	return player, nil
}

func (s *Store) DeletePlayer(ctx context.Context, code, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("DeletePlayer"); err != nil {
		return err
	}

	player, ok := s.players[code][userID]
	if !ok {
		return nil
	}
	delete(s.players[code], userID)
	s.emit(domain.TablePlayers, domain.OpDelete, code, player)
	return nil
}

func (s *Store) ListSubjects(ctx context.Context) ([]domain.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListSubjects"); err != nil {
		return nil, err
	}
	return append([]domain.Subject(nil), s.subjects...), nil
}

func (s *Store) UsedSubjectIDs(ctx context.Context, code string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("UsedSubjectIDs"); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var ids []int64
	for _, session := range s.sessions[code] {
		if !seen[session.SubjectID] {
			seen[session.SubjectID] = true
			ids = append(ids, session.SubjectID)
		}
	}
	return ids, nil
}

func (s *Store) BeginRound(ctx context.Context, code string, subjectID int64, sessions []domain.RoundSession) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("BeginRound"); err != nil {
		return domain.Room{}, err
	}

	room, ok := s.rooms[code]
	if !ok {
		return domain.Room{}, fmt.Errorf("%w: room %s", domain.ErrNotFound, code)
	}

	var kept []domain.RoundSession
	for _, session := range s.sessions[code] {
		if session.SubjectID != subjectID {
			kept = append(kept, session)
		}
	}
	now := s.now()
	for _, session := range sessions {
		s.nextSessionID++
		session.ID = s.nextSessionID
		session.RoomCode = code
		session.SubjectID = subjectID
		session.CreatedAt = now
		kept = append(kept, session)
	}
	s.sessions[code] = kept

	id := subjectID
	room.CurrentSubjectID = &id
	room.Status = domain.StatusPlaying
	room.RoundNumber++
	s.emit(domain.TableRooms, domain.OpUpdate, code, rowOf(room))
	return s.roomView(room), nil
}

func (s *Store) LatestSession(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("LatestSession"); err != nil {
		return domain.RoundSession{}, err
	}

	var latest *domain.RoundSession
	for i, session := range s.sessions[code] {
		if session.PlayerNumber != playerNumber {
			continue
		}
		if latest == nil || session.ID > latest.ID {
			latest = &s.sessions[code][i]
		}
	}
	if latest == nil {
		return domain.RoundSession{}, fmt.Errorf("%w: no session for player %d in room %s", domain.ErrNotFound, playerNumber, code)
	}
	return *latest, nil
}

func (s *Store) ListSessions(ctx context.Context, code string) ([]domain.RoundSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fault("ListSessions"); err != nil {
		return nil, err
	}

	sessions := append([]domain.RoundSession(nil), s.sessions[code]...)
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].PlayerNumber != sessions[j].PlayerNumber {
			return sessions[i].PlayerNumber < sessions[j].PlayerNumber
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// Subscribe delivers row changes matching filter until the subscription is
// closed or ctx is done.
func (s *Store) Subscribe(ctx context.Context, filter domain.ChangeFilter) (domain.ChangeSubscription, error) {
	sub := s.changes.Subscribe(filter.Matches, subscriberBuffer)
	stop := context.AfterFunc(ctx, func() { sub.Close() })
	return &changeSubscription{sub: sub, stop: stop}, nil
}

type changeSubscription struct {
	sub  *fanout.Subscription[domain.RowChange]
	stop func() bool
}

func (c *changeSubscription) Changes() <-chan domain.RowChange { return c.sub.C() }

func (c *changeSubscription) Close() error {
	c.stop()
	return c.sub.Close()
}

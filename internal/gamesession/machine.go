// Package gamesession runs one player's view of a room: it reacts to row
// changes, room broadcasts and polling, and performs the player's actions.
package gamesession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"impostor-service/domain"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval   = 2 * time.Second
	DefaultRequestTimeout = 6 * time.Second

	updatesBuffer = 16
)

type Config struct {
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

type Machine struct {
	backend Backend
	changes ChangeFeed
	bus     Broadcaster
	cfg     Config

	code        string
	userID      string
	displayName string

	commands chan command
	updates  chan View
	done     chan struct{}

	mu   sync.RWMutex
	view View

	// Owned by the Run goroutine.
	state       State
	room        domain.Room
	number      int
	isHost      bool
	hostSeen    bool
	round       int
	role        *domain.RoundSession
	subject     *domain.Subject
	results     *domain.RoundResults
	banner      string
	closeReason string
}

// New builds a machine for userID in room code. changes and bus may be nil, in
// which case the machine relies on polling alone.
func New(backend Backend, changes ChangeFeed, bus Broadcaster, code, userID, displayName string, cfg Config) *Machine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	return &Machine{
		backend:     backend,
		changes:     changes,
		bus:         bus,
		cfg:         cfg,
		code:        code,
		userID:      userID,
		displayName: displayName,
		commands:    make(chan command),
		updates:     make(chan View, updatesBuffer),
		done:        make(chan struct{}),
		view:        View{RoomCode: code},
	}
}

func (m *Machine) View() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.view
}

// Updates emits a view after every change. Slow readers miss intermediate
// views; the channel is closed when Run returns.
func (m *Machine) Updates() <-chan View {
	return m.updates
}

// Done is closed when Run returns.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

func (m *Machine) Reveal(ctx context.Context) error { return m.do(ctx, actReveal) }
func (m *Machine) Hide(ctx context.Context) error { return m.do(ctx, actHide) }
func (m *Machine) StartRound(ctx context.Context) error { return m.do(ctx, actStartRound) }
func (m *Machine) ShowResults(ctx context.Context) error { return m.do(ctx, actShowResults) }
func (m *Machine) NewRound(ctx context.Context) error { return m.do(ctx, actNewRound) }
func (m *Machine) Leave(ctx context.Context) error { return m.do(ctx, actLeave) }
func (m *Machine) End(ctx context.Context) error { return m.do(ctx, actEnd) }

func (m *Machine) do(ctx context.Context, a action) error {
	cmd := command{action: a, reply: make(chan error, 1)}
	select {
	case m.commands <- cmd:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run joins the room and processes events until the session is closed or
// ctx is done. It returns nil when the session reached StateClosed.
func (m *Machine) Run(ctx context.Context) error {
	defer close(m.done)
	defer close(m.updates)

	if err := m.enter(ctx); err != nil {
		return err
	}
	if m.state == StateClosed {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	roomCh, hostCh, busCh, release := m.subscribe(ctx)
	defer release()

	// Catch up on anything that happened before the subscriptions existed.
	m.poll(ctx)
	m.publish()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for m.state != StateClosed {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-m.commands:
			err := m.handle(ctx, cmd.action)
			m.publish()
			cmd.reply <- err
		case change, ok := <-roomCh:
			if !ok {
				roomCh = nil
				continue
			}
			m.onRoomChange(ctx, change)
		case _, ok := <-hostCh:
			if !ok {
				hostCh = nil
				continue
			}
			m.onHostLeft(ctx)
		case msg, ok := <-busCh:
			if !ok {
				busCh = nil
				continue
			}
			m.onBroadcast(ctx, msg)
		case <-ticker.C:
			m.poll(ctx)
		}
		m.publish()
	}
	return nil
}

func (m *Machine) enter(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	number, err := m.backend.Join(callCtx, m.code, m.userID, m.displayName)
	cancel()
	if err != nil {
		if domain.IsTerminal(err) {
			m.close(closeReasonFor(err))
			m.publish()
			return nil
		}
		return fmt.Errorf("join room %s: %w", m.code, err)
	}
	m.number = number

	callCtx, cancel = context.WithTimeout(ctx, m.cfg.RequestTimeout)
	room, err := m.backend.GetRoom(callCtx, m.code)
	cancel()
	if err != nil {
		if domain.IsTerminal(err) {
			m.close(closeReasonFor(err))
			m.publish()
			return nil
		}
		return fmt.Errorf("load room %s: %w", m.code, err)
	}

	m.isHost = room.IsHost(m.userID)
	m.state = StateWaiting
	m.applyRoom(room)
	m.publish()

	zap.L().Info("Joined room",
		zap.String("room", m.code), zap.String("user_id", m.userID), zap.Int("player_number", number),
		zap.Bool("host", m.isHost))
	return nil
}

func (m *Machine) subscribe(ctx context.Context) (<-chan domain.RowChange, <-chan domain.RowChange, <-chan domain.Broadcast, func()) {
	var (
		roomCh  <-chan domain.RowChange
		hostCh  <-chan domain.RowChange
		busCh   <-chan domain.Broadcast
		closers []func() error
	)

	if m.changes != nil {
		sub, err := m.changes.Subscribe(ctx, domain.ChangeFilter{
			Table:    domain.TableRooms,
			Op:       domain.OpUpdate,
			RoomCode: m.code,
		})
		if err != nil {
			zap.L().Warn("Room updates unavailable, polling only", zap.String("room", m.code), zap.Error(err))
		} else {
			roomCh = sub.Changes()
			closers = append(closers, sub.Close)
		}

		if !m.isHost && m.room.HostUserID != "" {
			sub, err := m.changes.Subscribe(ctx, domain.ChangeFilter{
				Table:    domain.TablePlayers,
				Op:       domain.OpDelete,
				RoomCode: m.code,
				Match:    domain.PlayerIs(m.room.HostUserID),
			})
			if err != nil {
				zap.L().Warn("Host departures unavailable, polling only", zap.String("room", m.code), zap.Error(err))
			} else {
				hostCh = sub.Changes()
				closers = append(closers, sub.Close)
			}
		}
	}

	if m.bus != nil {
		sub, err := m.bus.Subscribe(ctx, m.code)
		if err != nil {
			zap.L().Warn("Room broadcasts unavailable, polling only", zap.String("room", m.code), zap.Error(err))
		} else {
			busCh = sub.Messages()
			closers = append(closers, sub.Close)
		}
	}

	release := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zap.L().Debug("Failed to release subscription", zap.String("room", m.code), zap.Error(err))
			}
		}
	}
	return roomCh, hostCh, busCh, release
}

// applyRoom moves the state forward from a room snapshot. A higher round
// number means a new round even when the subject repeats.
func (m *Machine) applyRoom(room domain.Room) {
	room.CurrentSubject = nil
	m.room = room

	switch {
	case room.Status == domain.StatusFinished:
		m.close(ReasonFinished)
	case room.Status == domain.StatusPlaying && room.RoundNumber > m.round:
		m.round = room.RoundNumber
		m.role = nil
		m.subject = nil
		m.results = nil
		m.banner = ""
		m.state = StateRoleHidden
	}
}

func (m *Machine) onRoomChange(ctx context.Context, change domain.RowChange) {
	var room domain.Room
	if err := json.Unmarshal(change.Row, &room); err != nil {
		zap.L().Debug("Undecodable room change, polling instead", zap.String("room", m.code), zap.Error(err))
		m.poll(ctx)
		return
	}
	m.applyRoom(room)
}

func (m *Machine) onHostLeft(ctx context.Context) {
	if m.isHost {
		return
	}
	zap.L().Info("Host left, closing room", zap.String("room", m.code))

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()
	if err := m.backend.CloseRoom(callCtx, m.code); err != nil && !domain.IsTerminal(err) {
		zap.L().Warn("Failed to close room after host left", zap.String("room", m.code), zap.Error(err))
	}
	m.close(ReasonHostLeft)
}

func (m *Machine) onBroadcast(ctx context.Context, msg domain.Broadcast) {
	switch msg.Type {
	case domain.EventRoundStarted:
		m.poll(ctx)
	case domain.EventShowResults:
		var results domain.RoundResults
		if err := json.Unmarshal(msg.Content, &results); err != nil {
			zap.L().Warn("Malformed results broadcast", zap.String("room", m.code), zap.Error(err))
			return
		}
		if results.RoundNumber < m.round {
			return
		}
		if results.RoundNumber > m.round {
			m.poll(ctx)
		}
		m.results = &results
		m.state = StateResultsShown
	case domain.EventRoomClosed:
		m.close(ReasonEnded)
	}
}

// poll is the fallback for every realtime path: room status, round number and
// host presence.
func (m *Machine) poll(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	room, err := m.backend.GetRoom(callCtx, m.code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.close(ReasonNotFound)
			return
		}
		zap.L().Debug("Poll failed", zap.String("room", m.code), zap.Error(err))
		return
	}
	m.applyRoom(room)
	if m.state == StateClosed || m.isHost || room.HostUserID == "" {
		return
	}

	players, err := m.backend.ListPlayers(callCtx, m.code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.close(ReasonNotFound)
		}
		return
	}
	present := false
	for _, p := range players {
		if p.UserID == room.HostUserID {
			present = true
			break
		}
	}
	switch {
	case present:
		m.hostSeen = true
	case m.hostSeen:
		m.onHostLeft(ctx)
	}
}

func (m *Machine) handle(ctx context.Context, a action) error {
	var err error
	switch a {
	case actReveal:
		err = m.reveal(ctx)
	case actHide:
		err = m.hide()
	case actStartRound:
		err = m.startRound(ctx, StateWaiting)
	case actNewRound:
		err = m.startRound(ctx, StateResultsShown)
	case actShowResults:
		err = m.showResults(ctx)
	case actLeave:
		if m.isHost {
			err = m.end(ctx)
		} else {
			err = m.leave(ctx)
		}
	case actEnd:
		err = m.end(ctx)
	default:
		err = fmt.Errorf("%w: unknown action %q", ErrInvalidAction, a)
	}

	switch {
	case err == nil:
		m.banner = ""
	case domain.IsTerminal(err):
		m.close(closeReasonFor(err))
	case errors.Is(err, ErrInvalidAction), errors.Is(err, domain.ErrForbidden):
	default:
		m.banner = fmt.Sprintf("Could not %s: %v. Please try again.", a, err)
	}
	return err
}

func (m *Machine) requireState(a action, allowed ...State) error {
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidAction, a, m.state)
}

func (m *Machine) requireHost(a action) error {
	if !m.isHost {
		return fmt.Errorf("%w: only the host can %s", domain.ErrForbidden, a)
	}
	return nil
}

func (m *Machine) reveal(ctx context.Context) error {
	if err := m.requireState(actReveal, StateRoleHidden, StateRoleRevealed); err != nil {
		return err
	}
	if m.role != nil {
		m.state = StateRoleRevealed
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	session, err := m.backend.GetRole(callCtx, m.code, m.number)
	if err != nil {
		// A missing session means the slot was not dealt into this round,
		// not that the room is gone.
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: no role dealt to player %d", domain.ErrBackend, m.number)
		}
		return err
	}

	var subject *domain.Subject
	if !session.IsImpostor {
		room, err := m.backend.GetRoom(callCtx, m.code)
		if err != nil {
			return err
		}
		if room.CurrentSubject != nil && room.CurrentSubject.ID == session.SubjectID {
			subject = room.CurrentSubject
		}
	}

	m.role = &session
	m.subject = subject
	m.state = StateRoleRevealed
	return nil
}

func (m *Machine) hide() error {
	if err := m.requireState(actHide, StateRoleHidden, StateRoleRevealed); err != nil {
		return err
	}
	m.state = StateRoleHidden
	return nil
}

func (m *Machine) startRound(ctx context.Context, from State) error {
	a := actStartRound
	if from == StateResultsShown {
		a = actNewRound
	}
	if err := m.requireHost(a); err != nil {
		return err
	}
	if err := m.requireState(a, from); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	round, err := m.backend.StartSeatedRound(callCtx, m.code, m.room.NumImpostors)
	if err != nil {
		return err
	}
	m.applyRoom(round.Room)

	if m.bus != nil {
		payload := map[string]int{"round_number": round.Room.RoundNumber}
		if err := m.bus.Broadcast(callCtx, m.code, domain.EventRoundStarted, payload); err != nil {
			zap.L().Warn("Failed to broadcast round start", zap.String("room", m.code), zap.Error(err))
		}
	}
	return nil
}

func (m *Machine) showResults(ctx context.Context) error {
	if err := m.requireHost(actShowResults); err != nil {
		return err
	}
	if err := m.requireState(actShowResults, StateRoleHidden, StateRoleRevealed); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	results, err := m.backend.Results(callCtx, m.code)
	if err != nil {
		return err
	}
	if m.bus != nil {
		if err := m.bus.Broadcast(callCtx, m.code, domain.EventShowResults, results); err != nil {
			zap.L().Warn("Failed to broadcast results", zap.String("room", m.code), zap.Error(err))
		}
	}
	m.results = &results
	m.state = StateResultsShown
	return nil
}

func (m *Machine) leave(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	if err := m.backend.Leave(callCtx, m.code, m.userID); err != nil {
		return err
	}
	m.close(ReasonLeft)
	return nil
}

// end removes the host from the roster, which other clients treat as the room
// ending, then closes the room and announces it.
func (m *Machine) end(ctx context.Context) error {
	if err := m.requireHost(actEnd); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	if err := m.backend.Leave(callCtx, m.code, m.userID); err != nil {
		return err
	}
	if err := m.backend.CloseRoom(callCtx, m.code); err != nil && !domain.IsTerminal(err) {
		zap.L().Warn("Failed to close room", zap.String("room", m.code), zap.Error(err))
	}
	if m.bus != nil {
		if err := m.bus.Broadcast(callCtx, m.code, domain.EventRoomClosed, map[string]string{"reason": ReasonEnded}); err != nil {
			zap.L().Warn("Failed to broadcast room close", zap.String("room", m.code), zap.Error(err))
		}
	}
	m.close(ReasonEnded)
	return nil
}

func (m *Machine) close(reason string) {
	if m.state == StateClosed {
		return
	}
	m.state = StateClosed
	m.closeReason = reason
	zap.L().Info("Game session closed", zap.String("room", m.code), zap.String("reason", reason))
}

func closeReasonFor(err error) string {
	if errors.Is(err, domain.ErrGameOver) {
		return ReasonFinished
	}
	return ReasonNotFound
}

func (m *Machine) publish() {
	v := View{
		State:        m.state,
		RoomCode:     m.code,
		PlayerNumber: m.number,
		IsHost:       m.isHost,
		Room:         m.room,
		Role:         m.role,
		Results:      m.results,
		Error:        m.banner,
		CloseReason:  m.closeReason,
	}
	if m.state == StateRoleRevealed {
		v.Subject = m.subject
	}

	m.mu.Lock()
	changed := !sameView(m.view, v)
	m.view = v
	m.mu.Unlock()
	if !changed {
		return
	}

	select {
	case m.updates <- v:
	default:
		select {
		case <-m.updates:
		default:
		}
		select {
		case m.updates <- v:
		default:
		}
	}
}

func sameView(a, b View) bool {
	return a.State == b.State &&
		a.PlayerNumber == b.PlayerNumber &&
		a.Room.Status == b.Room.Status &&
		a.Room.RoundNumber == b.Room.RoundNumber &&
		a.Room.NumImpostors == b.Room.NumImpostors &&
		a.Role == b.Role &&
		a.Subject == b.Subject &&
		a.Results == b.Results &&
		a.Error == b.Error &&
		a.CloseReason == b.CloseReason
}

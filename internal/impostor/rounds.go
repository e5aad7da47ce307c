package impostor

import (
	"context"
	"fmt"
	"sort"

	"impostor-service/domain"
)

// StartRound draws a subject not yet used in the room, deals numImpostors
// impostor roles over player numbers 1..numPlayers and persists one session
// per number.
func (s *Service) StartRound(ctx context.Context, code string, numPlayers, numImpostors int) (domain.Round, error) {
	if numPlayers < 1 {
		return domain.Round{}, fmt.Errorf("%w: a round needs at least one player", domain.ErrInvalidInput)
	}
	numbers := make([]int, numPlayers)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return s.deal(ctx, code, numbers, numImpostors)
}

// StartSeatedRound deals the round over the player numbers currently in the
// roster, so a seat vacated by a leave gets no session.
func (s *Service) StartSeatedRound(ctx context.Context, code string, numImpostors int) (domain.Round, error) {
	players, err := s.ListPlayers(ctx, code)
	if err != nil {
		return domain.Round{}, err
	}
	if len(players) == 0 {
		return domain.Round{}, fmt.Errorf("%w: a round needs at least one player", domain.ErrInvalidInput)
	}
	numbers := make([]int, len(players))
	for i, p := range players {
		numbers[i] = p.PlayerNumber
	}
	sort.Ints(numbers)
	return s.deal(ctx, code, numbers, numImpostors)
}

func (s *Service) deal(ctx context.Context, code string, numbers []int, numImpostors int) (domain.Round, error) {
	if numImpostors < 1 || numImpostors > MaxImpostors(len(numbers)) {
		return domain.Round{}, fmt.Errorf("%w: %d impostors is out of range for %d players",
			domain.ErrInvalidInput, numImpostors, len(numbers))
	}

	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return domain.Round{}, err
	}
	if room.Status == domain.StatusFinished {
		return domain.Round{}, fmt.Errorf("%w: room %s is closed", domain.ErrGameOver, code)
	}

	subject, err := s.pickSubject(ctx, code)
	if err != nil {
		return domain.Round{}, err
	}

	roles := s.assignRoles(len(numbers), numImpostors)
	sessions := make([]domain.RoundSession, len(roles))
	for i, impostor := range roles {
		sessions[i] = domain.RoundSession{
			RoomCode:     code,
			PlayerNumber: numbers[i],
			IsImpostor:   impostor,
			SubjectID:    subject.ID,
		}
	}

	room, err = s.repo.BeginRound(ctx, code, subject.ID, sessions)
	if err != nil {
		return domain.Round{}, err
	}
	room.CurrentSubject = &subject

	return domain.Round{Room: room, Subject: subject, PlayerNumbers: numbers, Roles: roles}, nil
}

// pickSubject draws uniformly from the subjects the room has not seen, or
// from the whole pool once the room has seen them all.
func (s *Service) pickSubject(ctx context.Context, code string) (domain.Subject, error) {
	pool, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return domain.Subject{}, err
	}
	if len(pool) == 0 {
		return domain.Subject{}, domain.ErrNoSubjects
	}

	used, err := s.repo.UsedSubjectIDs(ctx, code)
	if err != nil {
		return domain.Subject{}, err
	}
	seen := make(map[int64]bool, len(used))
	for _, id := range used {
		seen[id] = true
	}

	candidates := make([]domain.Subject, 0, len(pool))
	for _, subject := range pool {
		if !seen[subject.ID] {
			candidates = append(candidates, subject)
		}
	}
	if len(candidates) == 0 {
		candidates = pool
	}
	return candidates[s.intn(len(candidates))], nil
}

// assignRoles marks k distinct positions out of n by rejection sampling.
func (s *Service) assignRoles(n, k int) []bool {
	roles := make([]bool, n)
	for chosen := 0; chosen < k; {
		i := s.intn(n)
		if roles[i] {
			continue
		}
		roles[i] = true
		chosen++
	}
	return roles
}

// GetRole returns the most recent session of a player slot.
func (s *Service) GetRole(ctx context.Context, code string, playerNumber int) (domain.RoundSession, error) {
	if !ValidCode(code) {
		return domain.RoundSession{}, fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	if playerNumber < 1 {
		return domain.RoundSession{}, fmt.Errorf("%w: player number must be positive", domain.ErrInvalidInput)
	}
	return s.repo.LatestSession(ctx, code, playerNumber)
}

// GetSessions returns every session row of the room ordered by player number.
// Rows of earlier rounds are included; Results filters to the current one.
func (s *Service) GetSessions(ctx context.Context, code string) ([]domain.RoundSession, error) {
	if !ValidCode(code) {
		return nil, fmt.Errorf("%w: malformed room code", domain.ErrNotFound)
	}
	return s.repo.ListSessions(ctx, code)
}

// Results reports the subject and impostors of the room's current round.
func (s *Service) Results(ctx context.Context, code string) (domain.RoundResults, error) {
	room, err := s.GetRoom(ctx, code)
	if err != nil {
		return domain.RoundResults{}, err
	}
	if room.CurrentSubjectID == nil || room.CurrentSubject == nil {
		return domain.RoundResults{}, fmt.Errorf("%w: room %s has not started a round", domain.ErrNotFound, code)
	}

	sessions, err := s.repo.ListSessions(ctx, code)
	if err != nil {
		return domain.RoundResults{}, err
	}
	players, err := s.repo.ListPlayers(ctx, code)
	if err != nil {
		return domain.RoundResults{}, err
	}
	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.PlayerNumber] = p.DisplayName
	}

	// ListSessions may hold several rows per slot across rounds; keep the
	// latest row of the current subject.
	latest := make(map[int]domain.RoundSession)
	for _, session := range sessions {
		if session.SubjectID != *room.CurrentSubjectID {
			continue
		}
		if prev, ok := latest[session.PlayerNumber]; !ok || session.ID > prev.ID {
			latest[session.PlayerNumber] = session
		}
	}

	impostors := []domain.Impostor{}
	for number, session := range latest {
		if session.IsImpostor {
			impostors = append(impostors, domain.Impostor{PlayerNumber: number, DisplayName: names[number]})
		}
	}
	sort.Slice(impostors, func(i, j int) bool { return impostors[i].PlayerNumber < impostors[j].PlayerNumber })

	return domain.RoundResults{
		RoundNumber: room.RoundNumber,
		Subject:     *room.CurrentSubject,
		Impostors:   impostors,
	}, nil
}

package httpUsecase

import (
	"context"
	"fmt"
	"net/http"

	"impostor-service/domain"
)

type RoundStarted struct {
	RoundNumber  int `json:"round_number"`
	NumPlayers   int `json:"num_players"`
	NumImpostors int `json:"num_impostors"`
}

type StartRoundUseCase interface {
	// Execute starts a round. Without numPlayers the roles go to the seated
	// players only; a zero numImpostors falls back to the room's setting.
	Execute(ctx context.Context, code, userID string, numPlayers, numImpostors int) (RoundStarted, int, error)
}

type startRoundUseCase struct {
	service RoomService
	bus     Broadcaster
	events  EventPublisher
}

func NewStartRoundUseCase(service RoomService, bus Broadcaster, events EventPublisher) StartRoundUseCase {
	return &startRoundUseCase{service: service, bus: bus, events: events}
}

func (u *startRoundUseCase) Execute(ctx context.Context, code, userID string, numPlayers, numImpostors int) (RoundStarted, int, error) {
	room, err := requireHost(ctx, u.service, code, userID)
	if err != nil {
		return RoundStarted{}, statusFor(err), err
	}

	if numImpostors == 0 {
		numImpostors = room.NumImpostors
	}

	var round domain.Round
	if numPlayers == 0 {
		round, err = u.service.StartSeatedRound(ctx, code, numImpostors)
	} else {
		round, err = u.service.StartRound(ctx, code, numPlayers, numImpostors)
	}
	if err != nil {
		return RoundStarted{}, statusFor(err), err
	}

	started := RoundStarted{
		RoundNumber:  round.Room.RoundNumber,
		NumPlayers:   len(round.Roles),
		NumImpostors: numImpostors,
	}
	notify(u.bus, u.events, code, domain.EventRoundStarted, domain.EventRoundStarted, started)
	return started, http.StatusCreated, nil
}

type RoleView struct {
	Session domain.RoundSession `json:"session"`
	Subject *domain.Subject     `json:"subject,omitempty"`
}

type GetRoleUseCase interface {
	Execute(ctx context.Context, code, userID string, playerNumber int) (RoleView, int, error)
}

type getRoleUseCase struct {
	service RoomService
}

func NewGetRoleUseCase(service RoomService) GetRoleUseCase {
	return &getRoleUseCase{service: service}
}

// Execute only serves the seat the caller holds and withholds the subject
// from impostors.
func (u *getRoleUseCase) Execute(ctx context.Context, code, userID string, playerNumber int) (RoleView, int, error) {
	players, err := u.service.ListPlayers(ctx, code)
	if err != nil {
		return RoleView{}, statusFor(err), err
	}
	seated := false
	for _, p := range players {
		if p.UserID == userID && p.PlayerNumber == playerNumber {
			seated = true
			break
		}
	}
	if !seated {
		err := fmt.Errorf("%w: player %d is not yours", domain.ErrForbidden, playerNumber)
		return RoleView{}, statusFor(err), err
	}

	session, err := u.service.GetRole(ctx, code, playerNumber)
	if err != nil {
		return RoleView{}, statusFor(err), err
	}
	view := RoleView{Session: session}
	if session.IsImpostor {
		return view, http.StatusOK, nil
	}

	room, err := u.service.GetRoom(ctx, code)
	if err != nil {
		return RoleView{}, statusFor(err), err
	}
	if room.CurrentSubject != nil && room.CurrentSubject.ID == session.SubjectID {
		view.Subject = room.CurrentSubject
	}
	return view, http.StatusOK, nil
}

type GetSessionsUseCase interface {
	Execute(ctx context.Context, code, userID string) ([]domain.RoundSession, int, error)
}

type getSessionsUseCase struct {
	service RoomService
}

func NewGetSessionsUseCase(service RoomService) GetSessionsUseCase {
	return &getSessionsUseCase{service: service}
}

// Execute lists every dealt role, so only the host may call it.
func (u *getSessionsUseCase) Execute(ctx context.Context, code, userID string) ([]domain.RoundSession, int, error) {
	if _, err := requireHost(ctx, u.service, code, userID); err != nil {
		return nil, statusFor(err), err
	}
	sessions, err := u.service.GetSessions(ctx, code)
	if err != nil {
		return nil, statusFor(err), err
	}
	return sessions, http.StatusOK, nil
}

type ShowResultsUseCase interface {
	Execute(ctx context.Context, code, userID string) (domain.RoundResults, int, error)
}

type showResultsUseCase struct {
	service RoomService
	bus     Broadcaster
}

func NewShowResultsUseCase(service RoomService, bus Broadcaster) ShowResultsUseCase {
	return &showResultsUseCase{service: service, bus: bus}
}

func (u *showResultsUseCase) Execute(ctx context.Context, code, userID string) (domain.RoundResults, int, error) {
	room, err := requireHost(ctx, u.service, code, userID)
	if err != nil {
		return domain.RoundResults{}, statusFor(err), err
	}
	if room.Status != domain.StatusPlaying {
		err := fmt.Errorf("%w: room %s is not playing", domain.ErrConflict, code)
		return domain.RoundResults{}, statusFor(err), err
	}

	results, err := u.service.Results(ctx, code)
	if err != nil {
		return domain.RoundResults{}, statusFor(err), err
	}
	notify(u.bus, nil, code, domain.EventShowResults, "", results)
	return results, http.StatusOK, nil
}

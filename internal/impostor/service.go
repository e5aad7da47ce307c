// Package impostor implements room, roster and round coordination for the
// Impostor party game.
package impostor

import (
	"math/rand"
	"sync"
	"time"
)

const (
	DefaultMinPlayers = 4
	DefaultMaxPlayers = 20

	maxImpostorsCap = 4
	maxDisplayName  = 32
	joinAttempts    = 8
)

type Limits struct {
	MinPlayers int
	MaxPlayers int
}

type Service struct {
	repo    Repository
	limits  Limits
	newCode func() (string, error)

	mu  sync.Mutex
	rnd *rand.Rand
}

type Option func(*Service)

func WithLimits(l Limits) Option {
	return func(s *Service) {
		if l.MinPlayers > 0 {
			s.limits.MinPlayers = l.MinPlayers
		}
		if l.MaxPlayers > 0 {
			s.limits.MaxPlayers = l.MaxPlayers
		}
	}
}

// WithRand makes subject choice and role assignment deterministic.
func WithRand(r *rand.Rand) Option {
	return func(s *Service) { s.rnd = r }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		limits: Limits{
			MinPlayers: DefaultMinPlayers,
			MaxPlayers: DefaultMaxPlayers,
		},
		newCode: GenerateCode,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Limits() Limits {
	return s.limits
}

// MaxImpostors is the largest impostor count allowed for n player slots.
func MaxImpostors(n int) int {
	return min(maxImpostorsCap, n/2-1)
}

func (s *Service) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

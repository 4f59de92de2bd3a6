package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps a gorm DB instance and provides helper methods for the
// game and position banks. A nil Store is valid and degrades every
// operation to ErrEmptyBank or a no-op, so callers never branch on it.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrEmptyBank is returned when a random draw finds no rows to serve.
var ErrEmptyBank = errors.New("no rounds available")

// RandomGame draws one game uniformly from the bank.
func (s *Store) RandomGame(ctx context.Context) (Game, error) {
	var game Game
	if s == nil {
		return game, ErrEmptyBank
	}
	err := s.db.WithContext(ctx).Order("random()").First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game, ErrEmptyBank
	}
	return game, err
}

// RandomGames draws n games for a room's preloaded rounds. Fewer rows
// than requested is an error: a room must have all its rounds up front.
func (s *Store) RandomGames(ctx context.Context, n int) ([]Game, error) {
	if s == nil {
		return nil, ErrEmptyBank
	}
	var games []Game
	if err := s.db.WithContext(ctx).Order("random()").Limit(n).Find(&games).Error; err != nil {
		return nil, err
	}
	if len(games) < n {
		return nil, ErrEmptyBank
	}
	return games, nil
}

// RandomPosition draws one position uniformly from the bank.
func (s *Store) RandomPosition(ctx context.Context) (Position, error) {
	var pos Position
	if s == nil {
		return pos, ErrEmptyBank
	}
	err := s.db.WithContext(ctx).Order("random()").First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pos, ErrEmptyBank
	}
	return pos, err
}

// RandomPositions draws n positions for a room's preloaded rounds.
func (s *Store) RandomPositions(ctx context.Context, n int) ([]Position, error) {
	if s == nil {
		return nil, ErrEmptyBank
	}
	var positions []Position
	if err := s.db.WithContext(ctx).Order("random()").Limit(n).Find(&positions).Error; err != nil {
		return nil, err
	}
	if len(positions) < n {
		return nil, ErrEmptyBank
	}
	return positions, nil
}

// AddGame inserts a bank game, skipping an exact id collision.
func (s *Store) AddGame(ctx context.Context, game Game) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&game).Error
}

// AddPosition inserts a bank position.
func (s *Store) AddPosition(ctx context.Context, pos Position) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&pos).Error
}

// UnevaluatedPositions lists bank positions still waiting for an
// engine verdict.
func (s *Store) UnevaluatedPositions(ctx context.Context, limit int) ([]Position, error) {
	if s == nil {
		return nil, nil
	}
	var positions []Position
	err := s.db.WithContext(ctx).
		Where("evaluation = 0 AND best_move = ''").
		Limit(limit).
		Find(&positions).Error
	return positions, err
}

// SetPositionEvaluation stores the engine's verdict for a position.
func (s *Store) SetPositionEvaluation(ctx context.Context, id uuid.UUID, pawns float64, bestMove string) error {
	if s == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Position{}).Where("id = ?", id).
		Updates(map[string]any{"evaluation": pawns, "best_move": bestMove}).Error
}

// SaveRoomResult persists a finished room and its final leaderboard.
// Entries arrive already ranked.
func (s *Store) SaveRoomResult(ctx context.Context, code, kind string, numRounds int, createdAt time.Time, names []string, scores []int) error {
	if s == nil {
		return nil
	}
	summary := RoomSummary{
		ID:         uuid.New(),
		Code:       code,
		Kind:       kind,
		NumRounds:  numRounds,
		NumPlayers: len(names),
		CreatedAt:  createdAt,
		FinishedAt: time.Now(),
	}
	for i, name := range names {
		summary.Results = append(summary.Results, PlayerResult{
			RoomSummaryID: summary.ID,
			PlayerName:    name,
			Score:         scores[i],
			Rank:          i + 1,
		})
	}
	return s.db.WithContext(ctx).Create(&summary).Error
}

// Stats aggregates bank and play counts for the landing page.
type Stats struct {
	Games       int64 `json:"games"`
	Positions   int64 `json:"positions"`
	RoomsPlayed int64 `json:"roomsPlayed"`
}

// FetchStats counts the banks and finished rooms.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Count(&stats.Games).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Position{}).Count(&stats.Positions).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&RoomSummary{}).Count(&stats.RoomsPlayed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

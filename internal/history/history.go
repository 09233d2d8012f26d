package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
)

// Match is one finished or aborted session.
type Match struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"size:8;index" json:"code"`
	Mode      string         `gorm:"size:16" json:"mode"`
	Outcome   string         `gorm:"size:16" json:"outcome"`
	AbortedIn string         `gorm:"size:16" json:"aborted_in,omitempty"`
	Rounds    int            `json:"rounds"`
	Replayed  bool           `json:"replayed"`
	Roster    datatypes.JSON `gorm:"type:jsonb" json:"roster"`
	CreatedAt time.Time      `json:"created_at"`
	EndedAt   time.Time      `gorm:"index" json:"ended_at"`
}

// RosterEntry is how a player is kept in Match.Roster.
type RosterEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host bool   `json:"host,omitempty"`
	Role string `json:"role,omitempty"`
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to Postgres through the pgx driver and migrates the schema.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm: %w", err)
	}
	if err := db.AutoMigrate(&Match{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return NewStore(db, log), nil
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}
}

func FromResult(r session.Result) (Match, error) {
	entries := make([]RosterEntry, len(r.Players))
	for i, p := range r.Players {
		entries[i] = RosterEntry{ID: p.Identity.ID, Name: p.Identity.Name, Host: p.Host, Role: string(p.Role)}
	}
	roster, err := json.Marshal(entries)
	if err != nil {
		return Match{}, err
	}
	return Match{
		Code:      r.Code,
		Mode:      string(r.Mode),
		Outcome:   string(r.Outcome),
		AbortedIn: string(r.AbortedIn),
		Rounds:    r.Rounds,
		Replayed:  r.Replayed,
		Roster:    datatypes.JSON(roster),
		CreatedAt: r.CreatedAt,
		EndedAt:   r.EndedAt,
	}, nil
}

// Record stores the result of a session.
func (s *Store) Record(ctx context.Context, r session.Result) error {
	m, err := FromResult(r)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("record match %s: %w", r.Code, err)
	}
	s.log.Debug("match recorded", zap.Uint("id", m.ID), zap.String("code", m.Code), zap.String("outcome", m.Outcome))
	return nil
}

// Recent returns up to limit matches, newest first. An empty mode matches
// every mode.
func (s *Store) Recent(ctx context.Context, mode engine.Mode, limit int) ([]Match, error) {
	q := s.db.WithContext(ctx).Order("ended_at DESC").Limit(limit)
	if mode != "" {
		q = q.Where("mode = ?", string(mode))
	}
	var out []Match
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("recent matches: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Package storage persists evaluation results in SQLite via GORM.
package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scrutinium/scrutinium/internal/domain"
	"github.com/scrutinium/scrutinium/internal/ports"
)

// ErrNotFound is returned when no stored result matches the lookup key.
var ErrNotFound = errors.New("result not found")

// resultJSON stores a domain.EvaluationResult as a JSON text column,
// handling its own serialization for the database.
type resultJSON domain.EvaluationResult

func (resultJSON) GormDataType() string {
	return "text"
}

// Value implements the driver.Valuer interface.
func (r resultJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(domain.EvaluationResult(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface.
func (r *resultJSON) Scan(value any) error {
	if value == nil {
		*r = resultJSON{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSON value: %T", value)
	}

	if len(bytes) == 0 {
		*r = resultJSON{}
		return nil
	}
	return json.Unmarshal(bytes, (*domain.EvaluationResult)(r))
}

// benchmarkRecord is the GORM model for a persisted evaluation.
// The SCID primary key auto-increments, giving each evaluation a
// short sequential identifier alongside its random share id.
type benchmarkRecord struct {
	SCID      uint       `gorm:"primaryKey;autoIncrement;column:scid"`
	ShareID   string     `gorm:"uniqueIndex;size:36;column:share_id"`
	Result    resultJSON `gorm:"column:result"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (benchmarkRecord) TableName() string { return "benchmarks" }

func (rec benchmarkRecord) toStored() ports.StoredResult {
	return ports.StoredResult{
		SCID:             rec.SCID,
		ShareID:          rec.ShareID,
		EvaluationResult: domain.EvaluationResult(rec.Result),
	}
}

// SQLiteStore implements ports.ResultStore on a SQLite database using
// the pure-Go glebarez driver, so no cgo is required.
type SQLiteStore struct {
	db *gorm.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path and
// migrates the benchmark schema. Use ":memory:" for an in-memory store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}
	if err := db.AutoMigrate(&benchmarkRecord{}); err != nil {
		return nil, fmt.Errorf("migrate benchmark schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save persists a result, assigning a fresh SCID and share id.
func (s *SQLiteStore) Save(
	ctx context.Context, result domain.EvaluationResult,
) (ports.StoredResult, error) {
	rec := benchmarkRecord{
		ShareID:   uuid.NewString(),
		Result:    resultJSON(result),
		CreatedAt: result.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return ports.StoredResult{}, fmt.Errorf("save result: %w", err)
	}
	return rec.toStored(), nil
}

// Get retrieves a result by its SCID.
func (s *SQLiteStore) Get(ctx context.Context, scid uint) (ports.StoredResult, error) {
	var rec benchmarkRecord
	err := s.db.WithContext(ctx).First(&rec, "scid = ?", scid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.StoredResult{}, fmt.Errorf("scid %d: %w", scid, ErrNotFound)
	}
	if err != nil {
		return ports.StoredResult{}, fmt.Errorf("get result %d: %w", scid, err)
	}
	return rec.toStored(), nil
}

// GetByShareID retrieves a result by its public share identifier.
func (s *SQLiteStore) GetByShareID(
	ctx context.Context, shareID string,
) (ports.StoredResult, error) {
	var rec benchmarkRecord
	err := s.db.WithContext(ctx).First(&rec, "share_id = ?", shareID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.StoredResult{}, fmt.Errorf("share id %q: %w", shareID, ErrNotFound)
	}
	if err != nil {
		return ports.StoredResult{}, fmt.Errorf("get result by share id: %w", err)
	}
	return rec.toStored(), nil
}

// List returns all stored results, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]ports.StoredResult, error) {
	var recs []benchmarkRecord
	if err := s.db.WithContext(ctx).Order("scid DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	stored := make([]ports.StoredResult, 0, len(recs))
	for _, rec := range recs {
		stored = append(stored, rec.toStored())
	}
	return stored, nil
}

// Delete removes a result by its SCID. Deleting a missing SCID
// returns ErrNotFound.
func (s *SQLiteStore) Delete(ctx context.Context, scid uint) error {
	res := s.db.WithContext(ctx).Delete(&benchmarkRecord{}, "scid = ?", scid)
	if res.Error != nil {
		return fmt.Errorf("delete result %d: %w", scid, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("scid %d: %w", scid, ErrNotFound)
	}
	return nil
}

// Compile-time verification that SQLiteStore implements ResultStore.
var _ ports.ResultStore = (*SQLiteStore)(nil)

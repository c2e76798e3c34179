package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmonizer/internal/models"
)

// ErrNotFound means no harmonization matches the id (for this caller)
var ErrNotFound = errors.New("harmonization not found")

const defaultListLimit = 50

// RecordMeta is the request context stored alongside a result
type RecordMeta struct {
	Subject   string
	RequestID string
	Duration  time.Duration
}

// Store persists harmonization results
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save stores result and returns the record written. A result without an ID
// gets a fresh one.
func (s *Store) Save(ctx context.Context, result *models.HarmonizeResult, meta RecordMeta) (*models.Harmonization, error) {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	record := &models.Harmonization{
		ID:         result.ID,
		Subject:    meta.Subject,
		RequestID:  meta.RequestID,
		Style:      result.Style,
		Complexity: result.Complexity,
		Key:        result.Analysis.Key,
		Chords:     len(result.Voicings),
		Unresolved: result.UnresolvedCount(),
		DurationMS: int(meta.Duration.Milliseconds()),
		Result:     string(body),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save harmonization: %w", err)
	}
	return record, nil
}

// List returns the most recent records, newest first. A non-empty subject
// restricts the list to that caller.
func (s *Store) List(ctx context.Context, subject string, limit int) ([]models.Harmonization, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}

	var records []models.Harmonization
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list harmonizations: %w", err)
	}
	return records, nil
}

// Get loads a record and its decoded result
func (s *Store) Get(ctx context.Context, id, subject string) (*models.Harmonization, *models.HarmonizeResult, error) {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}

	var record models.Harmonization
	if err := q.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load harmonization: %w", err)
	}

	var result models.HarmonizeResult
	if err := json.Unmarshal([]byte(record.Result), &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode harmonization %s: %w", id, err)
	}
	return &record, &result, nil
}

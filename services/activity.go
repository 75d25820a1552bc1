package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"venuepulse/models"
)

// ActivityFilter narrows an activity listing. Zero values mean "any".
type ActivityFilter struct {
	SessionID  string
	OperatorID string
	Kind       models.ActivityKind
	Page       int
	PageSize   int
}

// ActivityStore is the append-only log of operator actions. Records are
// never mutated or deleted.
type ActivityStore interface {
	Append(ctx context.Context, event *models.ActivityEvent) error
	List(ctx context.Context, filter ActivityFilter) ([]models.ActivityEvent, int64, error)
}

// GormActivityStore persists activity events in Postgres.
type GormActivityStore struct {
	db *gorm.DB
}

func NewGormActivityStore(db *gorm.DB) *GormActivityStore {
	return &GormActivityStore{db: db}
}

func (s *GormActivityStore) Append(ctx context.Context, event *models.ActivityEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(event).Error
}

func (s *GormActivityStore) List(ctx context.Context, filter ActivityFilter) ([]models.ActivityEvent, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ActivityEvent{})

	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.OperatorID != "" {
		query = query.Where("operator_id = ?", filter.OperatorID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	var events []models.ActivityEvent
	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// MemoryActivityStore is the in-memory ActivityStore used by handler tests.
type MemoryActivityStore struct {
	mu     sync.RWMutex
	events []models.ActivityEvent
}

func NewMemoryActivityStore() *MemoryActivityStore {
	return &MemoryActivityStore{}
}

func (s *MemoryActivityStore) Append(ctx context.Context, event *models.ActivityEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.events = append(s.events, *event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryActivityStore) List(ctx context.Context, filter ActivityFilter) ([]models.ActivityEvent, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.ActivityEvent
	// Newest first, matching the Postgres ordering.
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		if filter.OperatorID != "" && e.OperatorID != filter.OperatorID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		matched = append(matched, e)
	}

	total := int64(len(matched))
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []models.ActivityEvent{}, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

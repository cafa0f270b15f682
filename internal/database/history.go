package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// HistoryEventType represents the type of history event.
type HistoryEventType string

const (
	// HistoryEventSignIn indicates a user signed in.
	HistoryEventSignIn HistoryEventType = "sign_in"
	// HistoryEventSignUp indicates a new account was registered.
	HistoryEventSignUp HistoryEventType = "sign_up"
	// HistoryEventSignOut indicates a session ended.
	HistoryEventSignOut HistoryEventType = "sign_out"
	// HistoryEventUserCreated indicates an admin created a user.
	HistoryEventUserCreated HistoryEventType = "user_created"
	// HistoryEventUserDeleted indicates an admin deleted a user.
	HistoryEventUserDeleted HistoryEventType = "user_deleted"
	// HistoryEventProfileUpdated indicates a user changed their profile.
	HistoryEventProfileUpdated HistoryEventType = "profile_updated"
	// HistoryEventDepositRequested indicates a deposit form was submitted.
	HistoryEventDepositRequested HistoryEventType = "deposit_requested"
	// HistoryEventWithdrawalRequested indicates a withdrawal form was submitted.
	HistoryEventWithdrawalRequested HistoryEventType = "withdrawal_requested"
)

// HistoryEvent is a local audit record of an action taken through minedash.
type HistoryEvent struct {
	gorm.Model
	// Event type
	EventType HistoryEventType `gorm:"not null;index"`
	// Strapi id of the user who triggered the event (0 for anonymous or system events)
	ActorID int `gorm:"index"`
	// Strapi id of the user the event is about, if any
	SubjectID *int `gorm:"index"`
	// Free text details, e.g. the logout reason
	Details string
	// Timestamp when the event occurred
	EventTime time.Time `gorm:"not null;index"`
}

// HistoryDB defines the interface for history-related database operations.
type HistoryDB interface {
	CreateHistoryEvent(ctx context.Context, event HistoryEvent) error
	GetHistoryEvents(ctx context.Context, page, pageSize int, sortBy string, sortOrder SortOrder) ([]HistoryEvent, int64, error)
	GetHistoryEventsByEventType(ctx context.Context, eventType HistoryEventType, page, pageSize int) ([]HistoryEvent, int64, error)
}

// CreateHistoryEvent creates a new history event.
func (c *Client) CreateHistoryEvent(ctx context.Context, event HistoryEvent) error {
	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}

	result := c.db.WithContext(ctx).Create(&event)
	if result.Error != nil {
		log.Error("failed to create history event", "error", result.Error)
		return result.Error
	}
	return nil
}

// GetHistoryEvents retrieves paginated history events. page is 1-based.
func (c *Client) GetHistoryEvents(ctx context.Context, page, pageSize int, sortBy string, sortOrder SortOrder) ([]HistoryEvent, int64, error) {
	var events []HistoryEvent
	var total int64

	if err := c.db.WithContext(ctx).
		Model(&HistoryEvent{}).
		Count(&total).Error; err != nil {
		log.Error("failed to count history events", "error", err)
		return nil, 0, err
	}

	validSortFields := map[string]string{
		"event_type": "event_type",
		"actor_id":   "actor_id",
		"subject_id": "subject_id",
		"event_time": "event_time",
	}
	sortField, ok := validSortFields[sortBy]
	if !ok {
		sortField = "event_time"
	}

	if sortOrder != SortOrderAsc && sortOrder != SortOrderDesc {
		sortOrder = SortOrderDesc
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	result := c.db.WithContext(ctx).
		Order(sortField + " " + string(sortOrder)).
		Order("id " + string(sortOrder)).
		Limit(pageSize).
		Offset(offset).
		Find(&events)

	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get history events", "error", result.Error)
		return nil, 0, result.Error
	}

	return events, total, nil
}

// GetHistoryEventsByEventType retrieves paginated history events of one type, newest first.
func (c *Client) GetHistoryEventsByEventType(ctx context.Context, eventType HistoryEventType, page, pageSize int) ([]HistoryEvent, int64, error) {
	var events []HistoryEvent
	var total int64

	query := c.db.WithContext(ctx).Model(&HistoryEvent{}).Where("event_type = ?", eventType)
	if err := query.Count(&total).Error; err != nil {
		log.Error("failed to count history events by type", "error", err)
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	result := c.db.WithContext(ctx).
		Where("event_type = ?", eventType).
		Order("event_time DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&events)

	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		log.Error("failed to get history events by type", "error", result.Error)
		return nil, 0, result.Error
	}

	return events, total, nil
}

// RecordEvent stores event. Failures are logged, not returned.
func RecordEvent(ctx context.Context, db HistoryDB, event HistoryEvent) {
	if db == nil {
		return
	}
	if err := db.CreateHistoryEvent(ctx, event); err != nil {
		log.Warn("Failed to record history event", "type", event.EventType, "actor", event.ActorID, "error", err)
	}
}

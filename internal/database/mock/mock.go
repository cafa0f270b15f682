package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/minecom/minedash/internal/database"
	"github.com/samber/lo"
)

var _ database.DB = (*MockDB)(nil)

// MockDB is an in-memory implementation of database.DB for testing.
type MockDB struct {
	mu     sync.RWMutex
	events []database.HistoryEvent
	nextID uint

	// Error simulation
	CreateHistoryEventError error
	GetHistoryEventsError   error
	GetStatsError           error
}

// NewMockDB creates an empty MockDB.
func NewMockDB() *MockDB {
	return &MockDB{nextID: 1}
}

// CreateHistoryEvent stores event.
func (m *MockDB) CreateHistoryEvent(_ context.Context, event database.HistoryEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateHistoryEventError != nil {
		return m.CreateHistoryEventError
	}
	if event.EventTime.IsZero() {
		event.EventTime = time.Now()
	}
	event.ID = m.nextID
	m.nextID++
	m.events = append(m.events, event)
	return nil
}

// GetHistoryEvents returns stored events newest first, ignoring the sort arguments.
func (m *MockDB) GetHistoryEvents(_ context.Context, page, pageSize int, _ string, _ database.SortOrder) ([]database.HistoryEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetHistoryEventsError != nil {
		return nil, 0, m.GetHistoryEventsError
	}
	return paginate(newestFirst(m.events), page, pageSize), int64(len(m.events)), nil
}

// GetHistoryEventsByEventType returns stored events of one type newest first.
func (m *MockDB) GetHistoryEventsByEventType(_ context.Context, eventType database.HistoryEventType, page, pageSize int) ([]database.HistoryEvent, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetHistoryEventsError != nil {
		return nil, 0, m.GetHistoryEventsError
	}
	filtered := lo.Filter(m.events, func(e database.HistoryEvent, _ int) bool { return e.EventType == eventType })
	return paginate(newestFirst(filtered), page, pageSize), int64(len(filtered)), nil
}

// GetStats counts the stored events.
func (m *MockDB) GetStats(_ context.Context) (*database.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetStatsError != nil {
		return nil, m.GetStatsError
	}
	stats := &database.Stats{
		HistoryEvents: int64(len(m.events)),
		ByType:        make(map[string]int64),
	}
	for _, e := range m.events {
		stats.ByType[string(e.EventType)]++
	}
	return stats, nil
}

// Close is a no-op.
func (m *MockDB) Close() error {
	return nil
}

// Events returns a copy of every stored event in insertion order.
func (m *MockDB) Events() []database.HistoryEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.events)
}

// EventTypes returns the type of every stored event in insertion order.
func (m *MockDB) EventTypes() []database.HistoryEventType {
	return lo.Map(m.Events(), func(e database.HistoryEvent, _ int) database.HistoryEventType { return e.EventType })
}

func newestFirst(events []database.HistoryEvent) []database.HistoryEvent {
	out := slices.Clone(events)
	slices.Reverse(out)
	return out
}

func paginate(events []database.HistoryEvent, page, pageSize int) []database.HistoryEvent {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(events) {
		return []database.HistoryEvent{}
	}
	end := min(start+pageSize, len(events))
	return events[start:end]
}

package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/order-intake/internal/domain"
)

// memSessions is an in-memory SessionStore with version checks
type memSessions struct {
	mu        sync.Mutex
	records   map[string]*domain.ConversationSession
	conflicts int
	saveErr   error
	saves     int
}

func newMemSessions() *memSessions {
	return &memSessions{records: make(map[string]*domain.ConversationSession)}
}

func (m *memSessions) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.records[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *memSessions) Save(ctx context.Context, session *domain.ConversationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.conflicts > 0 {
		m.conflicts--
		// another writer got there first
		stored := m.records[session.CustomerID]
		if stored == nil {
			stored = domain.NewIdleSession(session.CustomerID)
		} else {
			stored = stored.Clone()
		}
		stored.Version++
		m.records[session.CustomerID] = stored
		return domain.ErrVersionConflict
	}

	var current int64
	if stored, ok := m.records[session.CustomerID]; ok {
		current = stored.Version
	}
	if current != session.Version {
		return domain.ErrVersionConflict
	}
	session.Version++
	stored := session.Clone()
	stored.CustomerPhone = ""
	stored.Messages = nil
	m.records[session.CustomerID] = stored
	return nil
}

func (m *memSessions) get(customerID string) *domain.ConversationSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[customerID]
}

// MockRegistrationStore mocks the RegistrationStore interface
type MockRegistrationStore struct {
	mock.Mock
}

func (m *MockRegistrationStore) Get(ctx context.Context, customerID string) (*domain.Registration, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registration), args.Error(1)
}

func (m *MockRegistrationStore) Save(ctx context.Context, reg *domain.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

// MockOrderService mocks the OrderService interface
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderResult), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, phone string, limit int) ([]domain.OrderSummary, error) {
	args := m.Called(ctx, phone, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderSummary), args.Error(1)
}

func (m *MockOrderService) TrackOrder(ctx context.Context, phone, orderCode string) (*domain.OrderSummary, error) {
	args := m.Called(ctx, phone, orderCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderSummary), args.Error(1)
}

// MockSender mocks the Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, customerID string, reply domain.Reply) error {
	args := m.Called(ctx, customerID, reply)
	return args.Error(0)
}

// MockHistoryProvider mocks the HistoryProvider interface
type MockHistoryProvider struct {
	mock.Mock
}

func (m *MockHistoryProvider) FetchHistory(ctx context.Context, customerID string) ([]domain.HistoryMessage, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HistoryMessage), args.Error(1)
}

// MockMessageLog mocks the MessageLog interface
type MockMessageLog struct {
	mock.Mock
}

func (m *MockMessageLog) Append(ctx context.Context, msg *domain.HistoryMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageLog) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.HistoryMessage, error) {
	args := m.Called(ctx, customerID, limit)
	return args.Get(0).([]domain.HistoryMessage), args.Error(1)
}

// MockAssistant mocks the Assistant interface
type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Answer(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

// MockAuditSink mocks the AuditSink interface
type MockAuditSink struct {
	mock.Mock
}

func (m *MockAuditSink) Record(ctx context.Context, entry *domain.TurnAudit) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockRateLimiter mocks the RateLimiter interface
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

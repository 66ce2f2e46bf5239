package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/google/uuid"
)

// MockCategoryRepository is a mock implementation of domain.CategoryRepository.
// It enforces the (name, type) uniqueness the real table has.
type MockCategoryRepository struct {
	mu          sync.Mutex
	Categories  map[int32]*domain.Category
	ByKey       map[string]*domain.Category
	NextID      int32
	CreateCalls int
	GetCalls    int
	CreateFn    func(category *domain.Category) (*domain.Category, error)
	GetFn       func(name string, categoryType domain.CategoryType) (*domain.Category, error)
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[int32]*domain.Category),
		ByKey:      make(map[string]*domain.Category),
		NextID:     1,
	}
}

func categoryKey(name string, categoryType domain.CategoryType) string {
	return fmt.Sprintf("%s|%s", categoryType, name)
}

// GetByNameAndType retrieves a category by its unique (name, type) pair
func (m *MockCategoryRepository) GetByNameAndType(ctx context.Context, name string, categoryType domain.CategoryType) (*domain.Category, error) {
	m.mu.Lock()
	m.GetCalls++
	fn := m.GetFn
	m.mu.Unlock()
	if fn != nil {
		return fn(name, categoryType)
	}
	return m.Lookup(name, categoryType)
}

// Lookup reads the stored category without going through GetFn
func (m *MockCategoryRepository) Lookup(name string, categoryType domain.CategoryType) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category, ok := m.ByKey[categoryKey(name, categoryType)]; ok {
		return category, nil
	}
	return nil, domain.ErrCategoryNotFound
}

// Create creates a new category
func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	m.CreateCalls++
	fn := m.CreateFn
	m.mu.Unlock()
	if fn != nil {
		return fn(category)
	}
	return m.Insert(category)
}

// Insert stores a category as the database would, bypassing CreateFn
func (m *MockCategoryRepository) Insert(category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := categoryKey(category.Name, category.Type)
	if _, ok := m.ByKey[key]; ok {
		return nil, domain.ErrCategoryAlreadyExists
	}
	stored := *category
	stored.ID = m.NextID
	stored.CreatedAt = time.Now()
	m.NextID++
	m.Categories[stored.ID] = &stored
	m.ByKey[key] = &stored
	return &stored, nil
}

// Count returns the number of stored categories
func (m *MockCategoryRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Categories)
}

// MockTransactionRepository is a mock implementation of domain.TransactionRepository
type MockTransactionRepository struct {
	mu           sync.Mutex
	Transactions []*domain.Transaction
	NextID       int32
	// Categories, when set, is used to join category name and type on reads
	Categories  *MockCategoryRepository
	CreateCalls int
	CreateFn    func(transaction *domain.Transaction) (*domain.Transaction, error)
	ListFn      func(ownerID uuid.UUID, dateRange *domain.DateRange) ([]*domain.Transaction, error)
}

// NewMockTransactionRepository creates a new MockTransactionRepository
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{NextID: 1}
}

// NewMockTransactionRepositoryWithCategories joins reads against categories
func NewMockTransactionRepositoryWithCategories(categories *MockCategoryRepository) *MockTransactionRepository {
	repo := NewMockTransactionRepository()
	repo.Categories = categories
	return repo
}

// Create creates a new transaction
func (m *MockTransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	m.CreateCalls++
	fn := m.CreateFn
	m.mu.Unlock()
	if fn != nil {
		return fn(transaction)
	}
	m.AddTransaction(transaction)
	return transaction, nil
}

// ListByOwner returns an owner's transactions ordered by date then id
func (m *MockTransactionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, dateRange *domain.DateRange) ([]*domain.Transaction, error) {
	if m.ListFn != nil {
		return m.ListFn(ownerID, dateRange)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]*domain.Transaction, 0)
	for _, tx := range m.Transactions {
		if tx.OwnerID != ownerID {
			continue
		}
		if dateRange != nil && !dateRange.Contains(tx.Date) {
			continue
		}
		joined := *tx
		if m.Categories != nil && joined.CategoryName == "" {
			m.Categories.mu.Lock()
			if category, ok := m.Categories.Categories[joined.CategoryID]; ok {
				joined.CategoryName = category.Name
				joined.CategoryType = category.Type
			}
			m.Categories.mu.Unlock()
		}
		result = append(result, &joined)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// AddTransaction adds a transaction directly to the mock
func (m *MockTransactionRepository) AddTransaction(transaction *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if transaction.ID == 0 {
		transaction.ID = m.NextID
	}
	if transaction.ID >= m.NextID {
		m.NextID = transaction.ID + 1
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	m.Transactions = append(m.Transactions, transaction)
}

// Count returns the number of stored transactions
func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Transactions)
}

// MockImportArchive records archived uploads
type MockImportArchive struct {
	mu      sync.Mutex
	Objects map[string][]byte
	StoreFn func(ownerID uuid.UUID, filename, contentType string, data []byte) (string, error)
}

// NewMockImportArchive creates a new MockImportArchive
func NewMockImportArchive() *MockImportArchive {
	return &MockImportArchive{Objects: make(map[string][]byte)}
}

// Store keeps the upload in memory under a deterministic key
func (m *MockImportArchive) Store(ctx context.Context, ownerID uuid.UUID, filename, contentType string, data []byte) (string, error) {
	if m.StoreFn != nil {
		return m.StoreFn(ownerID, filename, contentType, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("imports/%s/%d-%s", ownerID, len(m.Objects)+1, filename)
	m.Objects[key] = append([]byte(nil), data...)
	return key, nil
}

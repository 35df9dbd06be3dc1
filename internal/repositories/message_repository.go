package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rempah/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageRepository stores contact-form messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
}

// GORMMessageRepository is a GORM implementation of MessageRepository.
type GORMMessageRepository struct {
	db *gorm.DB
}

// NewGORMMessageRepository creates a new instance of GORMMessageRepository.
func NewGORMMessageRepository(db *gorm.DB) *GORMMessageRepository {
	return &GORMMessageRepository{db: db}
}

// Create inserts msg.
func (r *GORMMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// MockMessageRepository keeps messages in memory.
type MockMessageRepository struct {
	messages []models.Message
	mu       sync.Mutex
}

// NewMockMessageRepository creates an empty MockMessageRepository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{}
}

// Create appends msg.
func (r *MockMessageRepository) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

// Messages returns the stored messages.
func (r *MockMessageRepository) Messages() []models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Message(nil), r.messages...)
}

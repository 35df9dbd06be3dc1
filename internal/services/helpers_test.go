package services_test

import (
	"context"
	"sync"

	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/pkg/mailer"

	"github.com/stretchr/testify/mock"
)

// outbox records every message it is asked to send.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) Messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

// MockSender is a testify mock of mailer.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockPublisher is a testify mock of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(routingKey string, event any) error {
	args := m.Called(routingKey, event)
	return args.Error(0)
}

// racingOrderRepository lets another writer update the order right before
// the first Update call, so that call loses the race.
type racingOrderRepository struct {
	*repositories.MockOrderRepository
	raced   bool
	updates int
}

func (r *racingOrderRepository) Update(ctx context.Context, order *models.Order) error {
	r.updates++
	if !r.raced {
		r.raced = true
		other, err := r.MockOrderRepository.GetByID(ctx, order.ID)
		if err != nil {
			return err
		}
		other.PaymentMethod = "UPI"
		if err := r.MockOrderRepository.Update(ctx, other); err != nil {
			return err
		}
	}
	return r.MockOrderRepository.Update(ctx, order)
}

// racingProductRepository does the same for products, adding a review by
// another user on the first Update.
type racingProductRepository struct {
	*repositories.MockProductRepository
	raced bool
}

func (r *racingProductRepository) Update(ctx context.Context, p *models.Product) error {
	if !r.raced {
		r.raced = true
		other, err := r.MockProductRepository.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		other.Reviews = append(other.Reviews, models.Review{ID: "concurrent", UserID: "someone-else", Rating: 1})
		other.RecomputeRating()
		if err := r.MockProductRepository.Update(ctx, other); err != nil {
			return err
		}
	}
	return r.MockProductRepository.Update(ctx, p)
}

func seedUser(users repositories.UserRepository, u *models.User) *models.User {
	if err := users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func seedProduct(products repositories.ProductRepository, p *models.Product) *models.Product {
	if err := products.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/pkg/mailer"
)

var htmlTag = regexp.MustCompile(`<[^>]*>?`)

// stripHTML removes anything that looks like a markup tag.
func stripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}

// MessageInput is a contact-form submission.
type MessageInput struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

// MessageService stores contact messages and forwards them to the shop owner.
type MessageService struct {
	repo       repositories.MessageRepository
	mail       mailer.Sender
	ownerEmail string
}

// NewMessageService creates a new MessageService. With an empty ownerEmail
// messages are stored without notification.
func NewMessageService(repo repositories.MessageRepository, mail mailer.Sender, ownerEmail string) *MessageService {
	return &MessageService{repo: repo, mail: mail, ownerEmail: ownerEmail}
}

// CreateMessage sanitises and stores in, then notifies the owner.
func (s *MessageService) CreateMessage(ctx context.Context, in MessageInput) (*models.Message, error) {
	msg := &models.Message{
		Name:      stripHTML(in.Name),
		Email:     in.Email,
		Phone:     stripHTML(in.Phone),
		Subject:   stripHTML(in.Subject),
		Body:      stripHTML(in.Message),
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}

	if s.ownerEmail != "" {
		phone := msg.Phone
		if phone == "" {
			phone = "N/A"
		}
		notify(ctx, s.mail, mailer.Message{
			To:      s.ownerEmail,
			Subject: fmt.Sprintf("[New Contact] %s from %s", msg.Subject, msg.Name),
			Text: fmt.Sprintf("New message from %s (%s). Subject: %s. Phone: %s. Message: %s",
				msg.Name, msg.Email, msg.Subject, phone, msg.Body),
			HTML: renderHTML(contactMail, models.Message{
				Name: msg.Name, Email: msg.Email, Subject: msg.Subject, Phone: phone, Body: msg.Body,
			}),
		})
	}
	return msg, nil
}

package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/storagerental/users-service/internal/domain"
	pkgkafka "github.com/storagerental/users-service/pkg/kafka"
)

// Kafka topics for user domain events.
var (
	TopicUserRegistered = pkgkafka.Topic("user", "registered")
	TopicUserUpdated    = pkgkafka.Topic("user", "updated")
	TopicUserDeleted    = pkgkafka.Topic("user", "deleted")
)

// Aggregate type constant.
const AggregateTypeUser = "user"

// Source identifier for events originating from this service.
const SourceUsersService = "users-service"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserUpdatedData is the payload for a user.updated event.
type UserUpdatedData struct {
	UserID    int64         `json:"user_id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	City      string        `json:"city,omitempty"`
	State     string        `json:"state,omitempty"`
	Status    domain.Status `json:"status"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the users service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}

	return p.publish(ctx, TopicUserRegistered, user.ID, data)
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	data := UserUpdatedData{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		City:      user.City,
		State:     user.State,
		Status:    user.Status,
	}

	return p.publish(ctx, TopicUserUpdated, user.ID, data)
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID int64, email string) error {
	data := UserDeletedData{
		UserID: userID,
		Email:  email,
	}

	return p.publish(ctx, TopicUserDeleted, userID, data)
}

func (p *Producer) publish(ctx context.Context, topic string, userID int64, data any) error {
	event, err := pkgkafka.NewEvent(topic, strconv.FormatInt(userID, 10), AggregateTypeUser, SourceUsersService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.Int64("user_id", userID),
	)

	return nil
}

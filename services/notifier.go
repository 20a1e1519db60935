package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

// Notification — сообщение для внешнего диспетчера уведомлений.
type Notification struct {
	UserIDs []int  `json:"user_ids"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`
	RefType string `json:"ref_type,omitempty"`
	RefID   int    `json:"ref_id,omitempty"`
}

// Notifier — контракт диспетчера уведомлений. С точки зрения ядра это
// fire-and-forget: ошибка доставки никогда не откатывает вызвавший переход.
type Notifier interface {
	SendToUsers(ctx context.Context, n Notification) error
}

const (
	NotificationScoreSubmitted = "score_submitted"
	NotificationScoreDisputed  = "score_disputed"
	NotificationGameFinished   = "game_finished"
)

// amqpNotifier публикует уведомления в exchange RabbitMQ; подписчики
// (почта, push) разбирают их самостоятельно, со своей политикой ретраев.
type amqpNotifier struct {
	channel  *amqp.Channel
	exchange string
}

func NewAMQPNotifier(url, exchange string) (Notifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}
	return &amqpNotifier{channel: channel, exchange: exchange}, nil
}

func (n *amqpNotifier) SendToUsers(ctx context.Context, notification Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return n.channel.Publish(n.exchange, "notifications."+notification.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now().UTC(),
		Body:        body,
	})
}

// noopNotifier используется, когда AMQP_URL не задан (локальная разработка).
type noopNotifier struct{}

func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) SendToUsers(ctx context.Context, n Notification) error { return nil }

// Package queue_publisher publishes domain events to RabbitMQ. The
// order has already committed by the time an event goes out, so errors
// are logged and returned for the caller to ignore; a purchase never
// fails because the broker is down.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mkarpik/storefront-api/internal/queue"
)

// PublishOrderPlaced sends one event to the order.placed queue as a
// persistent message. Each call opens its own connection; the
// publisher holds no state between events.
func PublishOrderPlaced(ctx context.Context, event queue.OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event: %v", err)
		return err
	}

	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial: %v", err)
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel: %v", err)
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue.OrderPlacedQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: declare %s: %v", queue.OrderPlacedQueue, err)
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = ch.PublishWithContext(pctx, "", queue.OrderPlacedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("rabbitmq: publish: %v", err)
	}
	return err
}

package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

func NewConnection(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

func NewChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return channel, nil
}

// Binding names a durable queue bound to a direct exchange.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// Declare creates the exchange and queue of b if missing and binds them.
func Declare(ch *amqp.Channel, b Binding) error {
	if err := ch.ExchangeDeclare(
		b.Exchange, // name
		"direct",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", b.Exchange, err)
	}

	queue, err := ch.QueueDeclare(
		b.Queue, // name
		true,    // durable
		false,   // delete when unused
		false,   // exclusive
		false,   // no-wait
		nil,     // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", b.Queue, err)
	}

	if err := ch.QueueBind(queue.Name, b.RoutingKey, b.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", b.Queue, err)
	}

	return nil
}

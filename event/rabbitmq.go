package event

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// orderEvents consumes order-status events published on a fanout exchange by
// the marketplace backend.
type orderEvents struct {
	connection *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	queue      string
}

// Consume declares the exchange and the queue, binds them and starts a
// consumer with manual acks. An empty queue name declares an exclusive queue
// that lives as long as this process.
func (e *orderEvents) Consume() (<-chan amqp.Delivery, error) {
	ch, err := e.connection.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		e.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", e.exchange, err)
	}

	exclusive := e.queue == ""

	q, err := ch.QueueDeclare(
		e.queue,    // name
		!exclusive, // durable
		exclusive,  // auto-delete
		exclusive,  // exclusive
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	err = ch.QueueBind(
		q.Name,     // queue
		"",         // routing key (ignored by fanout)
		e.exchange, // exchange
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s: %w", q.Name, err)
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %s: %w", q.Name, err)
	}

	e.channel = ch

	return msgs, nil
}

func (e *orderEvents) Close() error {
	if e.channel == nil {
		return nil
	}

	return e.channel.Close()
}

func NewOrderEvents(conn *amqp.Connection, exchange, queue string) *orderEvents {
	return &orderEvents{
		connection: conn,
		exchange:   exchange,
		queue:      queue,
	}
}

package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// AccountsExchange обменник событий учётных записей.
	AccountsExchange = "accounts"
	// SettlementsQueue очередь расчётов ставок и отключений учётных записей.
	SettlementsQueue = "accounts.settlements"
	// SettlementRoutingKey ключ маршрутизации расчётов.
	SettlementRoutingKey = "settlement"

	// CompetitionsExchange обменник событий соревнований.
	CompetitionsExchange = "competitions"
	// CompetitionJoinedKey участник вступил в соревнование.
	CompetitionJoinedKey = "competition.joined"
	// CompetitionClosedKey соревнование завершилось.
	CompetitionClosedKey = "competition.closed"
)

// QueueConfig привязка очереди к обменнику.
type QueueConfig struct {
	Exchange   string
	QueueName  string
	RoutingKey string
}

// Exchanges возвращает обменники, которые объявляет каждый процесс сервиса.
func Exchanges() []string {
	return []string{AccountsExchange, CompetitionsExchange}
}

// Queues возвращает очереди сервиса и их привязки.
func Queues() []QueueConfig {
	return []QueueConfig{
		{Exchange: AccountsExchange, QueueName: SettlementsQueue, RoutingKey: SettlementRoutingKey},
	}
}

// SetupChannel открывает канал и идемпотентно объявляет обменники и очереди.
func SetupChannel(conn *amqp.Connection, prefetch int) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if prefetch > 0 {
		if err = ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
		}
	}

	for _, ex := range Exchanges() {
		if err = ch.ExchangeDeclare(ex, "direct", true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare exchange %s: %w", op, ex, err)
		}
	}

	for _, q := range Queues() {
		if _, err = ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err = ch.QueueBind(q.QueueName, q.RoutingKey, q.Exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w",
				op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}

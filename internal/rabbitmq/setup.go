package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// NotificationsExchange обменник событий, порождающих уведомления.
	NotificationsExchange = "notifications"
	// CourseUpdatedQueue очередь заданий на рассылку об обновлении курса.
	CourseUpdatedQueue = "notifications.course-updated"
	// CourseUpdatedKey ключ маршрутизации событий обновления курса.
	CourseUpdatedKey = "course.updated"
)

// SetupChannel открывает канал, объявляет обменник и очередь уведомлений
// и связывает их ключом маршрутизации.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}
	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		CourseUpdatedQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(CourseUpdatedQueue, CourseUpdatedKey, NotificationsExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, err
}

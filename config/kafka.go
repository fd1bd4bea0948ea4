package config

import (
	"arena-backend/utils"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// Freeze outcomes are published per event so downstream consumers
// (analytics, certificate generation) can react without polling the API.

func topicName(eventId int) string {
	return fmt.Sprintf("round-results-%d", eventId)
}

func CreateTopic(eventId int) error {
	broker := Env().KafkaBroker
	if broker == "" {
		return fmt.Errorf("KAFKA_BROKER environment variable not set")
	}

	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer utils.Closer(conn)()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer utils.Closer(controllerConn)()

	topicConfig := kafka.TopicConfig{
		Topic:             topicName(eventId),
		NumPartitions:     1,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			// 90 days retention, competitions span a semester at most
			{
				ConfigName:  "retention.ms",
				ConfigValue: "7776000000",
			},
		},
	}

	return controllerConn.CreateTopics(topicConfig)
}

func GetWriter(eventId int) (*kafka.Writer, error) {
	broker := Env().KafkaBroker
	if broker == "" {
		return nil, fmt.Errorf("KAFKA_BROKER environment variable not set")
	}
	if err := CreateTopic(eventId); err != nil {
		return nil, err
	}
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers: []string{broker},
		Topic:   topicName(eventId),
	}), nil
}

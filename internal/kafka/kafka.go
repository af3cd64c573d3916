// Package kafka prepares the processing-task topic and waits for the broker to accept connections
package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// topicCreator - кусок kafkago.Client, нужный для создания топиков
type topicCreator interface {
	CreateTopics(ctx context.Context, req *kafkago.CreateTopicsRequest) (*kafkago.CreateTopicsResponse, error)
}

// InitKafkaTopics - creates topics in kafka, existing topics count as created
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}
	return createTopics(ctx, client, delay, topics...)
}

func createTopics(ctx context.Context, client topicCreator, delay time.Duration, topics ...string) error {
	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil && topicsReady(resp) {
			log.Println("All topics created successfully!")
			return nil
		}
		if err != nil {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func topicsReady(resp *kafkago.CreateTopicsResponse) bool {
	ready := true
	for k, v := range resp.Errors {
		switch {
		case v == nil, errors.Is(v, kafkago.TopicAlreadyExists):
		default:
			log.Printf("Topic %q creation error: %v", k, v)
			ready = false
		}
	}
	return ready
}

// WaitKafkaReady - timeout given to kafka-service for getting fully functional
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return nil
		}
		log.Printf("Kafka not ready, retrying in %v...", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

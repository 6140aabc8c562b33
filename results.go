package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

const resultsTopic = "scenebox-results"

// resultsPublisher writes final standings to a kafka topic, keyed by
// room code, for anything downstream that wants a game history feed.
type resultsPublisher struct {
	broker string
}

func newResultsPublisher(broker string) *resultsPublisher {
	if broker == "" {
		return nil
	}
	return &resultsPublisher{broker: broker}
}

type standingsRecord struct {
	RoomCode   string    `json:"roomCode"`
	Players    []Player  `json:"players"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (p *resultsPublisher) publish(cfg *Config, roomCode string, standings []Player) {
	payload, err := json.Marshal(standingsRecord{
		RoomCode:   roomCode,
		Players:    standings,
		FinishedAt: time.Now().UTC(),
	})
	if err != nil {
		logf(cfg, "KAFKA: Failed to encode standings for %s: %v", roomCode, err)
		return
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.broker),
		Topic:                  resultsTopic,
		RequiredAcks:           kafka.RequireAll,
		BatchSize:              1,
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(roomCode),
		Value: payload,
	})
	if err != nil {
		logf(cfg, "KAFKA: Failed to publish standings for %s: %v", roomCode, err)
		return
	}

	logf(cfg, "KAFKA: Published standings for %s", roomCode)
}

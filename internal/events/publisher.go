package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/product-page-scraper/internal/models"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event
type EventType string

const (
	EventTypeProductScraped EventType = "PRODUCT_SCRAPED"
	EventTypeProductFailed  EventType = "PRODUCT_FAILED"
	EventTypeRunCompleted   EventType = "RUN_COMPLETED"

	source = "product-page-scraper"
)

// RedisClient is the subset of the Redis client the publisher needs.
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// ItemPayload is published once per input URL.
type ItemPayload struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	RunID       string    `json:"run_id"`
	Index       int       `json:"index"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Description string    `json:"description"`
	ImagePath   string    `json:"image_path,omitempty"`
	Error       string    `json:"error,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Source      string    `json:"source"`
}

// RunPayload is published after the last item.
type RunPayload struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Source    string    `json:"source"`
}

// Publisher appends scrape outcomes to a Redis stream.
type Publisher struct {
	redis  RedisClient
	stream string
	runID  string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream, runID string, logger *slog.Logger) *Publisher {
	return &Publisher{
		redis:  client,
		stream: stream,
		runID:  runID,
		logger: logger.With("component", "event_publisher"),
	}
}

func (p *Publisher) ItemDone(ctx context.Context, result models.ItemResult) error {
	payload := &ItemPayload{
		EventID:     uuid.New().String(),
		EventType:   string(EventTypeProductScraped),
		Timestamp:   time.Now(),
		RunID:       result.RunID,
		Index:       result.Index,
		URL:         result.URL,
		Title:       result.Row[0],
		Price:       result.Row[1],
		Description: result.Row[2],
		ImagePath:   result.ImagePath,
		DurationMS:  result.Duration.Milliseconds(),
		Source:      source,
	}
	if payload.RunID == "" {
		payload.RunID = p.runID
	}
	if !result.Success() {
		payload.EventType = string(EventTypeProductFailed)
		payload.Error = result.Err.Error()
	}

	return p.publish(ctx, payload.EventID, payload.EventType, payload.RunID, payload)
}

func (p *Publisher) RunDone(ctx context.Context, state models.RunState) error {
	payload := &RunPayload{
		EventID:   uuid.New().String(),
		EventType: string(EventTypeRunCompleted),
		Timestamp: time.Now(),
		RunID:     p.runID,
		Total:     state.Total,
		Processed: state.Processed,
		ElapsedMS: time.Since(state.StartedAt).Milliseconds(),
		Source:    source,
	}

	return p.publish(ctx, payload.EventID, payload.EventType, payload.RunID, payload)
}

func (p *Publisher) publish(ctx context.Context, eventID, eventType, runID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"event_id":   eventID,
			"event_type": eventType,
			"run_id":     runID,
			"timestamp":  fmt.Sprintf("%d", time.Now().UnixNano()),
		},
	}

	if _, err := p.redis.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Debug("event published", "type", eventType, "event_id", eventID, "stream", p.stream)
	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}

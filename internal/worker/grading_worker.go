package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/classroom-service/internal/models"
	"github.com/RubachokBoss/classroom-service/internal/service"
	"github.com/RubachokBoss/classroom-service/internal/worker/queue"
)

var errMalformedMessage = errors.New("malformed grading message")

// GradingWorker applies grades published by the external grader.
type GradingWorker interface {
	Start(ctx context.Context) error
	Stop()
	Stats() GradingStats
}

type GradingStats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Dropped   int `json:"dropped"`
}

type gradingWorker struct {
	pool          *WorkerPool
	consumer      queue.Consumer
	grading       service.GradingService
	submitTimeout time.Duration
	logger        zerolog.Logger

	statsMu sync.Mutex
	stats   GradingStats
	done    chan struct{}
}

func NewGradingWorker(
	pool *WorkerPool,
	consumer queue.Consumer,
	grading service.GradingService,
	logger zerolog.Logger,
) GradingWorker {
	return &gradingWorker{
		pool:          pool,
		consumer:      consumer,
		grading:       grading,
		submitTimeout: time.Second,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

func (w *gradingWorker) Start(ctx context.Context) error {
	w.pool.Start()

	msgs, err := w.consumer.Consume(ctx)
	if err != nil {
		w.pool.Stop()
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go w.dispatch(ctx, msgs)

	w.logger.Info().Msg("Grading worker started")
	return nil
}

// Stop waits for the dispatcher to exit, so ctx passed to Start must be
// cancelled first.
func (w *gradingWorker) Stop() {
	<-w.done
	w.pool.Stop()

	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	stats := w.Stats()
	w.logger.Info().
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Msg("Grading worker stopped")
}

func (w *gradingWorker) Stats() GradingStats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}

func (w *gradingWorker) dispatch(ctx context.Context, msgs <-chan queue.Message) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			accepted := w.pool.Submit(func() { w.handle(ctx, msg) }, w.submitTimeout)
			if !accepted {
				w.nack(msg)
			}
		}
	}
}

func (w *gradingWorker) handle(ctx context.Context, msg queue.Message) {
	err := w.process(ctx, msg.Body)
	if err == nil {
		w.count(func(s *GradingStats) { s.Processed++ })
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	if isPermanentError(err) {
		w.logger.Warn().Err(err).Msg("Dropping grading message")
		w.count(func(s *GradingStats) { s.Dropped++ })
		if ackErr := msg.Ack(false); ackErr != nil {
			w.logger.Error().Err(ackErr).Msg("Failed to ack message")
		}
		return
	}

	w.logger.Error().Err(err).Msg("Failed to apply grade, requeueing")
	w.count(func(s *GradingStats) { s.Failed++ })
	w.nack(msg)
}

func (w *gradingWorker) nack(msg queue.Message) {
	if err := msg.Nack(false, true); err != nil {
		w.logger.Error().Err(err).Msg("Failed to nack message")
	}
}

func (w *gradingWorker) count(fn func(s *GradingStats)) {
	w.statsMu.Lock()
	fn(&w.stats)
	w.statsMu.Unlock()
}

func (w *gradingWorker) process(ctx context.Context, body []byte) error {
	var event models.ResultGradedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	if event.ResultID == "" {
		return fmt.Errorf("%w: missing result_id", errMalformedMessage)
	}

	result, err := w.grading.ApplyExternalGrade(ctx, &event)
	if err != nil {
		return fmt.Errorf("result %s: %w", event.ResultID, err)
	}

	w.logger.Info().
		Str("result_id", result.ID).
		Float64("score", result.Score).
		Msg("External grade applied")

	return nil
}

// isPermanentError reports whether redelivering the message cannot help.
func isPermanentError(err error) bool {
	return errors.Is(err, errMalformedMessage) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrInvalidInput)
}

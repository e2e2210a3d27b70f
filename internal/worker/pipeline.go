package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
	"antiplagiarism/internal/service/analyzer"
	"antiplagiarism/internal/worker/queue"
)

// Pipeline drives every accepted submission from PENDING to a terminal
// state: claim, compare against the work's prior DONE submissions, persist
// the report. A failing submission is recorded as ERROR and never stops the
// pool or surfaces back to the accept call.
type Pipeline interface {
	Start(ctx context.Context) error
	Stop() error
	Process(ctx context.Context, submissionID string) error
	GetStats() PipelineStats
}

type PipelineStats struct {
	ActiveWorkers     int `json:"active_workers"`
	TotalProcessed    int `json:"total_processed"`
	FailedSubmissions int `json:"failed_submissions"`
	QueueLength       int `json:"queue_length"`
}

type pipeline struct {
	workerPool  *WorkerPool
	consumer    queue.Consumer
	submissions repository.SubmissionRepository
	reports     repository.ReportRepository
	contents    repository.ContentStore
	engine      *analyzer.Engine
	locks       *workLocks
	logger      zerolog.Logger

	stats      PipelineStats
	statsMutex sync.RWMutex
}

func NewPipeline(
	workerPool *WorkerPool,
	consumer queue.Consumer,
	submissions repository.SubmissionRepository,
	reports repository.ReportRepository,
	contents repository.ContentStore,
	engine *analyzer.Engine,
	logger zerolog.Logger,
) Pipeline {
	return &pipeline{
		workerPool:  workerPool,
		consumer:    consumer,
		submissions: submissions,
		reports:     reports,
		contents:    contents,
		engine:      engine,
		locks:       newWorkLocks(),
		logger:      logger,
	}
}

func (p *pipeline) Start(ctx context.Context) error {
	p.logger.Info().Msg("Starting submission pipeline...")

	if err := p.workerPool.Start(ctx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	msgs, err := p.consumer.Consume(ctx)
	if err != nil {
		return fmt.Errorf("failed to start consuming messages: %w", err)
	}

	go p.processMessages(ctx, msgs)

	p.logger.Info().Msg("Submission pipeline started")
	return nil
}

func (p *pipeline) Stop() error {
	p.logger.Info().Msg("Stopping submission pipeline...")

	if err := p.workerPool.Stop(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to stop worker pool")
	}

	if err := p.consumer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close queue consumer")
	}

	p.statsMutex.RLock()
	defer p.statsMutex.RUnlock()
	p.logger.Info().
		Int("total_processed", p.stats.TotalProcessed).
		Int("failed_submissions", p.stats.FailedSubmissions).
		Msg("Submission pipeline stopped")

	return nil
}

func (p *pipeline) processMessages(ctx context.Context, msgs <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Stopping message processing")
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			// Submit blocks while the pool is saturated; the message stays
			// unacked and the queue carries the backpressure.
			err := p.workerPool.Submit(func() {
				if err := p.processMessage(ctx, msg); err != nil {
					p.logger.Error().Err(err).Msg("Failed to process message")

					if isPermanentError(err) {
						if ackErr := msg.Ack(false); ackErr != nil {
							p.logger.Error().Err(ackErr).Msg("Failed to ack message")
						}
						return
					}

					if nackErr := msg.Nack(false, true); nackErr != nil {
						p.logger.Error().Err(nackErr).Msg("Failed to nack message")
					}
					return
				}

				if err := msg.Ack(false); err != nil {
					p.logger.Error().Err(err).Msg("Failed to ack message")
				}
			})
			if err != nil {
				p.logger.Error().Err(err).Msg("Worker pool rejected message")
				if nackErr := msg.Nack(false, true); nackErr != nil {
					p.logger.Error().Err(nackErr).Msg("Failed to nack message")
				}
			}
		}
	}
}

func (p *pipeline) processMessage(ctx context.Context, msg queue.Message) error {
	var event models.SubmissionQueuedEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		return permanent(fmt.Errorf("failed to unmarshal event: %w", err))
	}

	if strings.TrimSpace(event.SubmissionID) == "" {
		return permanent(errors.New("empty submission_id"))
	}

	return p.Process(ctx, event.SubmissionID)
}

// Process runs one submission to a terminal state. Comparison eligibility is
// snapshotted while the work lock is held, so two submissions of the same
// work never compare against each other mid-flight.
func (p *pipeline) Process(ctx context.Context, submissionID string) error {
	submission, err := p.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return permanent(fmt.Errorf("submission %s not found: %w", submissionID, err))
		}
		return fmt.Errorf("failed to load submission: %w", err)
	}

	if submission.Status.Terminal() {
		p.logger.Warn().
			Str("submission_id", submissionID).
			Str("status", submission.Status.String()).
			Msg("Submission already terminal, skipping")
		return nil
	}

	if err := p.submissions.MarkProcessing(ctx, submissionID); err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			// claimed by another worker in the meantime
			p.logger.Warn().
				Str("submission_id", submissionID).
				Msg("Submission not claimable, skipping")
			return nil
		}
		return fmt.Errorf("failed to claim submission: %w", err)
	}

	p.locks.Lock(submission.WorkID)
	defer p.locks.Unlock(submission.WorkID)

	startTime := time.Now()

	p.logger.Info().
		Str("submission_id", submissionID).
		Str("work_id", submission.WorkID).
		Msg("Processing submission")

	content, err := p.contents.GetContent(ctx, submissionID)
	if err != nil {
		return p.fail(ctx, submission, fmt.Sprintf("failed to read submission content: %v", err))
	}

	priors, err := p.collectPriors(ctx, submission)
	if err != nil {
		return p.fail(ctx, submission, err.Error())
	}

	result := p.engine.Compare(content, priors)

	matched := make([]models.MatchedSubmission, 0, len(result.Matched))
	for _, m := range result.Matched {
		matched = append(matched, models.MatchedSubmission{
			SubmissionID:      m.SubmissionID,
			SimilarityPercent: m.SimilarityPercent,
		})
	}

	report := models.Report{
		SubmissionID:       submissionID,
		WorkID:             submission.WorkID,
		Status:             models.ReportStatusDone,
		SimilarityPercent:  result.SimilarityPercent,
		MatchedSubmissions: matched,
		CreatedAt:          time.Now().UTC(),
	}

	if err := p.reports.FinishSubmission(ctx, report); err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	p.statsMutex.Lock()
	p.stats.TotalProcessed++
	p.statsMutex.Unlock()

	p.logger.Info().
		Str("submission_id", submissionID).
		Str("work_id", submission.WorkID).
		Float64("similarity_percent", result.SimilarityPercent).
		Int("matched_count", len(matched)).
		Int("compared_with", len(priors)).
		Dur("processing_time", time.Since(startTime)).
		Msg("Submission processed")

	return nil
}

func (p *pipeline) collectPriors(ctx context.Context, submission models.Submission) ([]analyzer.Prior, error) {
	done, err := p.submissions.ListDoneSubmissions(ctx, submission.WorkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prior submissions: %v", err)
	}

	priors := make([]analyzer.Prior, 0, len(done))
	for _, prior := range done {
		if prior.SubmissionID == submission.SubmissionID {
			continue
		}

		content, err := p.contents.GetContent(ctx, prior.SubmissionID)
		if err != nil {
			return nil, fmt.Errorf("failed to read content of prior submission %s: %v", prior.SubmissionID, err)
		}

		priors = append(priors, analyzer.Prior{
			SubmissionID: prior.SubmissionID,
			CreatedAt:    prior.CreatedAt,
			Content:      content,
		})
	}
	return priors, nil
}

// fail records the terminal ERROR outcome. The accept call already returned
// 202, so the reason travels on the report, not up the stack.
func (p *pipeline) fail(ctx context.Context, submission models.Submission, reason string) error {
	report := models.Report{
		SubmissionID:       submission.SubmissionID,
		WorkID:             submission.WorkID,
		Status:             models.ReportStatusError,
		SimilarityPercent:  0,
		MatchedSubmissions: []models.MatchedSubmission{},
		ErrorReason:        reason,
		CreatedAt:          time.Now().UTC(),
	}

	if err := p.reports.FinishSubmission(ctx, report); err != nil {
		return fmt.Errorf("failed to store error report: %w", err)
	}

	p.statsMutex.Lock()
	p.stats.FailedSubmissions++
	p.statsMutex.Unlock()

	p.logger.Error().
		Str("submission_id", submission.SubmissionID).
		Str("work_id", submission.WorkID).
		Str("reason", reason).
		Msg("Submission processing failed")

	return nil
}

func (p *pipeline) GetStats() PipelineStats {
	p.statsMutex.RLock()
	stats := p.stats
	p.statsMutex.RUnlock()

	stats.ActiveWorkers = p.workerPool.GetActiveWorkers()
	stats.QueueLength = p.workerPool.GetQueueLength()
	return stats
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error {
	return permanentError{err: err}
}

func isPermanentError(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

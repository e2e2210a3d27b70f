package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
	"antiplagiarism/internal/service/analyzer"
	"antiplagiarism/internal/worker/queue"
)

type pipelineFixture struct {
	store    *repository.MemoryStore
	queue    *queue.MemoryQueue
	pipeline Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	q := queue.NewMemoryQueue(100, time.Second, zerolog.Nop())
	t.Cleanup(func() { _ = q.Close() })

	engine := analyzer.NewEngine(analyzer.Config{ShingleSize: 3, MatchThreshold: 75.0})
	pool := NewWorkerPool(4, zerolog.Nop())
	p := NewPipeline(pool, q, store, store, store, engine, zerolog.Nop())

	if _, err := store.CreateWork(context.Background(), "hw-1", "Essay", "desc"); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	return &pipelineFixture{store: store, queue: q, pipeline: p}
}

func (f *pipelineFixture) addSubmission(t *testing.T, id string, content []byte) {
	t.Helper()
	ctx := context.Background()

	if err := f.store.PutContent(ctx, id, content); err != nil {
		t.Fatalf("PutContent %s: %v", id, err)
	}
	sub := models.Submission{
		SubmissionID: id,
		WorkID:       "hw-1",
		Filename:     id + ".txt",
		Status:       models.SubmissionStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.store.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission %s: %v", id, err)
	}
}

func (f *pipelineFixture) waitTerminal(t *testing.T, id string) models.Report {
	t.Helper()
	ctx := context.Background()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sub, err := f.store.GetSubmission(ctx, id)
		if err != nil {
			t.Fatalf("GetSubmission %s: %v", id, err)
		}
		if sub.Status.Terminal() {
			report, err := f.store.GetReport(ctx, id)
			if err != nil {
				t.Fatalf("terminal submission %s without report: %v", id, err)
			}
			return report
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("submission %s never reached a terminal state", id)
	return models.Report{}
}

func TestProcessFirstSubmissionScoresZero(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)

	f.addSubmission(t, "s1", []byte("the quick brown fox jumps over the lazy dog"))
	if err := f.pipeline.Process(ctx, "s1"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	report, err := f.store.GetReport(ctx, "s1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.Status != models.ReportStatusDone {
		t.Fatalf("status %s, want DONE", report.Status)
	}
	if report.SimilarityPercent != 0 {
		t.Fatalf("similarity %v, want 0 with no priors", report.SimilarityPercent)
	}
	if len(report.MatchedSubmissions) != 0 {
		t.Fatalf("matched %v, want empty", report.MatchedSubmissions)
	}
}

func TestProcessIdenticalResubmissionMatches(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	content := []byte("the quick brown fox jumps over the lazy dog")

	f.addSubmission(t, "s1", content)
	if err := f.pipeline.Process(ctx, "s1"); err != nil {
		t.Fatalf("Process s1: %v", err)
	}

	f.addSubmission(t, "s2", content)
	if err := f.pipeline.Process(ctx, "s2"); err != nil {
		t.Fatalf("Process s2: %v", err)
	}

	report, err := f.store.GetReport(ctx, "s2")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if report.SimilarityPercent != 100 {
		t.Fatalf("similarity %v, want 100 against an identical prior", report.SimilarityPercent)
	}
	if len(report.MatchedSubmissions) != 1 || report.MatchedSubmissions[0].SubmissionID != "s1" {
		t.Fatalf("matched %v, want [s1]", report.MatchedSubmissions)
	}
}

func TestProcessErrorSubmissionNotComparedAgainst(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	content := []byte("the quick brown fox jumps over the lazy dog")

	// s1 ends in ERROR: its content was never stored
	sub := models.Submission{
		SubmissionID: "s1",
		WorkID:       "hw-1",
		Filename:     "s1.txt",
		Status:       models.SubmissionStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := f.store.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if err := f.pipeline.Process(ctx, "s1"); err != nil {
		t.Fatalf("Process s1: %v", err)
	}

	report, err := f.store.GetReport(ctx, "s1")
	if err != nil {
		t.Fatalf("GetReport s1: %v", err)
	}
	if report.Status != models.ReportStatusError {
		t.Fatalf("status %s, want ERROR", report.Status)
	}
	if report.ErrorReason == "" {
		t.Fatal("error reason must be recorded")
	}

	// s2 compares only against DONE priors, so s1 is invisible to it
	f.addSubmission(t, "s2", content)
	if err := f.pipeline.Process(ctx, "s2"); err != nil {
		t.Fatalf("Process s2: %v", err)
	}

	report, err = f.store.GetReport(ctx, "s2")
	if err != nil {
		t.Fatalf("GetReport s2: %v", err)
	}
	if report.SimilarityPercent != 0 || len(report.MatchedSubmissions) != 0 {
		t.Fatalf("ERROR prior leaked into comparison: %+v", report)
	}
}

func TestProcessTerminalSubmissionIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)

	f.addSubmission(t, "s1", []byte("some essay text here with words"))
	if err := f.pipeline.Process(ctx, "s1"); err != nil {
		t.Fatalf("Process: %v", err)
	}
	first, err := f.store.GetReport(ctx, "s1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}

	// a redelivered message must not rewrite the report
	if err := f.pipeline.Process(ctx, "s1"); err != nil {
		t.Fatalf("second Process: %v", err)
	}
	second, err := f.store.GetReport(ctx, "s1")
	if err != nil {
		t.Fatalf("GetReport after redelivery: %v", err)
	}
	if !first.CreatedAt.Equal(second.CreatedAt) || first.SimilarityPercent != second.SimilarityPercent {
		t.Fatalf("report changed on redelivery: %+v vs %+v", first, second)
	}
}

func TestProcessUnknownSubmissionIsPermanent(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.pipeline.Process(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for unknown submission")
	}
	if !isPermanentError(err) {
		t.Fatalf("got %v, want a permanent error (no point redelivering)", err)
	}
	if !errors.Is(err, repository.ErrSubmissionNotFound) {
		t.Fatalf("got %v, want wrapped ErrSubmissionNotFound", err)
	}
}

func TestProcessConcurrentSameWork(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	content := []byte("identical essay content submitted twice at the same time")

	f.addSubmission(t, "s1", content)
	f.addSubmission(t, "s2", content)

	var wg sync.WaitGroup
	for _, id := range []string{"s1", "s2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := f.pipeline.Process(ctx, id); err != nil {
				t.Errorf("Process %s: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	// the work lock serializes them: whichever finishes first scores 0,
	// the other sees it as a DONE prior and scores 100
	r1, err := f.store.GetReport(ctx, "s1")
	if err != nil {
		t.Fatalf("GetReport s1: %v", err)
	}
	r2, err := f.store.GetReport(ctx, "s2")
	if err != nil {
		t.Fatalf("GetReport s2: %v", err)
	}

	scores := []float64{r1.SimilarityPercent, r2.SimilarityPercent}
	if !(scores[0] == 0 && scores[1] == 100) && !(scores[0] == 100 && scores[1] == 0) {
		t.Fatalf("scores %v, want one 0 and one 100", scores)
	}
}

func TestPipelineEndToEndThroughQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newPipelineFixture(t)
	content := []byte("an essay travelling the full queue and worker path")

	if err := f.pipeline.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.pipeline.Stop()

	publish := func(id string) {
		t.Helper()
		f.addSubmission(t, id, content)
		body, err := json.Marshal(models.SubmissionQueuedEvent{
			SubmissionID: id,
			WorkID:       "hw-1",
			Timestamp:    time.Now().Unix(),
		})
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		if err := f.queue.Publish(ctx, body); err != nil {
			t.Fatalf("Publish %s: %v", id, err)
		}
	}

	publish("s1")
	first := f.waitTerminal(t, "s1")
	if first.Status != models.ReportStatusDone || first.SimilarityPercent != 0 {
		t.Fatalf("first report %+v, want DONE at 0", first)
	}

	publish("s2")
	second := f.waitTerminal(t, "s2")
	if second.Status != models.ReportStatusDone || second.SimilarityPercent != 100 {
		t.Fatalf("second report %+v, want DONE at 100", second)
	}

	stats := f.pipeline.GetStats()
	if stats.TotalProcessed != 2 {
		t.Fatalf("total processed %d, want 2", stats.TotalProcessed)
	}
	if stats.FailedSubmissions != 0 {
		t.Fatalf("failed submissions %d, want 0", stats.FailedSubmissions)
	}
}

func TestPipelineSameWorkBacklogAllTerminate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	q := queue.NewMemoryQueue(100, time.Second, zerolog.Nop())
	defer q.Close()

	// a single worker plus the per-work lock is the worst case for backlog:
	// the pool saturates, yet nothing may be dropped
	engine := analyzer.NewEngine(analyzer.Config{ShingleSize: 3, MatchThreshold: 75.0})
	pool := NewWorkerPool(1, zerolog.Nop())
	p := NewPipeline(pool, q, store, store, store, engine, zerolog.Nop())
	f := &pipelineFixture{store: store, queue: q, pipeline: p}

	if _, err := store.CreateWork(ctx, "hw-1", "Essay", "desc"); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	const total = 30
	ids := make([]string, 0, total)
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("s%02d", i)
		ids = append(ids, id)
		f.addSubmission(t, id, []byte(fmt.Sprintf("submission number %d with its own distinct words", i)))

		body, err := json.Marshal(models.SubmissionQueuedEvent{SubmissionID: id, WorkID: "hw-1", Timestamp: time.Now().Unix()})
		if err != nil {
			t.Fatalf("marshal event: %v", err)
		}
		if err := q.Publish(ctx, body); err != nil {
			t.Fatalf("Publish %s: %v", id, err)
		}
	}

	for _, id := range ids {
		report := f.waitTerminal(t, id)
		if report.Status != models.ReportStatusDone {
			t.Fatalf("submission %s finished %s, want DONE", id, report.Status)
		}
	}

	if got := p.GetStats().TotalProcessed; got != total {
		t.Fatalf("total processed %d, want %d", got, total)
	}
}

func TestPipelineMalformedMessageIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newPipelineFixture(t)

	if err := f.pipeline.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.pipeline.Stop()

	if err := f.queue.Publish(ctx, []byte("not json")); err != nil {
		t.Fatalf("Publish garbage: %v", err)
	}

	// a valid submission right after must still get through
	f.addSubmission(t, "s1", []byte("a real submission following the garbage"))
	body, err := json.Marshal(models.SubmissionQueuedEvent{SubmissionID: "s1", WorkID: "hw-1", Timestamp: time.Now().Unix()})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	if err := f.queue.Publish(ctx, body); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	report := f.waitTerminal(t, "s1")
	if report.Status != models.ReportStatusDone {
		t.Fatalf("status %s, want DONE", report.Status)
	}
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/models"
	"antiplagiarism/internal/repository"
)

func TestStatsServiceUnknownWork(t *testing.T) {
	svc := NewStatsService(repository.NewMemoryStore(), repository.NewMemoryStore(), repository.NewMemoryStore(), zerolog.Nop())
	if _, err := svc.GetStats(context.Background(), "missing"); !errors.Is(err, ErrWorkNotFound) {
		t.Fatalf("got %v, want ErrWorkNotFound", err)
	}
}

func TestStatsServiceEmptyWork(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewStatsService(store, store, store, zerolog.Nop())

	if _, err := store.CreateWork(ctx, "hw-1", "Essay", "desc"); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}

	stats, err := svc.GetStats(ctx, "hw-1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.WorkID != "hw-1" || stats.TotalSubmissions != 0 || stats.AverageSimilarityPercent != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestStatsServiceAggregates(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewStatsService(store, store, store, zerolog.Nop())

	if _, err := store.CreateWork(ctx, "hw-1", "Essay", "desc"); err != nil {
		t.Fatalf("CreateWork: %v", err)
	}

	submit := func(id string) {
		t.Helper()
		sub := models.Submission{
			SubmissionID: id,
			WorkID:       "hw-1",
			Filename:     id + ".txt",
			Status:       models.SubmissionStatusPending,
			CreatedAt:    time.Now().UTC(),
		}
		if err := store.CreateSubmission(ctx, sub); err != nil {
			t.Fatalf("CreateSubmission %s: %v", id, err)
		}
	}
	finish := func(id string, status models.ReportStatus, similarity float64) {
		t.Helper()
		if err := store.MarkProcessing(ctx, id); err != nil {
			t.Fatalf("MarkProcessing %s: %v", id, err)
		}
		report := models.Report{SubmissionID: id, WorkID: "hw-1", Status: status, SimilarityPercent: similarity, CreatedAt: time.Now().UTC()}
		if err := store.FinishSubmission(ctx, report); err != nil {
			t.Fatalf("FinishSubmission %s: %v", id, err)
		}
	}

	submit("s1")
	submit("s2")
	submit("s3")
	submit("s4")

	finish("s1", models.ReportStatusDone, 100)
	finish("s2", models.ReportStatusDone, 50)
	finish("s3", models.ReportStatusError, 0)
	// s4 stays PENDING

	stats, err := svc.GetStats(ctx, "hw-1")
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalSubmissions != 4 {
		t.Fatalf("total %d, want 4 (every state counts)", stats.TotalSubmissions)
	}
	if stats.AverageSimilarityPercent != 75 {
		t.Fatalf("average %v, want 75 (DONE reports only)", stats.AverageSimilarityPercent)
	}
}

package repository

import (
	"context"
	"sync"
	"time"

	"antiplagiarism/internal/models"
)

// MemoryStore is a process-local implementation of every repository
// interface, guarded by a single mutex so a status transition and its report
// write are observed atomically. Constructed at startup, torn down with the
// process; also the store the tests run against.
type MemoryStore struct {
	mu sync.RWMutex

	works       map[string]models.Work
	submissions map[string]models.Submission
	// submission ids per work, in creation order
	workSubmissions map[string][]string
	reports         map[string]models.Report
	// submission ids with reports per work, in report creation order
	workReports map[string][]string
	contents    map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		works:           make(map[string]models.Work),
		submissions:     make(map[string]models.Submission),
		workSubmissions: make(map[string][]string),
		reports:         make(map[string]models.Report),
		workReports:     make(map[string][]string),
		contents:        make(map[string][]byte),
	}
}

func (s *MemoryStore) CreateWork(ctx context.Context, workID, name, description string) (models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.works[workID]; ok {
		return models.Work{}, ErrWorkAlreadyExists
	}

	work := models.Work{
		WorkID:      workID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	s.works[workID] = work
	return work, nil
}

func (s *MemoryStore) GetWork(ctx context.Context, workID string) (models.Work, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	work, ok := s.works[workID]
	if !ok {
		return models.Work{}, ErrWorkNotFound
	}
	return work, nil
}

func (s *MemoryStore) CreateSubmission(ctx context.Context, submission models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.submissions[submission.SubmissionID] = submission
	s.workSubmissions[submission.WorkID] = append(s.workSubmissions[submission.WorkID], submission.SubmissionID)
	return nil
}

func (s *MemoryStore) GetSubmission(ctx context.Context, submissionID string) (models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	submission, ok := s.submissions[submissionID]
	if !ok {
		return models.Submission{}, ErrSubmissionNotFound
	}
	return submission, nil
}

func (s *MemoryStore) ListDoneSubmissions(ctx context.Context, workID string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var done []models.Submission
	for _, id := range s.workSubmissions[workID] {
		if sub := s.submissions[id]; sub.Status == models.SubmissionStatusDone {
			done = append(done, sub)
		}
	}
	return done, nil
}

func (s *MemoryStore) CountSubmissions(ctx context.Context, workID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.workSubmissions[workID]), nil
}

func (s *MemoryStore) MarkProcessing(ctx context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[submissionID]
	if !ok || submission.Status != models.SubmissionStatusPending {
		return ErrSubmissionNotFound
	}
	submission.Status = models.SubmissionStatusProcessing
	s.submissions[submissionID] = submission
	return nil
}

func (s *MemoryStore) FinishSubmission(ctx context.Context, report models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	submission, ok := s.submissions[report.SubmissionID]
	if !ok || submission.Status != models.SubmissionStatusProcessing {
		return ErrReportExists
	}

	submission.Status = models.SubmissionStatus(report.Status)
	s.submissions[report.SubmissionID] = submission

	if report.MatchedSubmissions == nil {
		report.MatchedSubmissions = []models.MatchedSubmission{}
	}
	s.reports[report.SubmissionID] = report
	s.workReports[report.WorkID] = append(s.workReports[report.WorkID], report.SubmissionID)
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, submissionID string) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[submissionID]
	if !ok {
		return models.Report{}, ErrReportNotFound
	}
	return report, nil
}

func (s *MemoryStore) ListReports(ctx context.Context, workID string) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []models.Report
	for _, id := range s.workReports[workID] {
		reports = append(reports, s.reports[id])
	}
	return reports, nil
}

func (s *MemoryStore) AverageSimilarity(ctx context.Context, workID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	var count int
	for _, id := range s.workReports[workID] {
		if report := s.reports[id]; report.Status == models.ReportStatusDone {
			sum += report.SimilarityPercent
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / float64(count), nil
}

func (s *MemoryStore) PutContent(ctx context.Context, submissionID string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(content))
	copy(buf, content)
	s.contents[submissionID] = buf
	return nil
}

func (s *MemoryStore) GetContent(ctx context.Context, submissionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.contents[submissionID]
	if !ok {
		return nil, ErrContentNotFound
	}
	return content, nil
}

var (
	_ WorkRepository       = (*MemoryStore)(nil)
	_ SubmissionRepository = (*MemoryStore)(nil)
	_ ReportRepository     = (*MemoryStore)(nil)
	_ ContentStore         = (*MemoryStore)(nil)
)

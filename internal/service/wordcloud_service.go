package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"antiplagiarism/internal/repository"
)

// WordCloudService renders a word-frequency chart for a submission's stored
// content through the quickchart wordcloud API.
type WordCloudService interface {
	RenderSubmissionWordCloudPNG(ctx context.Context, submissionID string, opts WordCloudOptions) ([]byte, error)
}

type WordCloudOptions struct {
	Width           int
	Height          int
	MaxWords        int
	MinWordLength   int
	RemoveStopwords bool
	Language        string
}

type wordCloudService struct {
	submissions repository.SubmissionRepository
	contents    repository.ContentStore
	endpoint    string
	httpClient  *http.Client
	logger      zerolog.Logger
}

func NewWordCloudService(
	submissions repository.SubmissionRepository,
	contents repository.ContentStore,
	endpoint string,
	logger zerolog.Logger,
) WordCloudService {
	return &wordCloudService{
		submissions: submissions,
		contents:    contents,
		endpoint:    endpoint,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger,
	}
}

func (s *wordCloudService) RenderSubmissionWordCloudPNG(ctx context.Context, submissionID string, opts WordCloudOptions) ([]byte, error) {
	submission, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	content, err := s.contents.GetContent(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read submission content: %w", err)
	}

	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.MaxWords <= 0 {
		opts.MaxWords = 200
	}
	if opts.MinWordLength <= 0 {
		opts.MinWordLength = 2
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = "en"
	}

	wordList := buildWordList(string(content), opts.MinWordLength, opts.MaxWords)
	if wordList == "" {
		return nil, fmt.Errorf("%w: submission has no renderable words", ErrValidation)
	}

	payload := map[string]interface{}{
		"format":          "png",
		"width":           opts.Width,
		"height":          opts.Height,
		"backgroundColor": "white",
		"removeStopwords": opts.RemoveStopwords,
		"language":        opts.Language,
		"minWordLength":   opts.MinWordLength,
		"useWordList":     true,
		"text":            wordList,
		"scale":           "log",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wordcloud payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrWordCloudUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrWordCloudUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: renderer returned status %d: %s", ErrWordCloudUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrWordCloudUnavailable, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: renderer returned an empty image", ErrWordCloudUnavailable)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("work_id", submission.WorkID).
		Int("png_size", len(img)).
		Msg("Word cloud generated")

	return img, nil
}

// buildWordList turns raw content into the "word:count,word:count" list the
// renderer consumes: lowercased letter/digit runs, short words dropped, the
// most frequent words first.
func buildWordList(text string, minWordLength, maxWords int) string {
	counts := make(map[string]int)
	var current []rune

	flush := func() {
		if len(current) == 0 {
			return
		}
		word := strings.ToLower(string(current))
		current = current[:0]
		if len([]rune(word)) < minWordLength {
			return
		}
		counts[word]++
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current = append(current, r)
		} else {
			flush()
		}
	}
	flush()

	type wordCount struct {
		word  string
		count int
	}
	ranked := make([]wordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, wordCount{word: word, count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})

	if len(ranked) > maxWords {
		ranked = ranked[:maxWords]
	}

	var sb strings.Builder
	for i, wc := range ranked {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(wc.word)
		sb.WriteString(":")
		sb.WriteString(strconv.Itoa(wc.count))
	}
	return sb.String()
}

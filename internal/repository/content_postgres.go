package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rs/zerolog"
)

type postgresContentStore struct {
	*PostgresRepository
}

func NewPostgresContentStore(db *sql.DB, logger zerolog.Logger) ContentStore {
	return &postgresContentStore{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (s *postgresContentStore) PutContent(ctx context.Context, submissionID string, content []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submission_files (submission_id, content)
		VALUES ($1, $2)
	`, submissionID, content)
	return err
}

func (s *postgresContentStore) GetContent(ctx context.Context, submissionID string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT content FROM submission_files WHERE submission_id = $1
	`, submissionID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

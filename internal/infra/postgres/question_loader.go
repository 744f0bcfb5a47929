package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/file"
)

// QuestionLoader loads question set JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionSet{}, errors.Wrapf(domain.ErrQuestionSetNotFound, "%s", setID)
	}
	if err != nil {
		return domain.QuestionSet{}, errors.Wrap(err, "load question set")
	}
	set, err := file.Decode(raw, ".json")
	if err != nil {
		return domain.QuestionSet{}, errors.Wrap(err, "unmarshal question set")
	}
	set.ID = setID
	if err := set.Validate(); err != nil {
		return domain.QuestionSet{}, err
	}
	return set, nil
}

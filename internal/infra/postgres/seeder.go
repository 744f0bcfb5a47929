package postgres

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"timed-quiz-service/internal/domain"
)

// Seeder upserts question sets so the loader can serve them.
type Seeder struct {
	db *bun.DB
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) Upsert(ctx context.Context, set domain.QuestionSet) error {
	if err := set.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(set)
	if err != nil {
		return errors.Wrap(err, "marshal question set")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		set.ID, string(data))
	return errors.Wrapf(err, "upsert question set %s", set.ID)
}

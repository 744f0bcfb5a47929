package cli

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/file"
	"timed-quiz-service/internal/infra/httpsource"
	"timed-quiz-service/internal/infra/memory"
	pgloader "timed-quiz-service/internal/infra/postgres"
	infraredis "timed-quiz-service/internal/infra/redis"
)

// backends holds the optional external connections named in config.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func openBackends(ctx context.Context, cfg config.Config, withRedis bool) (*backends, error) {
	b := &backends{}
	if withRedis && cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, multierror.Append(errors.Wrap(err, "connect postgres"), b.Close())
		}
		b.pool = pool
	}
	return b, nil
}

func (b *backends) Close() error {
	var result *multierror.Error
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "close redis"))
		}
	}
	if b.pool != nil {
		b.pool.Close()
	}
	return result.ErrorOrNil()
}

// questionLoader picks the question source: Postgres, then a remote URL,
// then a local file, then the built-in sample sets.
func (b *backends) questionLoader(cfg config.Config, log logrus.FieldLogger) memory.QuestionLoader {
	switch {
	case b.pool != nil:
		log.Info("loading questions from postgres")
		return pgloader.NewQuestionLoader(b.pool)
	case cfg.Quiz.URL != "":
		log.WithField("url", cfg.Quiz.URL).Info("loading questions over http")
		return httpsource.NewQuestionLoader(cfg.Quiz.URL, config.TTLDuration(cfg.Quiz.RequestTimeout, 10*time.Second))
	case cfg.Quiz.File != "":
		log.WithField("path", cfg.Quiz.File).Info("loading questions from file")
		return file.NewQuestionLoader(cfg.Quiz.File)
	default:
		log.Info("no question source configured, using built-in sample set")
		return memory.NewStaticLoader(sampleQuestionSets())
	}
}

func (b *backends) questionRepository(cfg config.Config, log logrus.FieldLogger) app.QuestionRepository {
	loader := b.questionLoader(cfg, log)
	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if b.redis != nil {
		return infraredis.NewQuestionRepository(b.redis, loader, ttl, log)
	}
	return memory.NewQuestionRepository(loader, ttl)
}

func (b *backends) sessionStore(cfg config.Config, log logrus.FieldLogger) app.SessionRepository {
	if b.redis != nil {
		return infraredis.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), log)
	}
	return memory.NewSessionStore(log)
}

// sampleQuestionSets is served when no question source is configured.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		config.DefaultSet: {
			ID: config.DefaultSet,
			Questions: []domain.Question{
				{Text: "What is the capital of France?", Options: []string{"Berlin", "Paris", "Madrid", "Rome"}, CorrectIndex: 1},
				{Text: "Which planet is known as the Red Planet?", Options: []string{"Mars", "Venus", "Jupiter", "Saturn"}, CorrectIndex: 0},
				{Text: "What is 7 x 8?", Options: []string{"54", "56", "58", "64"}, CorrectIndex: 1},
				{Text: "Which gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"}, CorrectIndex: 2},
				{Text: "How many continents are there?", Options: []string{"Five", "Six", "Seven", "Eight"}, CorrectIndex: 2},
			},
		},
	}
}

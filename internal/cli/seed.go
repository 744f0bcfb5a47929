package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/infra/file"
	pgloader "timed-quiz-service/internal/infra/postgres"
)

// NewSeedCmd copies a question set from a JSON or YAML file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		path  string
		setID string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert a question set file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			log := config.NewLogger(cfg)
			if path == "" {
				path = cfg.Quiz.File
			}
			if setID == "" {
				setID = cfg.Quiz.Set
			}

			set, err := file.NewQuestionLoader(path).LoadQuestionSet(ctx, setID)
			if err != nil {
				return err
			}

			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrateDB(ctx, db, log); err != nil {
				return err
			}
			if err := pgloader.NewSeeder(db).Upsert(ctx, set); err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"set": set.ID, "questions": len(set.Questions)}).Info("question set seeded")
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "question file or directory (defaults to quiz.file)")
	cmd.Flags().StringVar(&setID, "set", "", "question set id (defaults to quiz.set)")
	return cmd
}

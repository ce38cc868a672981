package cli

import (
	"fmt"

	"quiz-score-service/internal/app"
	"quiz-score-service/internal/config"
	"quiz-score-service/internal/domain"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads the sample question bank into the configured backend.
func NewSeedCmd(configPath *string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load sample questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Storage.Backend == config.BackendMemory {
				log.Warn("seeding the memory backend only lasts for this process")
			}

			ctx := cmd.Context()
			d, err := buildDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			existing, err := d.questions.Categories(ctx)
			if err != nil {
				return err
			}
			if len(existing) > 0 && !force {
				log.Info("question bank already populated, skipping (use --force to add anyway)",
					zap.Int("categories", len(existing)))
				return nil
			}

			admin := app.NewAdminService(d.questions, d.catalog, log)
			for _, in := range sampleQuestions() {
				if _, err := admin.CreateQuestion(ctx, in); err != nil {
					return fmt.Errorf("seed %q: %w", in.Text, err)
				}
			}
			log.Info("sample questions loaded", zap.Int("count", len(sampleQuestions())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "insert even when questions already exist")
	return cmd
}

func sampleQuestions() []app.QuestionInput {
	return []app.QuestionInput{
		{Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1, Category: "math", Difficulty: domain.DifficultyBeginner},
		{Text: "What is 12 x 12?", Options: []string{"124", "144", "132"}, CorrectIndex: 1, Category: "math", Difficulty: domain.DifficultyIntermediate},
		{Text: "What is the derivative of x^2?", Options: []string{"x", "2x", "x^2/2"}, CorrectIndex: 1, Category: "math", Difficulty: domain.DifficultyAdvanced},
		{Text: "What is the chemical symbol for water?", Options: []string{"H2O", "CO2", "O2"}, CorrectIndex: 0, Category: "science", Difficulty: domain.DifficultyBeginner,
			Explanation: "Two hydrogen atoms bonded to one oxygen atom."},
		{Text: "Which planet is the largest?", Options: []string{"Mars", "Saturn", "Jupiter"}, CorrectIndex: 2, Category: "science", Difficulty: domain.DifficultyBeginner},
		{Text: "What is the powerhouse of the cell?", Options: []string{"Nucleus", "Mitochondria", "Ribosome"}, CorrectIndex: 1, Category: "science", Difficulty: domain.DifficultyIntermediate},
		{Text: "Which keyword starts a goroutine?", Options: []string{"go", "async", "spawn"}, CorrectIndex: 0, Category: "programming", Difficulty: domain.DifficultyBeginner},
		{Text: "What does a nil map panic on?", Options: []string{"read", "write", "len"}, CorrectIndex: 1, Category: "programming", Difficulty: domain.DifficultyAdvanced},
	}
}

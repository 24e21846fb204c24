package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/scoring"
	"github.com/spigell/cv-screener/internal/screening"
)

const (
	PromptReport        = "Show ranked report"
	PromptFilters       = "Show filter steps"
	PromptToFile        = "Dump results to file"
	PromptAppendExclude = "Append screened CVs to exclude file"
	PromptExit          = "Exit"
)

var errExit = errors.New("exit requested")

var screenCmd = &cobra.Command{
	Use:   "screen [cv files...]",
	Short: "Parse and score several CVs against one job, then filter and rank them",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		screen(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().String("job", "", "a YAML or JSON file with job requirements")
	screenCmd.Flags().String("job-description", "", "a file with the job description text")
	screenCmd.Flags().String("title", "", "job title, overrides the one found in the job description")
	screenCmd.Flags().String("company", "", "company, overrides the one found in the job description")
	screenCmd.Flags().StringP("mode", "m", "", "scoring mode: standard or enhanced (default standard)")
	screenCmd.Flags().Float64("minimum-score", 0, "drop candidates scoring below this value")
	screenCmd.Flags().StringSlice("must-have", nil, "drop candidates lacking any of these skills")
	screenCmd.Flags().BoolP("keep-failed", "k", false, "keep CVs that could not be parsed in the report")
	screenCmd.Flags().StringP("exclude-file", "e", "", "a file listing CVs reviewed earlier; they are skipped. Default is unset.")
	screenCmd.Flags().BoolP("auto-approve", "y", false, "print the report and exit without asking")

	screenCmd.MarkFlagsMutuallyExclusive("job", "job-description")
	screenCmd.MarkFlagsOneRequired("job", "job-description")

	viper.BindPFlag("screen.minimum-score", screenCmd.Flags().Lookup("minimum-score"))
	viper.BindPFlag("screen.must-have-skills", screenCmd.Flags().Lookup("must-have"))
	viper.BindPFlag("screen.exclude-file", screenCmd.Flags().Lookup("exclude-file"))
}

func screen(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup("screen")
	if config.Screen == nil {
		config.Screen = &ScreenConfig{}
	}

	scorer, err := newScorer(config.Scoring, logger)
	if err != nil {
		logger.Fatal("creating a scorer", zap.Error(err))
	}

	mode, err := screenMode(cmd, config)
	if err != nil {
		logger.Fatal("choosing a scoring mode", zap.Error(err))
	}

	job, err := loadJob(cmd, scorer)
	if err != nil {
		logger.Fatal("loading job requirements", zap.Error(err))
	}

	docs, err := readDocuments(args)
	if err != nil {
		logger.Fatal("reading cv files", zap.Error(err))
	}

	excludeFile := config.Screen.ExcludeFile
	if excludeFile != "" {
		excluded, err := screening.LoadExcluded(excludeFile)
		if err != nil {
			logger.Fatal("reading exclude file", zap.String("filename", excludeFile), zap.Error(err))
		}
		var skipped []string
		docs, skipped = excluded.Filter(docs)
		if len(skipped) > 0 {
			logger.Info("skipping cvs reviewed earlier", zap.Strings("sources", skipped))
		}
	}

	if len(docs) == 0 {
		logger.Info("exiting", zap.String("reason", "no cvs left to screen"))
		return
	}

	p, model, err := newParser(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating a cv parser", zap.Error(err))
	}

	logger.Info("starting the screening",
		zap.String("job_title", job.Title),
		zap.Int("cvs", len(docs)),
		zap.String("model", model),
	)

	screener := screening.NewScreener(p, scorer, screening.Options{
		Concurrency: config.Screen.Concurrency,
		Attempts:    config.Screen.ParseAttempts,
		Mode:        mode,
	}, logger)

	candidates, err := screener.Screen(ctx, docs, job)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	filters := prepareFilters(cmd, config.Screen, logger)
	candidates, err = filters.RunFilters(ctx, candidates)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}
	candidates.Rank()

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	if cmd.Flag("auto-approve").Value.String() == "true" {
		if err := handleScreenAction(PromptReport, logger, excludeFile, candidates, filters); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	items := []string{PromptReport, PromptFilters, PromptToFile}
	if excludeFile != "" {
		items = append(items, PromptAppendExclude)
	}
	actionPrompt := promptui.Select{
		Label: "What next?",
		Items: append(items, PromptExit),
	}

	for {
		logger.Info("current list of candidates", zap.Int("count", candidates.Len()))

		_, action, err := actionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleScreenAction(action, logger, excludeFile, candidates, filters); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleScreenAction(action string, logger *zap.Logger, excludeFile string, candidates *screening.Candidates, filters *screening.Filtering) error {
	switch action {
	case PromptReport:
		pretty, _ := json.MarshalIndent(candidates.Report(), "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptFilters:
		pretty, _ := json.MarshalIndent(filters.Describe(), "", "  ")
		logger.Info(string(pretty))
		return nil
	case PromptToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendExclude:
		excluded, err := screening.LoadExcluded(excludeFile)
		if err != nil {
			return err
		}
		excluded.Append(candidates.ToExcluded(time.Now()))
		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}
		logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", candidates.Len()))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// screenMode is like resolveMode but never asks: batches default to standard.
func screenMode(cmd *cobra.Command, config *Config) (scoring.Mode, error) {
	if value, _ := cmd.Flags().GetString("mode"); value != "" {
		return scoring.ParseMode(value)
	}
	if config.Scoring != nil && config.Scoring.Mode != "" {
		return scoring.ParseMode(config.Scoring.Mode)
	}
	return scoring.ModeStandard, nil
}

func prepareFilters(cmd *cobra.Command, cfg *ScreenConfig, logger *zap.Logger) *screening.Filtering {
	filters := screening.New([]screening.Filter{
		screening.NewFailedParses(logger),
		screening.NewMinimumScore(cfg.MinimumScore, logger),
		screening.NewMustHaveSkills(cfg.MustHaveSkills, logger),
	}, logger)

	if cmd.Flag("keep-failed").Value.String() == "true" {
		filters.DisableByName("failed_parses", "--keep-failed is set")
	}
	return filters
}

func readDocuments(paths []string) ([]screening.Document, error) {
	docs := make([]screening.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, screening.Document{Source: filepath.Clean(path), Text: string(data)})
	}
	return docs, nil
}

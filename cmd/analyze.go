package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/cv-screener/internal/jobdesc"
	"github.com/spigell/cv-screener/internal/profile"
	"github.com/spigell/cv-screener/internal/scoring"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score one CV against a job and print the match result as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("cv", "", "a file with the CV text, - for stdin")
	analyzeCmd.Flags().String("profile", "", "a YAML or JSON candidate profile; the language model is not called")
	analyzeCmd.Flags().String("job", "", "a YAML or JSON file with job requirements")
	analyzeCmd.Flags().String("job-description", "", "a file with the job description text")
	analyzeCmd.Flags().String("title", "", "job title, overrides the one found in the job description")
	analyzeCmd.Flags().String("company", "", "company, overrides the one found in the job description")
	analyzeCmd.Flags().StringP("mode", "m", "", "scoring mode: standard or enhanced (asked interactively when unset)")

	analyzeCmd.MarkFlagsMutuallyExclusive("cv", "profile")
	analyzeCmd.MarkFlagsOneRequired("cv", "profile")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-description")
	analyzeCmd.MarkFlagsOneRequired("job", "job-description")
}

type analysis struct {
	Candidate *profile.CandidateProfile `json:"candidate"`
	Result    *scoring.MatchResult      `json:"result"`
}

func analyze(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup("analyze")

	scorer, err := newScorer(config.Scoring, logger)
	if err != nil {
		logger.Fatal("creating a scorer", zap.Error(err))
	}

	mode, err := resolveMode(cmd, config)
	if err != nil {
		logger.Fatal("choosing a scoring mode", zap.Error(err))
	}

	job, err := loadJob(cmd, scorer)
	if err != nil {
		logger.Fatal("loading job requirements", zap.Error(err))
	}

	candidate, err := loadCandidate(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("getting a candidate profile", zap.Error(err))
	}

	result, err := scorer.Score(mode, candidate, job)
	if err != nil {
		logger.Fatal("scoring", zap.Error(err))
	}

	logger.Info("analysis completed",
		zap.String("candidate", result.CandidateName),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("recommendation", string(result.Recommendation)),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis{Candidate: candidate, Result: result}); err != nil {
		logger.Fatal("writing the result", zap.Error(err))
	}
}

// resolveMode prefers --mode, then scoring.mode from the config, then asks.
func resolveMode(cmd *cobra.Command, config *Config) (scoring.Mode, error) {
	if value, _ := cmd.Flags().GetString("mode"); value != "" {
		return scoring.ParseMode(value)
	}
	if config.Scoring != nil && config.Scoring.Mode != "" {
		return scoring.ParseMode(config.Scoring.Mode)
	}

	modePrompt := promptui.Select{
		Label: "Scoring mode",
		Items: []string{string(scoring.ModeStandard), string(scoring.ModeEnhanced)},
	}
	_, value, err := modePrompt.Run()
	if err != nil {
		return "", err
	}
	return scoring.ParseMode(value)
}

func loadJob(cmd *cobra.Command, scorer *scoring.Scorer) (*profile.JobRequirements, error) {
	title, _ := cmd.Flags().GetString("title")
	company, _ := cmd.Flags().GetString("company")

	if path, _ := cmd.Flags().GetString("job"); path != "" {
		var draft profile.JobRequirements
		if err := decodeFile(path, &draft); err != nil {
			return nil, err
		}
		if title != "" {
			draft.Title = title
		}
		if company != "" {
			draft.Company = company
		}
		return profile.NewJobRequirements(draft)
	}

	path, _ := cmd.Flags().GetString("job-description")
	text, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return jobdesc.Parse(text, scorer.Keywords(), jobdesc.Overrides{Title: title, Company: company})
}

func loadCandidate(ctx context.Context, cmd *cobra.Command, config *Config, logger *zap.Logger) (*profile.CandidateProfile, error) {
	if path, _ := cmd.Flags().GetString("profile"); path != "" {
		var draft profile.CandidateProfile
		if err := decodeFile(path, &draft); err != nil {
			return nil, err
		}
		return profile.NewCandidateProfile(draft)
	}

	path, _ := cmd.Flags().GetString("cv")
	text, err := readInput(path)
	if err != nil {
		return nil, err
	}

	p, _, err := newParser(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, text)
}

// decodeFile reads YAML, and therefore JSON, into out. Unknown keys are rejected.
func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

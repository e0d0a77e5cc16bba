package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume file against a job description and print the result as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .docx, .doc or .txt)")
	analyzeCmd.Flags().StringP("job", "t", "", "job description text")
	analyzeCmd.Flags().StringP("job-file", "f", "", "file with the job description")
	analyzeCmd.MarkFlagsMutuallyExclusive("job", "job-file")
	analyzeCmd.MarkFlagRequired("resume")
}

func analyze(cmd *cobra.Command) error {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		return err
	}

	logger.Info("starting the resume-scorer", zap.String("version", version))

	resumePath, _ := cmd.Flags().GetString("resume")
	data, err := os.ReadFile(resumePath)
	if err != nil {
		return fmt.Errorf("reading resume: %w", err)
	}

	jd, err := jobDescription(cmd, os.Stdin)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cmd.Context(), config, logger)
	if err != nil {
		return err
	}

	result, err := p.Analyze(cmd.Context(), pipeline.Upload{
		Name: filepath.Base(resumePath),
		Data: data,
	}, jd)
	if err != nil {
		logger.Error("analysis failed", zap.String("kind", string(pipeline.KindOf(err))), zap.Error(err))
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// jobDescription takes the description from --job or --job-file, and asks for
// it interactively when neither is set and stdin is a terminal.
func jobDescription(cmd *cobra.Command, stdin *os.File) (string, error) {
	if text, _ := cmd.Flags().GetString("job"); strings.TrimSpace(text) != "" {
		return text, nil
	}

	if path, _ := cmd.Flags().GetString("job-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading job description: %w", err)
		}
		return string(data), nil
	}

	if stdin == nil {
		return "", nil
	}

	if !isTerminal(stdin) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading job description from stdin: %w", err)
		}
		return string(data), nil
	}

	prompt := promptui.Prompt{
		Label: "Job description",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("job description is required")
			}
			return nil
		},
	}

	return prompt.Run()
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

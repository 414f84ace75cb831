package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/genmeta/api"
	"github.com/agentic-research/genmeta/internal/extract"
)

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
}

var rootCmd = &cobra.Command{
	Use:   "genmeta [image.png]",
	Short: "Extract embedded AI-generation metadata from a PNG image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		engine := extract.New(cfg.engineConfig())
		defer engine.Close()

		var src extract.FileSource
		data, err := src.Fetch(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		s, err := engine.Extract(data)
		if err != nil {
			return fmt.Errorf("extract %s: %w", args[0], err)
		}
		printSummary(s)
		return nil
	},
}

func printSummary(s api.Summary) {
	fmt.Printf("Positive prompt: %s\n", s.PositivePrompt)
	fmt.Printf("Negative prompt: %s\n", s.NegativePrompt)
	fmt.Printf("Model:           %s\n", s.Model)
	fmt.Printf("LoRAs:           %s\n", s.Loras)
	fmt.Printf("Steps:           %s\n", s.Steps)
	fmt.Printf("CFG scale:       %s\n", s.CFGScale)
	fmt.Printf("Sampler:         %s\n", s.Sampler)
	fmt.Printf("Seed:            %s\n", s.Seed)
	fmt.Printf("Clip skip:       %s\n", s.ClipSkip)
	fmt.Printf("Workflow:        %s\n", s.WorkflowSummary)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

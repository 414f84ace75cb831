package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/genmeta/internal/extract"
	"github.com/agentic-research/genmeta/internal/index"
)

var indexCmd = &cobra.Command{
	Use:   "index [dir] [output.db]",
	Short: "Scan a directory of PNG images into a SQLite summary index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, output := args[0], args[1]

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		engine := extract.New(cfg.engineConfig())
		defer engine.Close()

		writer, err := index.NewWriter(output)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}

		indexed := 0
		walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".png") {
				return nil
			}

			data, rerr := os.ReadFile(path)
			if rerr != nil {
				slog.Warn("skipping unreadable file", "path", path, "err", rerr)
				return nil
			}
			s, xerr := engine.Extract(data)
			if xerr != nil {
				// Not a real PNG despite the extension; skip, don't abort.
				slog.Warn("skipping file", "path", path, "err", xerr)
				return nil
			}
			if aerr := writer.Add(extract.Fingerprint(data), path, s); aerr != nil {
				return aerr
			}
			indexed++
			return nil
		})
		if walkErr != nil {
			_ = writer.Close()
			return walkErr
		}
		if err := writer.Close(); err != nil {
			return err
		}

		fmt.Printf("Indexed %d images into %s\n", indexed, output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

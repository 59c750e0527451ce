package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entforge/entkit"
	"github.com/entforge/entkit/internal/report"
	"github.com/entforge/entkit/internal/writer"
)

var fmtWrite bool

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Reformat entity definition files",
	Long: `Parses each file and writes it back with canonical formatting.
Directories are walked recursively for files matching the configured
extensions. Without -w the result is printed to stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		config, err := loadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}

		w := &writer.Writer{Indent: config.Indent}
		failures, err := entkit.ProcessFiles(context.Background(), logger, args, config.Extensions, func(path string) error {
			return formatFile(w, path, fmtWrite, config.Compress)
		})
		if err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}
		if len(failures) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write result back to the source file instead of stdout")
}

func formatFile(w *writer.Writer, path string, write, compress bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if entkit.IsCompressed(data) {
		if data, err = entkit.Decompress(data); err != nil {
			return err
		}
	}

	doc, err := entkit.Parse(data)
	if err != nil {
		fmt.Print(report.Format(path, string(data), err))
		return err
	}

	out := []byte(w.Document(doc))
	if !write {
		fmt.Print(string(out))
		return nil
	}
	if compress {
		if out, err = entkit.Compress(out); err != nil {
			return err
		}
	}
	return os.WriteFile(path, out, 0o644)
}

/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocadrill/internal/importer"
	"github.com/eslsoft/vocadrill/internal/infrastructure/config"
)

// importCmd converts tabular word lists into topic content documents.
var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import a word list into topic JSON content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("output")
		sheet, _ := cmd.Flags().GetString("sheet")
		keepHeader, _ := cmd.Flags().GetBool("keep-header")

		if outputDir == "" {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			outputDir = cfg.Content.Dir
		}

		result, err := importer.Run(importer.Options{
			InputPath:  args[0],
			OutputDir:  outputDir,
			SheetName:  sheet,
			SkipHeader: !keepHeader,
		})
		if err != nil {
			return err
		}

		fmt.Printf("imported %d words into %d topics (%d rows processed)\n",
			result.WordsImported, result.TopicsWritten, result.TotalRows)
		for _, rowErr := range result.Errors {
			fmt.Printf("skipped: %s\n", rowErr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("output", "", "output directory for topic documents (default: configured content dir)")
	importCmd.Flags().String("sheet", "", "sheet name for xlsx input (default: first sheet)")
	importCmd.Flags().Bool("keep-header", false, "treat the first row as data instead of a header")
}

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
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	adapterrepo "github.com/eslsoft/vocadrill/internal/adapter/repository"
	"github.com/eslsoft/vocadrill/internal/infrastructure/config"
	infraDB "github.com/eslsoft/vocadrill/internal/infrastructure/database"
)

// exportCmd dumps the cached learning progress aggregate as JSON, either to
// stdout or to a file. Useful as a manual backup before resetting the cache.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the cached learning progress as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = defaultExportFilename()
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		cache := adapterrepo.NewProgressCacheRepository(db)
		progress, err := cache.Load(cmd.Context())
		if err != nil {
			return err
		}
		if progress == nil {
			return fmt.Errorf("no progress stored yet")
		}

		raw, err := json.MarshalIndent(progress, "", "  ")
		if err != nil {
			return fmt.Errorf("encode progress: %w", err)
		}

		if outputPath == "-" {
			fmt.Println(string(raw))
			return nil
		}
		if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("progress exported to %s\n", outputPath)
		return nil
	},
}

func defaultExportFilename() string {
	return fmt.Sprintf("vocadrill-progress-%s.json", time.Now().Format("20060102-150405"))
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("output", "", "output path, or - for stdout (default: timestamped file)")
}

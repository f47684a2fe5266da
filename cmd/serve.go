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
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/vocadrill/internal/adapter/httpapi"
	adapterrepo "github.com/eslsoft/vocadrill/internal/adapter/repository"
	"github.com/eslsoft/vocadrill/internal/grammar"
	"github.com/eslsoft/vocadrill/internal/infrastructure/config"
	infraDB "github.com/eslsoft/vocadrill/internal/infrastructure/database"
	"github.com/eslsoft/vocadrill/internal/infrastructure/server"
	"github.com/eslsoft/vocadrill/internal/reminder"
	"github.com/eslsoft/vocadrill/internal/repository"
	"github.com/eslsoft/vocadrill/internal/usecase"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the learning engine HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err := server.NewLogger(cfg)
		if err != nil {
			return fmt.Errorf("setup logger: %w", err)
		}

		db, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("db connect: %w", err)
		}
		defer cleanup()

		cache := adapterrepo.NewProgressCacheRepository(db)
		if err := cache.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate progress cache: %w", err)
		}

		var mirror repository.ProgressMirror
		if cfg.Remote.BaseURL != "" {
			mirror = adapterrepo.NewProgressMirrorClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout)
			logger.WithField("remote", cfg.Remote.BaseURL).Info("remote progress mirror enabled")
		}

		progress := usecase.NewProgressUsecase(cache, mirror, logger, cfg.Remote.Debounce)
		if err := progress.Load(ctx); err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		defer progress.Close()

		topics := adapterrepo.NewTopicContentRepository(cfg.Content.Dir, logger)
		quizzes := usecase.NewQuizManager(topics, progress, logger)
		grammarSvc := buildGrammarService(ctx, cfg, logger)

		handler := httpapi.NewHandler(topics, progress, quizzes, grammarSvc, logger)
		srv := server.NewServer(cfg, logger, handler.Router())

		var reminders *reminder.Scheduler
		if cfg.Reminder.Enabled && cfg.Reminder.TelegramToken != "" {
			notifier, err := reminder.NewTelegramNotifier(cfg.Reminder.TelegramToken, cfg.Reminder.TelegramChat)
			if err != nil {
				return fmt.Errorf("setup telegram notifier: %w", err)
			}
			reminders = reminder.NewScheduler(progress, notifier, logger, reminder.Options{
				Interval:    cfg.Reminder.Interval,
				WakingStart: cfg.Reminder.WakingStart,
				WakingEnd:   cfg.Reminder.WakingEnd,
			})
			if err := reminders.Start(); err != nil {
				return fmt.Errorf("start reminders: %w", err)
			}
			defer reminders.Stop()
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			progress.Flush(shutdownCtx)
			return srv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

// buildGrammarService constructs the configured grammar backend. An
// unreachable backend is only a warning: the service degrades every failed
// check to its neutral fallback at evaluation time.
func buildGrammarService(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *grammar.Service {
	if cfg.Grammar.Backend == "none" {
		return nil
	}
	checker, err := grammar.NewChecker(grammar.Config{
		Provider:      cfg.Grammar.Backend,
		OllamaBaseURL: cfg.Grammar.BaseURL,
		OllamaModel:   cfg.Grammar.Model,
		OpenAIAPIKey:  cfg.Grammar.APIKey,
		OpenAIBaseURL: cfg.Grammar.BaseURL,
		OpenAIModel:   cfg.Grammar.Model,
		Timeout:       cfg.Grammar.Timeout,
	})
	if err != nil {
		logger.WithError(err).Warn("grammar backend misconfigured, translation scoring runs local-only")
		return nil
	}
	if !checker.Available(ctx) {
		logger.WithField("backend", checker.Name()).Warn("grammar backend unreachable at startup")
	}
	return grammar.NewService(checker, cfg.Grammar.MaxAttempts, logger)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/studypilot/assessment-service/internal/cache"
	"github.com/studypilot/assessment-service/pkg"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the redis grade cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop every cached short-answer grade",
	Long: `Removes the cached grades so the next grading pass asks the LLM again,
e.g. after switching provider or model. Other redis keys are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if a.cfg.RedisURL == "" {
			return errors.New("REDIS_URL is not set")
		}

		ctx := cmd.Context()
		client, err := pkg.NewRedisClient(ctx, a.cfg)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		if err := cache.FlushGrades(ctx, cache.NewRedisCache(client, a.logger)); err != nil {
			return fmt.Errorf("flush grades: %w", err)
		}
		a.logger.Info("Grade cache flushed")
		fmt.Fprintln(cmd.OutOrStdout(), "grade cache flushed")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheFlushCmd)
}

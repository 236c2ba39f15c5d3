package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
)

var (
	jobsCmd = &cobra.Command{
		Use:   "jobs",
		Short: "run background jobs once",
	}

	// 不启动调度器，直接处理一批待清理媒体.
	jobsCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "process media marked as cleanup pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(c *configs.AppConfig, _ *storage.Manager, s *service.Services) error {
				res, err := s.Media.ProcessPendingCleanup(cmd.Context(), c.Jobs.CleanupBatch)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "processed: %d, deleted: %d, failed: %d, gave up: %d\n",
					res.Processed, res.Deleted, res.Failed, res.GaveUp)

				return nil
			})
		},
	}
)

func registerJobCommands() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsCleanupCmd)
}

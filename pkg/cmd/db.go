package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/db"
)

var (
	migrateBatch int

	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered database types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(dbType))
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(_ *configs.AppConfig, m *storage.Manager, _ *service.Services) error {
				if err := m.DB.Migrate(cmd.Context()); err != nil {
					return err
				}

				fmt.Fprintln(cmd.OutOrStdout(), "migration finished")

				return nil
			})
		},
	}

	// 把旧的头像外链转存为媒体记录.
	dbMigratePicturesCmd = &cobra.Command{
		Use:   "migrate-profile-pictures",
		Short: "copy external profile pictures into the media library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), func(_ *configs.AppConfig, _ *storage.Manager, s *service.Services) error {
				res, err := s.Users.MigrateProfilePictures(cmd.Context(), migrateBatch)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "migrated: %d, failed: %d\n", res.Migrated, res.Failed)

				for _, e := range res.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), "   - "+e)
				}

				return nil
			})
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	dbMigratePicturesCmd.Flags().IntVar(&migrateBatch, "batch", 100, "users per batch")

	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbMigratePicturesCmd)
}

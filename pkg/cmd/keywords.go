package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

var (
	keywordCmd = &cobra.Command{
		Use:     "keywords",
		Short:   "Keyword related commands",
		Aliases: []string{"keyword", "kw"},
	}

	keywordImportCmd = &cobra.Command{
		Use:   "import <file.csv>",
		Short: "import keywords from a name,description csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withServices(cmd.Context(), func(c *configs.AppConfig, _ *storage.Manager, s *service.Services) error {
				admin := types.NewPrincipal("cli", "", []string{c.Auth.AdminRole}, c.Auth.AdminRole)

				res, err := s.Keywords.ImportCSV(cmd.Context(), admin, f)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "created: %d, skipped: %d\n", res.Created, res.Skipped)

				for _, e := range res.Errors {
					fmt.Fprintln(cmd.ErrOrStderr(), "   - "+e)
				}

				return nil
			})
		},
	}
)

func registerKeywordCommands() {
	rootCmd.AddCommand(keywordCmd)
	keywordCmd.AddCommand(keywordImportCmd)
}

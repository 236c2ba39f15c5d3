package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/middleware"
	"github.com/yeisme/sharesmallbiz/pkg/rule"
)

var (
	tokenUser  string
	tokenEmail string
	tokenRoles []string
	tokenTTL   time.Duration

	// 本地调试用，签发 HS256 Bearer Token.
	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "issue a bearer token signed with auth.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokenUser == "" {
				return errors.New("--user is required")
			}

			if err := rule.ValidateVar(tokenEmail, "omitempty,email"); err != nil {
				return fmt.Errorf("--email: %w", err)
			}

			c, err := loadConfig()
			if err != nil {
				return err
			}

			p := types.NewPrincipal(tokenUser, tokenEmail, tokenRoles, c.Auth.AdminRole)

			token, err := middleware.IssueToken(c.Auth, p, tokenTTL)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)

			return nil
		},
	}
)

func registerTokenCommands() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "user id (sub)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "roles", nil, "comma separated roles")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(tokenCmd)
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/greenbelt-recorded-talks/talks-processing/internal/api/middleware"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Sign an API token for a crew member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch tokenRole {
		case middleware.RoleAdmin, middleware.RoleTeamLeader, middleware.RoleRecorder:
		default:
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		if current.cfg.Server.JWTSecret == "" {
			return errors.New("server.jwt_secret is not set (ROTA_SERVER_JWT_SECRET)")
		}

		tok, err := middleware.IssueToken([]byte(current.cfg.Server.JWTSecret), args[0], tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", middleware.RoleTeamLeader, "admin, team_leader or recorder")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 7*24*time.Hour, "token lifetime")
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/config"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/dbpool"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/store"
)

func newOwnerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage owners of the self-hosted store",
	}
	cmd.AddCommand(ownerCreateCmd())
	return cmd
}

func ownerCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Register an owner and print their API key",
		Long:  "Connects to DATABASE_URL directly. The API key is shown once; only its hash is stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			pool, err := dbpool.NewPool(cmd.Context(), cfg.DatabaseURL.Value(), dbpool.Options{MaxConns: 1})
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			ownerID, apiKey, err := store.NewOwnerStore(pool).CreateOwner(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			output(cmd.OutOrStdout(), map[string]string{"owner_id": ownerID, "api_key": apiKey}, apiKey)
			return nil
		},
	}
}

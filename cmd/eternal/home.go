package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

func newHomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "home <tree-id> <person-id>",
		Short: "Set the home person of a tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), service.DefaultGenerations)
			if err != nil {
				return err
			}

			tree, err := s.svc.SetHomePerson(args[0], args[1])
			failed := s.close()
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("home person not saved: %d writes failed", failed)
			}

			output(cmd.OutOrStdout(), tree, tree.ID)
			return nil
		},
	}
}

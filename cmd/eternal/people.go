package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

func newPeopleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "people",
		Short: "List and remove people",
	}
	cmd.AddCommand(peopleListCmd())
	cmd.AddCommand(peopleDeleteCmd())
	return cmd
}

func peopleListCmd() *cobra.Command {
	var tree string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List people, optionally only the members of one tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), service.DefaultGenerations)
			if err != nil {
				return err
			}
			defer s.close()

			people := s.cache.People.Items()
			if tree != "" {
				t, ok := s.cache.Trees.Get(tree)
				if !ok {
					return fmt.Errorf("%w: %s", models.ErrTreeNotFound, tree)
				}
				people = membersOf(people, t.MemberIDs)
			}

			printPeople(cmd.OutOrStdout(), people)
			return nil
		},
	}
	cmd.Flags().StringVar(&tree, "tree", "", "Only members of this tree")
	return cmd
}

func peopleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <person-id>",
		Short: "Delete a person and unlink them from relatives and trees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), service.DefaultGenerations)
			if err != nil {
				return err
			}

			err = s.svc.DeletePerson(args[0])
			failed := s.close()
			if err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("delete incomplete: %d writes failed", failed)
			}

			output(cmd.OutOrStdout(), map[string]string{"deleted": args[0]}, args[0])
			return nil
		},
	}
}

func membersOf(people []models.Person, ids []string) []models.Person {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]models.Person, 0, len(ids))
	for _, p := range people {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func printPeople(w io.Writer, people []models.Person) {
	switch flagFmt {
	case "table":
		rows := make([][]string, 0, len(people))
		for _, p := range people {
			rows = append(rows, []string{
				p.ID,
				p.Name,
				lifespan(p),
				strconv.Itoa(len(p.ParentIDs)) + "/" + strconv.Itoa(len(p.ChildIDs)) + "/" + strconv.Itoa(len(p.SpouseIDs)),
			})
		}
		formatTable(w, []string{"ID", "NAME", "LIFE", "PARENTS/CHILDREN/SPOUSES"}, rows)
	case "quiet":
		ids := make([]string, 0, len(people))
		for _, p := range people {
			ids = append(ids, p.ID)
		}
		fmt.Fprintln(w, strings.Join(ids, "\n"))
	default:
		formatJSON(w, people)
	}
}

func lifespan(p models.Person) string {
	if p.BirthYear == "" && p.DeathYear == "" {
		return ""
	}
	return p.BirthYear + "-" + p.DeathYear
}

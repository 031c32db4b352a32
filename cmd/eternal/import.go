package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/client"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/gedcom"
	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/service"
)

type importFlags struct {
	generations int
	treeName    string
	anchor      string
	allRoots    bool
	server      bool
}

// importSummary is what a local import prints.
type importSummary struct {
	TreeID   string `json:"tree_id"`
	TreeName string `json:"tree_name"`
	People   int    `json:"people"`
	Added    int    `json:"added"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

func newImportCmd() *cobra.Command {
	var f importFlags

	cmd := &cobra.Command{
		Use:   "import <file.ged>",
		Short: "Import a GEDCOM file into a family tree",
		Long: "Parses a GEDCOM file, merges the persons within --generations of the\n" +
			"start person into the stored people and creates a tree over them.\n" +
			"Use --backend memory for a dry run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case !cmd.Flags().Changed("generations"):
				f.generations = service.DefaultGenerations
			case f.generations < 0:
				return fmt.Errorf("--generations must not be negative")
			}
			text, err := readInput(args[0])
			if err != nil {
				return err
			}
			if f.server {
				return runServerImport(cmd.Context(), cmd.OutOrStdout(), text, f)
			}
			return runLocalImport(cmd.Context(), cmd.OutOrStdout(), text, f)
		},
	}

	cmd.Flags().IntVarP(&f.generations, "generations", "g", 0, "Generations to walk from the start person, 0 for the person and spouses (default from MAX_GENERATIONS)")
	cmd.Flags().StringVar(&f.treeName, "tree-name", "", "Name of the created tree")
	cmd.Flags().StringVar(&f.anchor, "anchor", "", "Xref of the start person, e.g. @I12@")
	cmd.Flags().BoolVar(&f.allRoots, "all-roots", false, "Walk from every individual instead of the first one")
	cmd.Flags().BoolVar(&f.server, "server", false, "Let the server run the import")
	return cmd
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func (f importFlags) options() []gedcom.Option {
	var opts []gedcom.Option
	if f.treeName != "" {
		opts = append(opts, gedcom.WithTreeName(f.treeName))
	}
	if f.anchor != "" {
		opts = append(opts, gedcom.WithAnchor(f.anchor))
	}
	if f.allRoots {
		opts = append(opts, gedcom.WithAllRoots())
	}
	return opts
}

func runLocalImport(ctx context.Context, w io.Writer, text string, f importFlags) error {
	s, err := openSession(ctx, f.generations)
	if err != nil {
		return err
	}

	rep, err := s.svc.ImportGEDCOM(text, f.options()...)
	if err != nil {
		s.close()
		return err
	}

	sum := importSummary{
		TreeID:   rep.Tree.ID,
		TreeName: rep.Tree.Name,
		People:   rep.People,
		Added:    rep.Added,
		Updated:  rep.Updated,
		Skipped:  rep.Skipped,
		Failed:   s.close(),
	}

	if flagFmt == "table" {
		formatTable(w, []string{"TREE", "PEOPLE", "ADDED", "UPDATED", "SKIPPED", "FAILED"}, [][]string{{
			sum.TreeName,
			strconv.Itoa(sum.People),
			strconv.Itoa(sum.Added),
			strconv.Itoa(sum.Updated),
			strconv.Itoa(sum.Skipped),
			strconv.Itoa(sum.Failed),
		}})
	} else {
		output(w, sum, sum.TreeID)
	}

	if sum.Failed > 0 {
		return fmt.Errorf("%d writes failed", sum.Failed)
	}
	return nil
}

func runServerImport(ctx context.Context, w io.Writer, text string, f importFlags) error {
	if f.allRoots {
		return fmt.Errorf("--all-roots is not supported with --server")
	}

	opts := &client.ImportOptions{TreeName: f.treeName, Anchor: f.anchor}
	if f.generations >= 0 {
		opts.MaxGenerations = &f.generations
	}
	res, err := newAPIClient().Import.GEDCOM(ctx, text, opts)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	output(w, res, res.Tree.ID)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineage/pkg/classification"
	"github.com/matzehuels/lineage/pkg/errors"
)

// importCommand stores classification files in the configured database.
func (c *CLI) importCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import classification files into SQLite or MongoDB",
		Long: `Import classification files (csv, tsv, json, yaml, toml) into a database.

The target is the --sqlite database, or the [sources.mongo] section of the
config file. A classification with the same name is replaced.`,
		Args:    cobra.MinimumNArgs(1),
		GroupID: groupData,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args, name)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "classification name (single file only; default: file name)")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, files []string, name string) error {
	if name != "" && len(files) != 1 {
		return errors.New(errors.ErrCodeInvalidArgument, "--name needs exactly one file, got %d", len(files))
	}

	repo := classification.NewRepository(classification.WithLogger(c.Logger))
	if name != "" {
		cl, err := classification.ReadFile(files[0])
		if err != nil {
			return err
		}
		cl.Name = name
		if err := repo.Add(cl); err != nil {
			return err
		}
	} else if err := repo.LoadFiles(files...); err != nil {
		return err
	}

	store, target, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Importing into %s...", target))
	spinner.Start()
	err = repo.SaveAll(ctx, store)
	spinner.Stop()
	if err != nil {
		return err
	}

	for _, n := range repo.Names() {
		cl, _ := repo.Get(n)
		printSuccess("Imported %s", StyleHighlight.Render(n))
		printDetail("%d codes, %d relations, %d labels", len(cl.Codes()), len(cl.Relations), len(cl.Labels))
	}
	if c.Config.Sources.SQLite != "" {
		printNextStep("Query it", fmt.Sprintf("%s --sqlite %s roots", appName, c.Config.Sources.SQLite))
	}
	return nil
}

// openStore opens the configured writable store and describes it.
func (c *CLI) openStore(ctx context.Context) (classification.Store, string, error) {
	src := c.Config.Sources
	switch {
	case src.SQLite != "":
		s, err := classification.OpenSQLite(ctx, src.SQLite)
		return s, src.SQLite, err
	case src.Mongo != nil:
		s, err := classification.OpenMongo(ctx, *src.Mongo)
		return s, "MongoDB", err
	}
	return nil, "", errors.New(errors.ErrCodeInvalidConfig,
		"import needs a target: pass --sqlite DB or configure [sources.mongo]")
}

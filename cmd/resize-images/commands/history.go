package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/photoblog/resize-images/pkg/db"
	"github.com/photoblog/resize-images/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	historyOutput string
	historyRun    string
	historyID     int64
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List catalogued derivatives",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "Output format: table or yaml")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Only show derivatives from this run ID")
	historyCmd.Flags().Int64Var(&historyID, "id", 0, "Show a single derivative by catalog ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum rows to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.CatalogPath == "" {
		return fmt.Errorf("catalog-path is not set; nothing has been catalogued")
	}
	if historyOutput != "table" && historyOutput != "yaml" {
		return fmt.Errorf("output must be table or yaml, got %q", historyOutput)
	}

	if err := ensureDirectories(cfg.CatalogPath, ""); err != nil {
		return err
	}

	repo, err := db.NewRepository(cfg.CatalogPath)
	if err != nil {
		return errors.Wrap(err, "db init failed")
	}
	defer repo.Close()

	rows, err := selectHistory(repo, historyID, historyRun, historyLimit)
	if err != nil {
		return err
	}

	return writeHistory(cmd.OutOrStdout(), rows, historyOutput)
}

// selectHistory picks rows by ID, then by run, then the most recent.
func selectHistory(repo *db.Repository, id int64, runID string, limit int) ([]*db.Derivative, error) {
	switch {
	case id > 0:
		d, err := repo.Get(id)
		if err != nil {
			return nil, errors.Wrap(err, "get failed")
		}
		if d == nil {
			return nil, fmt.Errorf("derivative %d not found", id)
		}
		return []*db.Derivative{d}, nil
	case runID != "":
		rows, err := repo.ListByRun(runID)
		return rows, errors.Wrap(err, "list failed")
	default:
		rows, err := repo.List(limit)
		return rows, errors.Wrap(err, "list failed")
	}
}

func writeHistory(w io.Writer, rows []*db.Derivative, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		if rows == nil {
			rows = []*db.Derivative{}
		}
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "No derivatives found")
		return nil
	}

	tw := newTable("Run", "Source", "Output", "Operation", "Source size", "Deleted", "Created")
	for _, d := range rows {
		retired := "-"
		if d.SourceRetired {
			retired = "yes"
		}
		tw.AppendRow(table.Row{
			shortRunID(d.RunID),
			d.SourceName,
			d.OutputName,
			d.Operation,
			fmt.Sprintf("%dx%d", d.SourceWidth, d.SourceHeight),
			retired,
			d.CreatedAt,
		})
	}
	rightAlign(tw, 5)

	fmt.Fprintln(w, tw.Render())
	return nil
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

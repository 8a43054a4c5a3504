package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/photoblog/resize-images/pkg/imagetool"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether the configured ImageMagick binaries are available",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tools := imagetool.NewShell(cfg.IdentifyBin, cfg.ConvertBin)
	statuses := imagetool.CheckBinaries(tools.Binaries())

	tw := newTable("Binary", "Status", "Path")
	missing := 0
	for _, s := range statuses {
		state, where := "✅ ok", s.Path
		if !s.Available {
			state, where = "❌ missing", s.Detail
			missing++
		}
		tw.AppendRow(table.Row{s.Command, state, where})
	}

	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())

	if missing > 0 {
		return fmt.Errorf("%d required binaries not found", missing)
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Run one sleep cycle: decay, transfer, replay, reclassify",
		Run:   runConsolidate,
	}

	cmd.Flags().Float64("days", 1, "Days elapsed since the last cycle")

	RootCmd.AddCommand(cmd)
}

func runConsolidate(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetFloat64("days")

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	summary, err := m.Consolidate(cmd.Context(), days)
	if err != nil {
		exitErr("consolidate", err)
	}

	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}

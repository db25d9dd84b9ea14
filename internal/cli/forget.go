package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: "Delete a memory by id, or everything below a strength threshold",
		Args:  cobra.MaximumNArgs(1),
		Run:   runForget,
	}

	cmd.Flags().Float64("threshold", 0, "Prune every unpinned memory below this effective strength instead of deleting by id")

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	if len(args) == 1 {
		if err := m.Forget(cmd.Context(), args[0]); err != nil {
			exitErr("forget", err)
		}
		return
	}

	count, err := m.ForgetBelowThreshold(cmd.Context(), threshold)
	if err != nil {
		exitErr("forget", err)
	}
	fmt.Printf("forgot %d memories\n", count)
}

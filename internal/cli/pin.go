package cli

import "github.com/spf13/cobra"

func init() {
	pin := &cobra.Command{
		Use:   "pin [id]",
		Short: "Exempt a memory from decay, archival, and pruning",
		Args:  cobra.ExactArgs(1),
		Run:   runPin(true),
	}
	unpin := &cobra.Command{
		Use:   "unpin [id]",
		Short: "Remove a memory's pin",
		Args:  cobra.ExactArgs(1),
		Run:   runPin(false),
	}
	RootCmd.AddCommand(pin, unpin)
}

func runPin(pinned bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		m, err := openMemory()
		if err != nil {
			exitErr("open memory", err)
		}
		defer m.Close()

		if pinned {
			err = m.Pin(cmd.Context(), args[0])
		} else {
			err = m.Unpin(cmd.Context(), args[0])
		}
		if err != nil {
			exitErr("pin", err)
		}
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update [id] [content]",
		Short: "Supersede a memory with corrected content",
		Long:  "Creates a new memory contradicting id. The old memory's contradicted_by is set atomically.",
		Args:  cobra.MinimumNArgs(2),
		Run:   runUpdate,
	}

	RootCmd.AddCommand(cmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	id := args[0]
	content := strings.Join(args[1:], " ")

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	newID, err := m.UpdateMemory(cmd.Context(), id, content)
	if err != nil {
		exitErr("update", err)
	}
	fmt.Println(newID)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write every memory to a newline-delimited JSON file",
		Args:  cobra.ExactArgs(1),
		Run:   runExport,
	}
	importCmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Load memories from a file written by export",
		Args:  cobra.ExactArgs(1),
		Run:   runImport,
	}
	RootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	n, err := m.Export(cmd.Context(), args[0])
	if err != nil {
		exitErr("export", err)
	}
	fmt.Printf("wrote %d bytes to %s\n", n, args[0])
}

func runImport(cmd *cobra.Command, args []string) {
	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	n, err := m.Import(cmd.Context(), args[0])
	if err != nil {
		exitErr("import", err)
	}
	fmt.Printf("imported %d memories\n", n)
}

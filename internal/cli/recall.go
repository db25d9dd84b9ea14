package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/engram"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall memories by lexical+graph relevance",
		Args:  cobra.ArbitraryArgs,
		Run:   runRecall,
	}

	cmd.Flags().IntP("limit", "l", 5, "Max results")
	cmd.Flags().StringP("context", "c", "", "Comma-separated context terms boosting activation")
	cmd.Flags().Float64("min-confidence", 0, "Drop results below this confidence")
	cmd.Flags().Bool("expand", false, "Expand candidates via entity/Hebbian graph neighbors")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	contextStr, _ := cmd.Flags().GetString("context")
	minConf, _ := cmd.Flags().GetFloat64("min-confidence")
	expand, _ := cmd.Flags().GetBool("expand")
	query := strings.Join(args, " ")

	var context []string
	if contextStr != "" {
		context = strings.Split(contextStr, ",")
	}

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	results, err := m.Recall(cmd.Context(), query, engram.RecallOptions{
		Limit:         limit,
		Context:       context,
		MinConfidence: minConf,
		GraphExpand:   expand,
	})
	if err != nil {
		exitErr("recall", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}

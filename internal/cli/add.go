package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rcliao/engram"
	"github.com/rcliao/engram/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Store a memory",
		Long:  "Store a memory. Content can be a positional arg or piped via stdin.",
		Run:   runAdd,
	}

	cmd.Flags().String("type", "factual", "Memory type: factual, episodic, relational, emotional, procedural, opinion")
	cmd.Flags().Float64("importance", -1, "Importance in [0,1] (default: type mean)")
	cmd.Flags().String("source", "", "Provenance label")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("contradicts", "", "Id of a memory this one supersedes")

	RootCmd.AddCommand(cmd)
}

func runAdd(cmd *cobra.Command, args []string) {
	memType, _ := cmd.Flags().GetString("type")
	importance, _ := cmd.Flags().GetFloat64("importance")
	source, _ := cmd.Flags().GetString("source")
	tagsStr, _ := cmd.Flags().GetString("tags")
	contradicts, _ := cmd.Flags().GetString("contradicts")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("add", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	opts := engram.AddOptions{
		Type:        model.MemoryType(memType),
		Source:      source,
		Tags:        tags,
		Contradicts: contradicts,
	}
	if importance >= 0 {
		opts.Importance = &importance
	}

	id, err := m.Add(cmd.Context(), content, opts)
	if err != nil {
		exitErr("add", err)
	}
	fmt.Println(id)
}

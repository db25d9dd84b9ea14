package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "reward [feedback]",
		Short: "Reinforce or suppress recently accessed memories",
		Long:  "Applies feedback to the reward window. feedback is either free text (classified into a polarity) or a numeric score in [-1,1].",
		Args:  cobra.MinimumNArgs(1),
		Run:   runReward,
	}

	RootCmd.AddCommand(cmd)
}

func runReward(cmd *cobra.Command, args []string) {
	feedback := strings.Join(args, " ")

	m, err := openMemory()
	if err != nil {
		exitErr("open memory", err)
	}
	defer m.Close()

	var count int
	if score, perr := strconv.ParseFloat(feedback, 64); perr == nil {
		count, err = m.RewardScore(cmd.Context(), score)
	} else {
		count, err = m.RewardText(cmd.Context(), feedback)
	}
	if err != nil {
		exitErr("reward", err)
	}
	fmt.Printf("modulated %d memories\n", count)
}

package main

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/dichoptic/cmd/dichoptic/ui"
	"github.com/redmonkez12/dichoptic/internal/client"
)

func scoresCommand(a *app) *cobra.Command {
	scoresCmd := &cobra.Command{
		Use:   "scores",
		Short: "Read and submit game scores",
	}

	listCmd := &cobra.Command{
		Use:       "list <game>",
		Short:     "Show your ten best scores for a game",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{client.GameTetris, client.GameSnake},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := a.client.TopScores(cmd.Context(), args[0])
			if err != nil {
				return fail(err)
			}
			ui.PrintScores(args[0], entries)
			return nil
		},
	}

	submitCmd := &cobra.Command{
		Use:   "submit <game> <score>",
		Short: "Record a finished game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			score, err := strconv.Atoi(args[1])
			if err != nil {
				return fail(errors.New("score must be an integer"))
			}

			now := time.Now()
			entry, err := a.client.SubmitScore(cmd.Context(), client.ScoreSubmission{
				Game:  args[0],
				Score: score,
				Date:  now.Format("2006-01-02"),
				Time:  now.Format("15:04"),
			})
			if err != nil {
				return fail(err)
			}
			if entry == nil {
				ui.PrintNotice("Score not recorded.")
				return nil
			}
			ui.PrintSuccess("Recorded " + strconv.Itoa(entry.Score) + " for " + entry.Game)
			return nil
		},
	}

	scoresCmd.AddCommand(listCmd, submitCmd)
	return scoresCmd
}

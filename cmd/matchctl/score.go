package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an applicant against a job and print the explanation",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		score, err := a.MatchUC.ScoreMatch(cmd.Context(), viper.GetString("score.applicant"), viper.GetString("score.job"))
		if err != nil {
			return err
		}
		return printJSON(cmd, score)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("applicant", "", "applicant profile id")
	scoreCmd.Flags().String("job", "", "job id")
	_ = scoreCmd.MarkFlagRequired("applicant")
	_ = scoreCmd.MarkFlagRequired("job")

	_ = viper.BindPFlag("score.applicant", scoreCmd.Flags().Lookup("applicant"))
	_ = viper.BindPFlag("score.job", scoreCmd.Flags().Lookup("job"))
}

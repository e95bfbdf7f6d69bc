package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/content"
)

var showCmd = &cobra.Command{
	Use:   "show <problem-id>",
	Short: "Print a single problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, id, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		client, err := content.NewClient(cfg.APIBaseURL,
			content.WithToken(id.Token),
			content.WithTimeout(cfg.HTTPTimeout),
		)
		if err != nil {
			return err
		}
		p, err := client.ProblemByID(cmd.Context(), args[0])
		if errors.Is(err, content.ErrNotFound) {
			return fmt.Errorf("problem %q not found", args[0])
		}
		if err != nil {
			return err
		}
		answer, _ := cmd.Flags().GetBool("answer")
		printProblem(cmd.OutOrStdout(), p, answer)
		return nil
	},
}

func init() {
	showCmd.Flags().Bool("answer", false, "Also print the answer and solution")
}

func printProblem(w io.Writer, p *content.Problem, answer bool) {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(w, bold(p.Source()))
	if p.Difficulty != "" || len(p.Topics) > 0 {
		fmt.Fprintln(w, dim(fmt.Sprintf("%s %v", p.Difficulty, p.Topics)))
	}
	fmt.Fprintf(w, "\n%s\n\n", p.Statement)
	for i, c := range p.Choices {
		fmt.Fprintf(w, "  %s) %s\n", content.ChoiceLabel(i), c)
	}
	if !answer {
		return
	}
	fmt.Fprintf(w, "\n%s %s\n", bold("Answer:"), p.CorrectAnswer)
	if p.Solution != "" {
		fmt.Fprintf(w, "\n%s\n", p.Solution)
	}
}

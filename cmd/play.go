package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/session"
)

// playFlags preselects the session on the home screen.
type playFlags struct {
	Contest string
	Year    int
	Mode    string
	Shuffle bool
	Skin    string
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	Example: `  amcdrill play --contest AMC10A_2022
  amcdrill play --contest "AMC 12B" --year 2021 --mode contest --skin ocean`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := playFlags{}
		f.Contest, _ = cmd.Flags().GetString("contest")
		f.Year, _ = cmd.Flags().GetInt("year")
		f.Mode, _ = cmd.Flags().GetString("mode")
		f.Shuffle, _ = cmd.Flags().GetBool("shuffle")
		f.Skin, _ = cmd.Flags().GetString("skin")
		return runApp(cmd, f)
	},
}

func init() {
	playCmd.Flags().String("contest", "", `Problem set, e.g. "AMC 10A" or AMC10A_2022`)
	playCmd.Flags().Int("year", 0, "Contest year (0 means any)")
	playCmd.Flags().String("mode", string(session.ModePractice), "practice or contest")
	playCmd.Flags().Bool("shuffle", false, "Shuffle problem order")
	playCmd.Flags().String("skin", "", "Theme: classic, minecraft or ocean")
}

// sessionConfig turns the flags into the initial session configuration.
func (f playFlags) sessionConfig(user string, maxProblems int) (session.Config, error) {
	cfg := session.Config{
		Contest:     f.Contest,
		Year:        f.Year,
		Shuffle:     f.Shuffle,
		Skin:        f.Skin,
		User:        user,
		MaxProblems: maxProblems,
		Mode:        session.ModePractice,
	}
	if f.Mode != "" {
		mode, err := session.ParseMode(f.Mode)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}
	if cfg.Year == 0 && cfg.Contest != "" {
		cfg.Contest, cfg.Year = content.ParseContestID(cfg.Contest)
	}
	return cfg, nil
}

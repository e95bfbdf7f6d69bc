package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/logging"
)

var errNoUser = errors.New("no user: pass --user or set AMCDRILL_USER or AMCDRILL_TOKEN")

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Clears the local stats mirror for the user. With --journal the local session journal is deleted too.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.User == "" {
			return errNoUser
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		if err := st.MirrorRepo().Delete(ctx, cfg.User); err != nil {
			return err
		}
		if journal, _ := cmd.Flags().GetBool("journal"); journal {
			n, err := st.SessionRepo().DeleteUser(ctx, cfg.User)
			if err != nil {
				return err
			}
			logging.Info("deleted %d journaled session(s)", n)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset local data for %s\n", cfg.User)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("journal", false, "Also delete the local session journal")
}

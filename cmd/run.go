package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/amcdrill/internal/app"
	"github.com/abhisek/amcdrill/internal/clock"
	"github.com/abhisek/amcdrill/internal/config"
	"github.com/abhisek/amcdrill/internal/content"
	"github.com/abhisek/amcdrill/internal/cue"
	"github.com/abhisek/amcdrill/internal/logging"
	"github.com/abhisek/amcdrill/internal/persist"
	"github.com/abhisek/amcdrill/internal/screen"
	"github.com/abhisek/amcdrill/internal/screens/home"
	"github.com/abhisek/amcdrill/internal/screens/practice"
	"github.com/abhisek/amcdrill/internal/session"
	"github.com/abhisek/amcdrill/internal/store"
	"github.com/abhisek/amcdrill/internal/ui/theme"
)

// saveFlushTimeout bounds how long exit waits for an in-flight save.
const saveFlushTimeout = 15 * time.Second

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command, flags playFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, id, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	initial, err := flags.sessionConfig(cfg.User, cfg.Session.MaxProblems)
	if err != nil {
		return err
	}
	if initial.Skin != "" {
		if err := theme.Use(initial.Skin); err != nil {
			return err
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	source, err := content.NewClient(cfg.APIBaseURL,
		content.WithToken(id.Token),
		content.WithTimeout(cfg.HTTPTimeout),
	)
	if err != nil {
		return err
	}

	saver, err := buildSaver(cfg, id.Token, st)
	if err != nil {
		return err
	}
	saves := persist.NewCoordinator(saver, st.MirrorRepo(), clock.New(), persist.Config{
		Debounce:    cfg.Save.Debounce,
		MaxAttempts: cfg.Save.MaxAttempts,
		BackoffStep: cfg.Save.BackoffStep,
	})

	pump := app.NewEventPump(64)
	ctrl := session.New(source, saves,
		session.WithCue(cue.NewBell(os.Stdout)),
		session.WithListener(pump.Send),
		session.WithTimings(session.Timings{
			FetchInterval:    cfg.Session.FetchInterval,
			AutoAdvanceDelay: cfg.Session.AutoAdvanceDelay,
			TimeFloor:        cfg.Session.TimeFloor,
		}),
	)

	mirror := st.MirrorRepo()
	homeScreen := home.New(home.Deps{
		Ctx:        ctx,
		Controller: ctrl,
		Defaults:   initial,
		Stats: func(ctx context.Context) (home.Stats, error) {
			ms, err := mirror.Get(ctx, cfg.User)
			return home.Stats{Sessions: len(ms.Sessions), BestScore: ms.BestScore}, err
		},
	})

	var start screen.Screen
	if initial.Contest != "" && cmd.Flags().Changed("contest") {
		start = practice.New(ctx, ctrl, initial)
	}

	runErr := app.Run(ctx, app.Options{
		Home:    homeScreen,
		Start:   start,
		Events:  pump.Events(),
		LogFile: cfg.LogFile,
	})

	// Let a save that is still retrying finish before the store closes.
	if saves.Busy() {
		fmt.Fprintln(os.Stderr, "Saving results...")
		flushCtx, cancel := context.WithTimeout(context.Background(), saveFlushTimeout)
		defer cancel()
		if err := saves.WaitContext(flushCtx); err != nil {
			logging.Warn("results may not have been saved: %v", err)
		}
	}
	return runErr
}

// buildSaver returns the remote saver teed into the local journal, or the
// journal alone in offline mode.
func buildSaver(cfg config.Config, token string, st *store.Store) (persist.Saver, error) {
	journal := st.SessionRepo()
	if cfg.Offline {
		logging.Debug("offline mode: sessions are journaled locally only")
		return journal, nil
	}
	remote, err := persist.NewHTTPSaver(cfg.APIBaseURL, token, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	return persist.Tee(remote, journal), nil
}

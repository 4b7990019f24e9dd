package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/analytics"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Limit   int
	Session string
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events <user-id>",
		Short: "List a user's recorded analytics events",
		Long: `List analytics events for a user, oldest first.

Example:
  avada events me
  avada events me --limit 0
  avada events me --session 0192f1c4-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listEvents(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "most recent events to show (0 for all)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "only events from this session")

	return cmd
}

func listEvents(opts *EventsOptions, arg string, cmd *cobra.Command) error {
	userID, err := userArg(arg)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(st, logger)

	var events []analytics.Event
	if opts.Session != "" {
		all, err := st.ReadSessionEvents(cmd.Context(), opts.Session)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
		events = make([]analytics.Event, 0, len(all))
		for _, e := range all {
			if e.UserID == userID {
				events = append(events, e)
			}
		}
	} else {
		events, err = st.ReadEvents(cmd.Context(), userID, opts.Limit)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read events", err)
		}
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return out.Success(events)
	}

	w := cmd.OutOrStdout()
	if len(events) == 0 {
		fmt.Fprintf(w, "No events for %s.\n", userID)
		return nil
	}
	for _, e := range events {
		fmt.Fprintf(w, "%s  %-8s %-20s %s", e.Time.Format(time.RFC3339), e.Platform, e.Action, e.Label)
		if e.Value != 0 {
			fmt.Fprintf(w, " value=%d", e.Value)
		}
		fmt.Fprintln(w)
	}
	return nil
}

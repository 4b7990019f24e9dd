package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/skill"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	SessionFlags
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Hold an interactive session on stdin",
		Long: `Hold one session, reading an intent per line from stdin.

Intent names match case-insensitively, with or without the "Intent" suffix,
so "launch", "next", "yes", "previous", "repeat", "help" and "stop" all work.
Blank lines are ignored. The profile is saved when the session ends: on
stop, on SessionEndedRequest, or at end of input.

Example:
  avada play --user me
  printf 'launch\nnext\nstop\n' | avada play --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}

	opts.SessionFlags.bind(cmd)
	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	rt, err := openRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	sess, err := rt.skill.Start(ctx, opts.request())
	if err != nil {
		return startError(err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	out.VerboseLog("session %s started (returning=%t)", sess.ID(), sess.Returning())

	var persistErr error
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		intent := strings.TrimSpace(scanner.Text())
		if intent == "" {
			continue
		}

		resp, err := sess.Handle(ctx, intent)
		if err != nil && !errors.Is(err, skill.ErrPersist) {
			return WrapExitError(ExitFailure, "turn failed", err)
		}
		persistErr = err

		if err := writeTurn(out, intent, resp); err != nil {
			return err
		}
		if resp.EndSession {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}

	if !sess.Ended() {
		persistErr = sess.End(ctx)
	}
	if persistErr != nil {
		return WrapExitError(ExitFailure, "profile not saved", persistErr)
	}
	return nil
}

// writeTurn prints a response as text or as one JSON line.
func writeTurn(out *OutputFormatter, intent string, resp skill.Response) error {
	if out.Format == "json" {
		return out.Success(resp)
	}
	printTurn(out.Writer, intent, resp)
	return nil
}

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/skill"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	SessionFlags
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <intent>...",
		Short: "Run one session with the given intents",
		Long: `Start a session, handle each intent in order, then end the session and
save the profile.

Example:
  avada invoke LaunchRequest
  avada invoke launch next next stop --user me --platform google
  avada invoke yes --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeIntents(opts, args, cmd)
		},
	}

	opts.SessionFlags.bind(cmd)
	return cmd
}

func invokeIntents(opts *InvokeOptions, intents []string, cmd *cobra.Command) error {
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

	responses := make([]skill.Response, 0, len(intents))
	var persistErr error
	for _, intent := range intents {
		resp, err := sess.Handle(ctx, intent)
		if errors.Is(err, skill.ErrSessionEnded) {
			return WrapExitError(ExitCommandError, "intent after the session ended", err)
		}
		if err != nil && !errors.Is(err, skill.ErrPersist) {
			return WrapExitError(ExitFailure, "turn failed", err)
		}
		persistErr = err
		responses = append(responses, resp)
	}
	if !sess.Ended() {
		persistErr = sess.End(ctx)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		if err := out.Success(responses); err != nil {
			return err
		}
	} else {
		for i, resp := range responses {
			printTurn(out.Writer, intents[i], resp)
		}
	}

	if persistErr != nil {
		return WrapExitError(ExitFailure, "profile not saved", persistErr)
	}
	return nil
}

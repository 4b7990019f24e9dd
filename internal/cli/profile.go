package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/profile"
	"github.com/roach88/avada/internal/rotation"
)

// ProfileView is the printable form of a stored profile.
type ProfileView struct {
	UserID       string       `json:"user_id"`
	DisplayName  string       `json:"display_name,omitempty"`
	SessionCount int          `json:"session_count"`
	Rotations    rotation.Set `json:"rotations"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func newProfileView(p profile.Profile) ProfileView {
	return ProfileView{
		UserID:       p.UserID,
		DisplayName:  p.DisplayName,
		SessionCount: p.SessionCount,
		Rotations:    p.Rotations,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// String renders the view for text output.
func (v ProfileView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "user:      %s\n", v.UserID)
	if v.DisplayName != "" {
		fmt.Fprintf(&b, "name:      %s\n", v.DisplayName)
	}
	fmt.Fprintf(&b, "sessions:  %d\n", v.SessionCount)
	for _, c := range rotation.Categories {
		st := v.Rotations.Of(c)
		fmt.Fprintf(&b, "%-10s %d/%d\n", string(c)+":", st.Index, len(st.Permutation))
	}
	fmt.Fprintf(&b, "updated:   %s", v.UpdatedAt.Format(time.RFC3339))
	return b.String()
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Inspect or reset stored user profiles",
	}

	cmd.AddCommand(newProfileShowCommand(rootOpts))
	cmd.AddCommand(newProfileResetCommand(rootOpts))
	cmd.AddCommand(newProfileListCommand(rootOpts))
	return cmd
}

func newProfileShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <user-id>",
		Short:         "Show a user's rotation cursors",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			p, err := st.GetProfile(cmd.Context(), userID)
			if errors.Is(err, profile.ErrNotFound) {
				if err := out.Error(CodeNotFound, fmt.Sprintf("no profile for %q", userID), nil); err != nil {
					return err
				}
				return WrapExitError(ExitFailure, "profile not found", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read profile", err)
			}
			return out.Success(newProfileView(p))
		},
	}
}

func newProfileResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <user-id>",
		Short: "Delete a user's profile so the next session starts fresh",
		Long: `Delete a user's profile. The next session for this user shuffles new
rotations from the start. Analytics events are kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userArg(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
			err = st.DeleteProfile(cmd.Context(), userID)
			if errors.Is(err, profile.ErrNotFound) {
				if err := out.Error(CodeNotFound, fmt.Sprintf("no profile for %q", userID), nil); err != nil {
					return err
				}
				return WrapExitError(ExitFailure, "profile not found", err)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to delete profile", err)
			}

			logger.Info("profile reset", "user_id", userID)
			if opts.Format == "json" {
				return out.Success(map[string]string{"user_id": userID, "reset": "ok"})
			}
			return out.Success(fmt.Sprintf("✓ profile %s reset", userID))
		},
	}
}

func newProfileListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every stored profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			st, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			profiles, err := st.ListProfiles(cmd.Context())
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to list profiles", err)
			}

			views := make([]ProfileView, len(profiles))
			for i, p := range profiles {
				views[i] = newProfileView(p)
			}

			out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
			if opts.Format == "json" {
				return out.Success(views)
			}

			w := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintln(w, "No profiles.")
				return nil
			}
			for _, v := range views {
				fmt.Fprintf(w, "%s\tsessions=%d\tspell=%d/%d\n",
					v.UserID, v.SessionCount, v.Rotations.Sound.Index, len(v.Rotations.Sound.Permutation))
			}
			return nil
		},
	}
}

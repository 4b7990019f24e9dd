package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/skill"
)

// DefaultUserID identifies the local operator when --user is not given.
const DefaultUserID = "cli-user"

// SessionFlags selects who is talking and on which platform.
type SessionFlags struct {
	UserID   string
	Platform string
	Locale   string
	Name     string
}

func (f *SessionFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.UserID, "user", DefaultUserID, "user id owning the rotation")
	cmd.Flags().StringVar(&f.Platform, "platform", "alexa", "voice platform (alexa|google)")
	cmd.Flags().StringVar(&f.Locale, "locale", "en-US", "locale tag")
	cmd.Flags().StringVar(&f.Name, "name", "", "display name to store on the profile")
}

func (f *SessionFlags) request() skill.StartRequest {
	return skill.StartRequest{
		UserID:      f.UserID,
		Platform:    f.Platform,
		Locale:      f.Locale,
		DisplayName: f.Name,
	}
}

package skill

import "github.com/roach88/avada/internal/rotation"

// Response is what one turn returns to the platform.
type Response struct {
	SessionID  string              `json:"session_id"`
	Handler    Handler             `json:"handler"`
	Speech     string              `json:"speech,omitempty"`
	Reprompt   string              `json:"reprompt,omitempty"`
	Card       *Card               `json:"card,omitempty"`
	Chips      []string            `json:"suggestion_chips,omitempty"`
	EndSession bool                `json:"end_session"`
	CanFulfill bool                `json:"can_fulfill,omitempty"`
	Selection  *rotation.Selection `json:"selection,omitempty"`
}

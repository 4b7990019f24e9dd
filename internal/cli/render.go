package cli

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/roach88/avada/internal/skill"
)

var (
	audioTag = regexp.MustCompile(`<audio src="([^"]*)"\s*/>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
)

// plainSpeech renders SSML for a terminal: audio becomes a ♪ marker and
// every other tag is dropped.
func plainSpeech(ssml string) string {
	s := audioTag.ReplaceAllString(ssml, " ♪ $1 ")
	s = anyTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// printTurn writes one response in the text format.
func printTurn(w io.Writer, intent string, resp skill.Response) {
	fmt.Fprintf(w, "> %s [%s]\n", intent, resp.Handler)
	if resp.CanFulfill {
		fmt.Fprintln(w, "  can fulfill")
	}
	if speech := plainSpeech(resp.Speech); speech != "" {
		fmt.Fprintf(w, "  %s\n", speech)
	}
	if resp.Reprompt != "" {
		fmt.Fprintf(w, "  (reprompt) %s\n", resp.Reprompt)
	}
	if resp.Card != nil {
		fmt.Fprintf(w, "  [card: %s]\n", resp.Card.Title)
	}
	if len(resp.Chips) > 0 {
		fmt.Fprintf(w, "  [chips: %s]\n", strings.Join(resp.Chips, " | "))
	}
	if resp.EndSession {
		fmt.Fprintln(w, "  (session ended)")
	}
}

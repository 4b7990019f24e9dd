package skill

import "strings"

// Handler names the routine that serves an intent.
type Handler string

const (
	HandlerLaunch     Handler = "LAUNCH"
	HandlerSpell      Handler = "spellRequest"
	HandlerNext       Handler = "NextIntent"
	HandlerPrevious   Handler = "PreviousIntent"
	HandlerStartOver  Handler = "StartOverIntent"
	HandlerRepeat     Handler = "RepeatIntent"
	HandlerHelp       Handler = "HelpIntent"
	HandlerStop       Handler = "StopIntent"
	HandlerUnhandled  Handler = "Unhandled"
	HandlerEnd        Handler = "END"
	HandlerCanFulfill Handler = "CAN_FULFILL_INTENT"
)

// Handlers lists every handler.
var Handlers = []Handler{
	HandlerLaunch, HandlerSpell, HandlerNext, HandlerPrevious, HandlerStartOver,
	HandlerRepeat, HandlerHelp, HandlerStop, HandlerUnhandled, HandlerEnd,
	HandlerCanFulfill,
}

// intentMap routes platform intent and request names to handlers.
var intentMap = map[string]Handler{
	"LaunchIntent":            HandlerLaunch,
	"WelcomeIntent":           HandlerLaunch,
	"LaunchRequest":           HandlerLaunch,
	"YesIntent":               HandlerSpell,
	"NoIntent":                HandlerStop,
	"CancelIntent":            HandlerStop,
	"AMAZON.YesIntent":        HandlerSpell,
	"AMAZON.NoIntent":         HandlerStop,
	"AMAZON.NextIntent":       HandlerNext,
	"AMAZON.PreviousIntent":   HandlerPrevious,
	"AMAZON.StartOverIntent":  HandlerStartOver,
	"AMAZON.RepeatIntent":     HandlerRepeat,
	"AMAZON.HelpIntent":       HandlerHelp,
	"AMAZON.StopIntent":       HandlerStop,
	"AMAZON.CancelIntent":     HandlerStop,
	"AMAZON.FallbackIntent":   HandlerUnhandled,
	"DefaultFallbackIntent":   HandlerUnhandled,
	"SessionEndedRequest":     HandlerEnd,
	"CanFulfillIntentRequest": HandlerCanFulfill,
}

// lookup indexes intentMap and the handler names by lower-cased name.
var lookup = func() map[string]Handler {
	m := make(map[string]Handler, len(intentMap)+len(Handlers))
	for _, h := range Handlers {
		m[strings.ToLower(string(h))] = h
	}
	for name, h := range intentMap {
		m[strings.ToLower(name)] = h
	}
	return m
}()

// Resolve maps an incoming intent name to its handler.
//
// Names are matched case-insensitively against platform intents and handler
// names, with or without the "Intent" suffix, so operators can type "next"
// or "yes". Anything else is Unhandled.
func Resolve(intent string) Handler {
	key := strings.ToLower(strings.TrimSpace(intent))
	if h, ok := lookup[key]; ok {
		return h
	}
	if h, ok := lookup[key+"intent"]; ok {
		return h
	}
	return HandlerUnhandled
}

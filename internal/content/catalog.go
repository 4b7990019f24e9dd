// Package content owns the spell content pools: sound URLs per capability tier
// and localized interjections, after-effects and phrases.
//
// Catalogs are written in CUE and checked against an embedded #Catalog schema
// before decoding. The rotation engine never sees these payloads; a session
// resolves Pools once and hands the engine plain sizes.
package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/roach88/avada/internal/rotation"
)

// ErrUnknownCapability is returned for capability names outside the enum.
var ErrUnknownCapability = errors.New("unknown capability")

// ErrUnknownPlatform is returned for platform names outside the enum.
var ErrUnknownPlatform = errors.New("unknown platform")

// Capability is the content tier a platform can render.
type Capability string

const (
	CapabilityBasic Capability = "basic"
	CapabilityRich  Capability = "rich"
)

// Capabilities lists every tier.
var Capabilities = []Capability{CapabilityBasic, CapabilityRich}

// ParseCapability validates a capability name.
func ParseCapability(s string) (Capability, error) {
	switch c := Capability(strings.ToLower(strings.TrimSpace(s))); c {
	case CapabilityBasic, CapabilityRich:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCapability, s)
}

// Platform is the voice platform hosting a session.
type Platform string

const (
	PlatformAlexa  Platform = "alexa"
	PlatformGoogle Platform = "google"
)

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformAlexa, PlatformGoogle:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Capability resolves the content tier for the platform.
func (p Platform) Capability() Capability {
	if p == PlatformGoogle {
		return CapabilityRich
	}
	return CapabilityBasic
}

// Phrases are the fixed lines spoken around a spell.
type Phrases struct {
	Launch       string `json:"launch"`
	Next         string `json:"next"`
	Previous     string `json:"previous"`
	StartOver    string `json:"start_over"`
	Unhandled    string `json:"unhandled"`
	Reprompt     string `json:"reprompt"`
	Help         string `json:"help"`
	HelpReprompt string `json:"help_reprompt"`
	Exit         string `json:"exit"`
}

// Locale is the localized text for one language.
type Locale struct {
	CardTitle       string   `json:"card_title"`
	Interjections   []string `json:"interjections"`
	AfterEffects    []string `json:"after_effects"`
	SuggestionChips []string `json:"suggestion_chips"`
	Phrases         Phrases  `json:"phrases"`
}

// Tier is the resolved sound set for one capability.
type Tier struct {
	Capability         Capability
	Sounds             []string
	SpeakInterjections bool
}

// Catalog is a validated, fully resolved content catalog.
type Catalog struct {
	AudioBaseURL  string
	ImageBaseURL  string
	DefaultLocale string
	Tiers         map[Capability]Tier
	Locales       map[string]Locale

	matcher    language.Matcher
	localeKeys []string
}

// LocaleNames returns the configured locale keys, default first.
func (c *Catalog) LocaleNames() []string {
	return append([]string(nil), c.localeKeys...)
}

// ResolveLocale maps a requested locale tag to the closest configured locale.
// Unparseable or unmatched tags resolve to the default locale.
func (c *Catalog) ResolveLocale(requested string) string {
	if c.matcher == nil || strings.TrimSpace(requested) == "" {
		return c.DefaultLocale
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return c.DefaultLocale
	}
	_, idx, conf := c.matcher.Match(tag)
	if conf == language.No || idx < 0 || idx >= len(c.localeKeys) {
		return c.DefaultLocale
	}
	return c.localeKeys[idx]
}

// Pools returns the content a session on the given tier and locale serves.
func (c *Catalog) Pools(capability Capability, locale string) (Pools, error) {
	tier, ok := c.Tiers[capability]
	if !ok {
		return Pools{}, fmt.Errorf("%w: %q", ErrUnknownCapability, capability)
	}
	key := c.ResolveLocale(locale)
	loc := c.Locales[key]

	return Pools{
		Capability:         capability,
		Locale:             key,
		Sounds:             tier.Sounds,
		Interjections:      loc.Interjections,
		AfterEffects:       loc.AfterEffects,
		SpeakInterjections: tier.SpeakInterjections,
		CardTitle:          loc.CardTitle,
		SuggestionChips:    loc.SuggestionChips,
		Phrases:            loc.Phrases,
		ImageBaseURL:       c.ImageBaseURL,
	}, nil
}

// buildMatcher indexes locales for tag matching, default locale first so it
// wins ties and acts as the fallback.
func (c *Catalog) buildMatcher() error {
	keys := make([]string, 0, len(c.Locales))
	for k := range c.Locales {
		if k != c.DefaultLocale {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	keys = append([]string{c.DefaultLocale}, keys...)

	tags := make([]language.Tag, 0, len(keys))
	for _, k := range keys {
		tag, err := language.Parse(k)
		if err != nil {
			return fmt.Errorf("locale %q: %w", k, err)
		}
		tags = append(tags, tag)
	}
	c.localeKeys = keys
	c.matcher = language.NewMatcher(tags)
	return nil
}

// Pools is the concrete content for one session.
type Pools struct {
	Capability         Capability
	Locale             string
	Sounds             []string
	Interjections      []string
	AfterEffects       []string
	SpeakInterjections bool
	CardTitle          string
	SuggestionChips    []string
	Phrases            Phrases
	ImageBaseURL       string
}

// Sizes reduces the pools to the integers the rotation engine consumes.
func (p Pools) Sizes() rotation.PoolSizes {
	return rotation.PoolSizes{
		Sound:        len(p.Sounds),
		Interjection: len(p.Interjections),
		AfterEffect:  len(p.AfterEffects),
	}
}

// Sound returns the audio URL for a pick.
func (p Pools) Sound(pick rotation.Pick) (string, bool) {
	return lookup(p.Sounds, pick)
}

// Interjection returns the interjection text for a pick.
func (p Pools) Interjection(pick rotation.Pick) (string, bool) {
	return lookup(p.Interjections, pick)
}

// AfterEffect returns the after-effect line for a pick.
func (p Pools) AfterEffect(pick rotation.Pick) (string, bool) {
	return lookup(p.AfterEffects, pick)
}

func lookup(items []string, pick rotation.Pick) (string, bool) {
	if !pick.OK || pick.ID < 0 || pick.ID >= len(items) {
		return "", false
	}
	return items[pick.ID], true
}

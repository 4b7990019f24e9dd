package skill

import "github.com/roach88/avada/internal/content"

// CardKind selects how a platform renders a card.
type CardKind string

const (
	CardStandard CardKind = "standard"
	CardImage    CardKind = "image"
)

// Card is the visual shown next to a spell.
type Card struct {
	Kind          CardKind `json:"kind"`
	Title         string   `json:"title"`
	Text          string   `json:"text,omitempty"`
	SmallImageURL string   `json:"small_image_url,omitempty"`
	LargeImageURL string   `json:"large_image_url,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
}

const (
	smallImage = "720x480.jpg"
	largeImage = "1200x800.jpg"
	imageText  = "****"
)

// spellCard renders the card for the session's tier: a standard card with two
// image sizes on basic platforms, an image card on rich ones.
func spellCard(p content.Pools) *Card {
	if p.Capability == content.CapabilityRich {
		return &Card{
			Kind:     CardImage,
			Title:    p.CardTitle,
			Text:     imageText,
			ImageURL: p.ImageBaseURL + "/" + smallImage,
		}
	}
	return &Card{
		Kind:          CardStandard,
		Title:         p.CardTitle,
		SmallImageURL: p.ImageBaseURL + "/" + smallImage,
		LargeImageURL: p.ImageBaseURL + "/" + largeImage,
	}
}

// spellChips returns suggestion chips for tiers that render them.
func spellChips(p content.Pools) []string {
	if p.Capability != content.CapabilityRich || len(p.SuggestionChips) == 0 {
		return nil
	}
	return append([]string(nil), p.SuggestionChips...)
}

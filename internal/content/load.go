package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

//go:embed default.cue
var defaultCUE []byte

// Error codes reported by LoadError.
const (
	ErrCodeRead   = "C001" // file could not be read
	ErrCodeSyntax = "C002" // CUE did not compile
	ErrCodeSchema = "C003" // value does not satisfy #Catalog
	ErrCodeDecode = "C004" // value could not be decoded
	ErrCodeTier   = "C101" // tier inheritance is broken
	ErrCodeLocale = "C102" // locale table is inconsistent
)

// LoadError describes why a catalog was rejected.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type catalogFile struct {
	AudioBaseURL  string              `json:"audio_base_url"`
	ImageBaseURL  string              `json:"image_base_url"`
	DefaultLocale string              `json:"default_locale"`
	Tiers         map[string]tierFile `json:"tiers"`
	Locales       map[string]Locale   `json:"locales"`
}

type tierFile struct {
	Extends            string   `json:"extends"`
	Sounds             []string `json:"sounds"`
	SpeakInterjections bool     `json:"speak_interjections"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCUE, "default.cue")
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: fmt.Sprintf("reading catalog: %v", err)}
	}
	return Parse(data, path)
}

// Load returns the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse compiles CUE source, checks it against #Catalog and resolves tiers.
// name is used in error positions.
func Parse(data []byte, name string) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Catalog"))

	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(ErrCodeSyntax, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(ErrCodeSchema, err)
	}

	var raw catalogFile
	if err := unified.Decode(&raw); err != nil {
		return nil, formatCUEError(ErrCodeDecode, err)
	}

	return resolve(raw)
}

func resolve(raw catalogFile) (*Catalog, error) {
	c := &Catalog{
		AudioBaseURL:  strings.TrimRight(raw.AudioBaseURL, "/"),
		ImageBaseURL:  strings.TrimRight(raw.ImageBaseURL, "/"),
		DefaultLocale: raw.DefaultLocale,
		Tiers:         make(map[Capability]Tier, len(raw.Tiers)),
		Locales:       raw.Locales,
	}

	for _, capability := range Capabilities {
		sounds, err := tierSounds(raw.Tiers, string(capability), map[string]bool{})
		if err != nil {
			return nil, err
		}
		urls := make([]string, len(sounds))
		for i, s := range sounds {
			urls[i] = c.soundURL(s)
		}
		c.Tiers[capability] = Tier{
			Capability:         capability,
			Sounds:             urls,
			SpeakInterjections: raw.Tiers[string(capability)].SpeakInterjections,
		}
	}

	if _, ok := c.Locales[c.DefaultLocale]; !ok {
		return nil, &LoadError{Code: ErrCodeLocale, Message: fmt.Sprintf("default locale %q is not defined", c.DefaultLocale)}
	}
	if err := c.buildMatcher(); err != nil {
		return nil, &LoadError{Code: ErrCodeLocale, Message: err.Error()}
	}
	return c, nil
}

// tierSounds flattens a tier's sounds with those of the tier it extends,
// parent sounds first.
func tierSounds(tiers map[string]tierFile, name string, visiting map[string]bool) ([]string, error) {
	if visiting[name] {
		return nil, &LoadError{Code: ErrCodeTier, Message: fmt.Sprintf("tier %q extends itself", name)}
	}
	t, ok := tiers[name]
	if !ok {
		return nil, &LoadError{Code: ErrCodeTier, Message: fmt.Sprintf("tier %q is not defined", name)}
	}
	if t.Extends == "" {
		return append([]string(nil), t.Sounds...), nil
	}
	visiting[name] = true
	parent, err := tierSounds(tiers, t.Extends, visiting)
	if err != nil {
		return nil, err
	}
	return append(parent, t.Sounds...), nil
}

func (c *Catalog) soundURL(s string) string {
	if strings.Contains(s, "://") {
		return s
	}
	return c.AudioBaseURL + "/" + strings.TrimLeft(s, "/")
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(code string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}
	first := errs[0]
	loadErr := &LoadError{Code: code, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		loadErr.Pos = positions[0]
	}
	return loadErr
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/avada/internal/content"
)

// CatalogSummary describes a validated catalog.
type CatalogSummary struct {
	Source        string         `json:"source"`
	DefaultLocale string         `json:"default_locale"`
	Locales       []string       `json:"locales"`
	Sounds        map[string]int `json:"sounds"`
}

func (s CatalogSummary) String() string {
	return fmt.Sprintf("✓ %s: %d basic sounds, %d rich sounds, locales %s (default %s)",
		s.Source, s.Sounds[string(content.CapabilityBasic)], s.Sounds[string(content.CapabilityRich)],
		strings.Join(s.Locales, ", "), s.DefaultLocale)
}

// PoolsView is the content one session would be served.
type PoolsView struct {
	Platform           string   `json:"platform"`
	Capability         string   `json:"capability"`
	Locale             string   `json:"locale"`
	SpeakInterjections bool     `json:"speak_interjections"`
	Sounds             []string `json:"sounds"`
	Interjections      []string `json:"interjections"`
	AfterEffects       []string `json:"after_effects"`
}

func (v PoolsView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", v.Platform, v.Capability, v.Locale)
	writeList(&b, "sounds", v.Sounds)
	writeList(&b, "interjections", v.Interjections)
	if !v.SpeakInterjections {
		b.WriteString("  (interjections rotate but are not spoken)\n")
	}
	writeList(&b, "after_effects", v.AfterEffects)
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, name string, items []string) {
	fmt.Fprintf(b, "%s (%d):\n", name, len(items))
	for i, item := range items {
		fmt.Fprintf(b, "  %2d  %s\n", i, item)
	}
}

// NewContentCommand creates the content command group.
func NewContentCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Validate and inspect the content catalog",
	}

	cmd.AddCommand(newContentValidateCommand(rootOpts))
	cmd.AddCommand(newContentPoolsCommand(rootOpts))
	return cmd
}

func newContentValidateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a catalog against the schema",
		Long: `Check a CUE catalog against the built-in schema and resolve its tiers.

Without a file, validates the configured catalog ($AVADA_CATALOG or
--catalog), or the built-in one.

Exit codes:
  0 - Catalog is valid
  1 - Catalog was rejected
  2 - Command error

Example:
  avada content validate ./catalog.cue
  avada content validate --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.Catalog
			if len(args) == 1 {
				path = args[0]
			} else if !cmd.Flags().Changed("catalog") {
				cfg, err := loadConfig(cmd, opts)
				if err != nil {
					return err
				}
				path = cfg.Catalog
			}
			return validateCatalog(opts, path, cmd)
		},
	}
}

func validateCatalog(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	catalog, err := content.Load(path)
	if err != nil {
		var loadErr *content.LoadError
		if !errors.As(err, &loadErr) || loadErr.Code == content.ErrCodeRead {
			return WrapExitError(ExitCommandError, "failed to load catalog", err)
		}
		var details map[string]any
		if loadErr.Pos.IsValid() {
			details = map[string]any{
				"file":   loadErr.Pos.Filename(),
				"line":   loadErr.Pos.Line(),
				"column": loadErr.Pos.Column(),
			}
		}
		if err := out.Error(loadErr.Code, loadErr.Error(), details); err != nil {
			return err
		}
		return WrapExitError(ExitFailure, "catalog rejected", err)
	}

	source := path
	if source == "" {
		source = "built-in catalog"
	}
	summary := CatalogSummary{
		Source:        source,
		DefaultLocale: catalog.DefaultLocale,
		Locales:       catalog.LocaleNames(),
		Sounds:        make(map[string]int, len(content.Capabilities)),
	}
	for _, c := range content.Capabilities {
		summary.Sounds[string(c)] = len(catalog.Tiers[c].Sounds)
	}
	return out.Success(summary)
}

// PoolsOptions holds flags for the content pools command.
type PoolsOptions struct {
	*RootOptions
	Platform string
	Locale   string
}

func newContentPoolsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PoolsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pools",
		Short: "Show the pools a platform and locale are served",
		Long: `Show the resolved pools for a platform and locale. Indices are the ids
stored in rotations.

Example:
  avada content pools --platform google --locale de`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showPools(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Platform, "platform", "alexa", "voice platform (alexa|google)")
	cmd.Flags().StringVar(&opts.Locale, "locale", "", "locale tag (default: catalog default)")
	return cmd
}

func showPools(opts *PoolsOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}

	platform, err := content.ParsePlatform(opts.Platform)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid platform", err)
	}

	catalog, err := content.Load(cfg.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	pools, err := catalog.Pools(platform.Capability(), opts.Locale)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve pools", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(PoolsView{
		Platform:           string(platform),
		Capability:         string(pools.Capability),
		Locale:             pools.Locale,
		SpeakInterjections: pools.SpeakInterjections,
		Sounds:             pools.Sounds,
		Interjections:      pools.Interjections,
		AfterEffects:       pools.AfterEffects,
	})
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: ok
description: "loads"
platform: google
seed: 3
catalog: my.cue
sessions:
  - intents: [LaunchRequest]
  - platform: alexa
    locale: de-DE
    intents: [yes, AMAZON.StopIntent]
assertions:
  - type: distinct
    category: sound
    count: 2
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "ok", s.Name)
	assert.Equal(t, "google", s.Platform)
	require.NotNil(t, s.Seed)
	assert.Equal(t, uint64(3), *s.Seed)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "my.cue"), s.Catalog)
	require.Len(t, s.Sessions, 2)
	assert.Equal(t, "alexa", s.Sessions[1].Platform)
	assert.Equal(t, []string{"yes", "AMAZON.StopIntent"}, s.Sessions[1].Intents)
	require.Len(t, s.Assertions, 1)
	assert.Equal(t, AssertDistinct, s.Assertions[0].Type)
}

func TestLoadScenario_AbsoluteCatalogKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "abs.cue")
	path := writeScenario(t, `
name: abs
description: "absolute catalog"
platform: alexa
catalog: `+abs+`
sessions:
  - intents: [LaunchRequest]
assertions:
  - type: final_index
    category: sound
    index: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, abs, s.Catalog)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "typo"
platform: alexa
sessions:
  - intents: [LaunchRequest]
assertion:
  - type: distinct
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: final_index, category: sound}]
`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: final_index, category: sound}]
`,
			want: "description is required",
		},
		{
			name: "unknown platform",
			yaml: `
name: n
description: "d"
platform: cortana
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: final_index, category: sound}]
`,
			want: "unknown platform",
		},
		{
			name: "unknown session platform",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{platform: siri, intents: [LaunchRequest]}]
assertions: [{type: final_index, category: sound}]
`,
			want: "sessions[0].platform",
		},
		{
			name: "no sessions",
			yaml: `
name: n
description: "d"
platform: alexa
assertions: [{type: final_index, category: sound}]
`,
			want: "sessions list is required",
		},
		{
			name: "empty intents",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: []}]
assertions: [{type: final_index, category: sound}]
`,
			want: "sessions[0]: intents list is required",
		},
		{
			name: "no assertions",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
`,
			want: "assertions list is required",
		},
		{
			name: "unknown assertion type",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: sparkles}]
`,
			want: `unknown assertion type "sparkles"`,
		},
		{
			name: "bad category",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: distinct, category: smell, count: 1}]
`,
			want: "category must be",
		},
		{
			name: "distinct without count",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: distinct, category: sound}]
`,
			want: "distinct needs count",
		},
		{
			name: "repeats without period",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: repeats, category: sound}]
`,
			want: "repeats needs period",
		},
		{
			name: "speech without text",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: speech_contains}]
`,
			want: "text is required",
		},
		{
			name: "event count without action",
			yaml: `
name: n
description: "d"
platform: alexa
sessions: [{intents: [LaunchRequest]}]
assertions: [{type: event_count, count: 1}]
`,
			want: "action is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

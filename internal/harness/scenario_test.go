package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/resolve"
)

func TestLoadScenario_Valid(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/mixed_formal_informal.yaml")
	require.NoError(t, err)

	assert.Equal(t, "mixed_formal_informal", scenario.Name)
	assert.Equal(t, []string{"gene"}, scenario.Knowledgebase.AttributeNames)
	assert.Len(t, scenario.Steps, 3)
	assert.Equal(t, []string{"PIK3CA"}, scenario.Steps[0].Expect["feature"])
	assert.Len(t, scenario.Assertions, 4)
	assert.Equal(t, 14, scenario.Assertions[3].Count)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownField(t *testing.T) {
	content := `
name: typo
description: "Misspelled steps key"
step:
  - query: EGFR
`
	_, err := ParseScenario([]byte(content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsteps: [{query: x}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsteps: [{query: x}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			content: "name: n\ndescription: d\n",
			wantErr: "steps list is required",
		},
		{
			name:    "bad window",
			content: "name: n\ndescription: d\nconfig: {window: widest}\nsteps: [{query: x}]\n",
			wantErr: "unknown window policy",
		},
		{
			name:    "duplicate precedence",
			content: "name: n\ndescription: d\nconfig: {precedence: [disease, disease]}\nsteps: [{query: x}]\n",
			wantErr: "duplicate category",
		},
		{
			name:    "unknown expected category",
			content: "name: n\ndescription: d\nsteps: [{query: x, expect: {gene: [x]}}]\n",
			wantErr: "steps[0].expect",
		},
		{
			name:    "assertion without type",
			content: "name: n\ndescription: d\nsteps: [{query: x}]\nassertions: [{count: 1}]\n",
			wantErr: "type is required",
		},
		{
			name:    "unknown assertion",
			content: "name: n\ndescription: d\nsteps: [{query: x}]\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "max lookups without count",
			content: "name: n\ndescription: d\nsteps: [{query: x}]\nassertions: [{type: max_lookups}]\n",
			wantErr: "count must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ResolveConfig(t *testing.T) {
	cfg, err := Config{}.ResolveConfig()
	require.NoError(t, err)
	assert.Equal(t, resolve.DefaultConfig(), cfg)

	cfg, err = Config{Precedence: []string{"therapy", "feature"}, Window: "shortest"}.ResolveConfig()
	require.NoError(t, err)
	assert.Equal(t, []category.Category{category.Therapy, category.Feature}, cfg.Precedence)
	assert.Equal(t, resolve.Shortest, cfg.Window)
}

func TestLoadScenario_AllTestdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			golden := filepath.Join("testdata", "golden", scenario.Name+".golden")
			_, err = os.Stat(golden)
			assert.NoError(t, err, "every scenario has a golden file")
		})
	}
}

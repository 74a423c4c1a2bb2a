package bot

import (
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type workflow struct {
	Jobs map[string]struct {
		Steps []struct {
			Uses string            `yaml:"uses"`
			With map[string]string `yaml:"with"`
		} `yaml:"steps"`
	} `yaml:"jobs"`
}

type preCommit struct {
	Repos []struct {
		Repo  string `yaml:"repo"`
		Rev   string `yaml:"rev"`
		Hooks []struct {
			ID   string   `yaml:"id"`
			Args []string `yaml:"args"`
		} `yaml:"hooks"`
	} `yaml:"repos"`
}

func readYAML(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(b, v))
}

// disabledLinters collects the values of every --disable=a,b flag in args.
func disabledLinters(args []string) []string {
	var out []string
	for _, arg := range args {
		for _, field := range strings.Fields(arg) {
			list, ok := strings.CutPrefix(field, "--disable=")
			if !ok {
				continue
			}
			for _, name := range strings.Split(list, ",") {
				if name = strings.TrimSpace(name); name != "" {
					out = append(out, name)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func TestLinterSettingsMatchPreCommit(t *testing.T) {
	var ci workflow
	readYAML(t, ".github/workflows/ci.yml", &ci)
	var pc preCommit
	readYAML(t, ".pre-commit-config.yaml", &pc)

	var ciArgs, ciVersion string
	for _, job := range ci.Jobs {
		for _, step := range job.Steps {
			if strings.HasPrefix(step.Uses, "golangci/golangci-lint-action") {
				ciArgs, ciVersion = step.With["args"], step.With["version"]
			}
		}
	}
	require.NotEmpty(t, ciVersion, "golangci-lint step not found in CI")

	var hookArgs []string
	var hookRev string
	for _, repo := range pc.Repos {
		for _, hook := range repo.Hooks {
			if hook.ID == "golangci-lint" {
				hookArgs, hookRev = hook.Args, repo.Rev
			}
		}
	}
	require.NotEmpty(t, hookRev, "golangci-lint hook not found in pre-commit config")

	assert.Equal(t, disabledLinters(hookArgs), disabledLinters([]string{ciArgs}))
	assert.Equal(t, hookRev, ciVersion)
}

func TestDisabledLinters(t *testing.T) {
	assert.Equal(t, []string{"errcheck", "gocritic"}, disabledLinters([]string{"--disable=gocritic,errcheck"}))
	assert.Equal(t, []string{"a", "b"}, disabledLinters([]string{"--fast --disable=b", "--disable=a"}))
	assert.Nil(t, disabledLinters([]string{"--fast"}))
}

package flags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestUniqueFlags asserts that no flag names or env vars collide.
func TestUniqueFlags(t *testing.T) {
	seenNames := map[string]struct{}{}
	seenEnvVars := map[string]struct{}{}
	for _, flag := range Flags {
		name := flag.Names()[0]
		_, dup := seenNames[name]
		assert.False(t, dup, "duplicate flag name %s", name)
		seenNames[name] = struct{}{}

		envFlag, ok := flag.(interface{ GetEnvVars() []string })
		require.True(t, ok, "flag %s has no env vars", name)
		for _, envVar := range envFlag.GetEnvVars() {
			assert.True(t, strings.HasPrefix(envVar, EnvVarPrefix+"_"), "env var %s missing prefix", envVar)
			_, dup := seenEnvVars[envVar]
			assert.False(t, dup, "duplicate env var %s", envVar)
			seenEnvVars[envVar] = struct{}{}
		}
	}
}

func TestCheckRequired(t *testing.T) {
	run := func(args ...string) error {
		app := cli.NewApp()
		app.Flags = optionalFlags
		app.Flags = append(app.Flags, &cli.StringFlag{Name: Dataset.Name})
		app.Action = CheckRequired
		return app.Run(append([]string{"ncheck"}, args...))
	}

	require.NoError(t, run("--dataset", "sst.yaml"))

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset")
}

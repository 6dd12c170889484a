package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "worker", "migrate"}, names)

	flag := root.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "config.yaml", flag.DefValue)
}

func TestLoadReportsConfigErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	opts := &rootOptions{configPath: ""}
	_, _, err := opts.load()
	assert.ErrorContains(t, err, "load config")
}

package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "advisor"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "usage", Run: func(*cobra.Command, []string) {}}
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(nil))
	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, root.PersistentFlags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))
}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, OutputJSON(&buf, map[string]int{"attempts": 3}))
	assert.Equal(t, "{\n  \"attempts\": 3\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, []string{"model", "attempts"}, [][]string{{"gpt-4o-mini", "2"}}))
	assert.Contains(t, buf.String(), "gpt-4o-mini")
	assert.Contains(t, buf.String(), "attempts")
}

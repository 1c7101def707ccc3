package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Name", "Bytes")
	assert.Equal(t, []string{"Name", "Bytes"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("/exp", "3Gi")
	table.AddRow("/hog", "4Gi")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"/hog", "4Gi"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Path", "Bytes To Purge")
	table.AddRow("/exp", "3Gi")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "PATH")
	assert.Contains(t, lines[0], "BYTES TO PURGE")
	assert.Contains(t, lines[1], "/exp")
	assert.Contains(t, lines[1], "3Gi")
}

func TestPrintKeyValues(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintKeyValues(&buf, [][2]string{
		{"Status", "planned"},
		{"Bytes to recover", "7Gi"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Status")
	assert.Contains(t, out, "planned")
	assert.Contains(t, out, "Bytes to recover")
	assert.NotContains(t, out, "STATUS")
}

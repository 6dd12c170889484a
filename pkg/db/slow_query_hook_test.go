package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "unknown", truncateSQL("", 10))
	assert.Equal(t, "SELECT 1", truncateSQL("SELECT 1", 10))

	long := strings.Repeat("x", 25)
	assert.Equal(t, strings.Repeat("x", 10)+"...", truncateSQL(long, 10))
}

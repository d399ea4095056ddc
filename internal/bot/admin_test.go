package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaplus/vitabot/common"
)

func TestFormatAdminLogs(t *testing.T) {
	when := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	logs := []common.AdminLog{
		{AdminID: "777", Action: "add_specialist", Details: "Доктор Ахметова", CreatedAt: when},
		{AdminID: "777", Action: "sync_data", CreatedAt: when.Add(-time.Hour)},
	}

	lines := strings.Split(formatAdminLogs(logs), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2026-08-28 14:30 — add_specialist (777): Доктор Ахметова", lines[0])
	assert.Equal(t, "2026-08-28 13:30 — sync_data (777)", lines[1])
}

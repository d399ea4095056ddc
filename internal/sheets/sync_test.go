package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolvePush(t *testing.T) {
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		id            uint
		localUpdated  time.Time
		remoteUpdated time.Time
		remoteExists  bool
		want          pushAction
	}{
		{"без ID не отправляется", 0, base, time.Time{}, false, pushSkip},
		{"нет в таблице — добавляется", 7, base, time.Time{}, false, pushAdd},
		{"локальная новее — обновляется", 7, base.Add(time.Minute), base, true, pushUpdate},
		{"удалённая новее — не трогаем", 7, base, base.Add(time.Minute), true, pushSkip},
		{"одинаковое время — не трогаем", 7, base, base, true, pushSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolvePush(tt.id, tt.localUpdated, tt.remoteUpdated, tt.remoteExists)
			assert.Equal(t, tt.want, got)
		})
	}
}

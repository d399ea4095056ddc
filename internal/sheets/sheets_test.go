package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	row := []interface{}{"  Айбек  ", 42, true}
	assert.Equal(t, "Айбек", cell(row, 0))
	assert.Equal(t, "42", cell(row, 1))
	assert.Equal(t, "true", cell(row, 2))
	assert.Equal(t, "", cell(row, 5))
	assert.Equal(t, "", cell(nil, 0))
}

func TestCellInt(t *testing.T) {
	row := []interface{}{"17", "не число", 25}
	assert.Equal(t, 17, cellInt(row, 0))
	assert.Equal(t, 0, cellInt(row, 1))
	assert.Equal(t, 25, cellInt(row, 2))
	assert.Equal(t, 0, cellInt(row, 9))
}

func TestCellBool(t *testing.T) {
	tests := []struct {
		value interface{}
		want  bool
	}{
		{"Да", true},
		{"да", true},
		{"TRUE", true},
		{"1", true},
		{"Нет", false},
		{"false", false},
		{"", false},
		{"может быть", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellBool([]interface{}{tt.value}, 0), "значение %v", tt.value)
	}
}

func TestBoolCell(t *testing.T) {
	assert.Equal(t, "Да", boolCell(true))
	assert.Equal(t, "Нет", boolCell(false))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{
			name:  "RFC3339",
			value: "2026-08-28T10:30:00Z",
			want:  time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "без зоны",
			value: "2026-08-28T10:30:00",
			want:  time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "дата и время с пробелом",
			value: "2026-08-28 10:30:00",
			want:  time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "только дата",
			value: "2026-08-28",
			want:  time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "день/месяц/год",
			value: "28/08/2026",
			want:  time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimestamp(tt.value)
			assert.True(t, got.Equal(tt.want), "получено %v", got)
		})
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	assert.True(t, parseTimestamp("").IsZero())
	assert.True(t, parseTimestamp("вчера").IsZero())
}

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		value     string
		wantDate  string
		wantClock string
	}{
		{"2026-09-15 10:00", "2026-09-15", "10:00"},
		{"2026-09-15T10:00:00", "2026-09-15", "10:00"},
		{"2026-09-15", "2026-09-15", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		date, clock := splitDateTime(tt.value)
		assert.Equal(t, tt.wantDate, date, "значение %q", tt.value)
		assert.Equal(t, tt.wantClock, clock, "значение %q", tt.value)
	}
}

package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAggregatesComponents(t *testing.T) {
	m := NewMonitor(nil)
	m.Register("database", func(ctx context.Context) error { return nil })
	m.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	status := m.Check(context.Background())

	assert.False(t, status.Healthy)
	require.Len(t, status.Components, 2)
	// Компоненты отсортированы по имени
	assert.Equal(t, "database", status.Components[0].Name)
	assert.True(t, status.Components[0].Healthy)
	assert.Equal(t, "redis", status.Components[1].Name)
	assert.False(t, status.Components[1].Healthy)
	assert.Contains(t, status.Components[1].Error, "connection refused")
	assert.False(t, status.CheckedAt.IsZero())
}

func TestCheckAllHealthy(t *testing.T) {
	m := NewMonitor(nil)
	m.Register("database", func(ctx context.Context) error { return nil })

	status := m.Check(context.Background())
	assert.True(t, status.Healthy)
}

func TestLastStatus(t *testing.T) {
	m := NewMonitor(nil)
	assert.Empty(t, m.LastStatus().Components)

	m.Register("database", func(ctx context.Context) error { return nil })
	checked := m.Check(context.Background())

	last := m.LastStatus()
	assert.Equal(t, checked.Healthy, last.Healthy)
	assert.Equal(t, checked.CheckedAt, last.CheckedAt)
	require.Len(t, last.Components, 1)
	assert.Equal(t, "database", last.Components[0].Name)
}

func TestDescribeFailures(t *testing.T) {
	status := Status{Components: []ComponentStatus{
		{Name: "database", Healthy: true},
		{Name: "redis", Healthy: false, Error: "timeout"},
		{Name: "sheets", Healthy: false, Error: "403"},
	}}
	assert.Equal(t, "redis: timeout; sheets: 403", describeFailures(status))
	assert.Equal(t, "", describeFailures(Status{}))
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexadash/dcx/internal/testutil"
	"github.com/nexadash/dcx/pkg/refresher"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func TestParseScheduleInterval(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		want     time.Duration
	}{
		{"every seconds", "@every 30s", 30 * time.Second},
		{"every minutes", "@every 5m", 5 * time.Minute},
		{"five field every minute", "* * * * *", time.Minute},
		{"five field hourly", "0 * * * *", time.Hour},
		{"descriptor hourly", "@hourly", time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScheduleInterval(tt.schedule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseScheduleIntervalInvalid(t *testing.T) {
	_, err := parseScheduleInterval("not a schedule")
	require.Error(t, err)
}

func TestBuildRefreshTable(t *testing.T) {
	screens := map[string]*refresher.ScreenConfig{
		"operations":     {SectionKey: "operational", Refresh: "@every 30s"},
		"administration": {SectionKey: "administration", Refresh: "@every 1m"},
	}

	refreshes, err := buildRefreshTable(screens, []string{"globex", "acme"})
	require.NoError(t, err)
	require.Len(t, refreshes, 4)

	// Sorted by id for deterministic ticking order
	assert.Equal(t, "administration:acme", refreshes[0].ID)
	assert.Equal(t, "administration:globex", refreshes[1].ID)
	assert.Equal(t, "operations:acme", refreshes[2].ID)
	assert.Equal(t, "operations:globex", refreshes[3].ID)

	assert.Equal(t, "operations", refreshes[2].Screen)
	assert.Equal(t, "acme", refreshes[2].Tenant)
	assert.Equal(t, 30*time.Second, refreshes[2].Interval)
	assert.Equal(t, time.Minute, refreshes[0].Interval)
}

func TestBuildRefreshTableBadSchedule(t *testing.T) {
	screens := map[string]*refresher.ScreenConfig{
		"operations": {SectionKey: "operational", Refresh: "nope"},
	}

	_, err := buildRefreshTable(screens, []string{"acme"})
	require.Error(t, err)
}

func TestNewServiceDefaultsTenantList(t *testing.T) {
	client := testutil.NewMiniredisClient(t)

	screens := map[string]*refresher.ScreenConfig{
		"operations": {SectionKey: "operational", Refresh: "@every 30s"},
	}

	svc, err := NewService(testLogger(), &Config{}, client, nil, screens, nil)
	require.NoError(t, err)

	impl := svc.(*service)
	require.Len(t, impl.ticker.refreshes, 1)
	assert.Equal(t, "operations:", impl.ticker.refreshes[0].ID)
	assert.Equal(t, "", impl.ticker.refreshes[0].Tenant)
}

func TestScheduleTracker(t *testing.T) {
	client := testutil.NewMiniredisClient(t)
	tracker := newScheduleTracker(testLogger(), client)
	ctx := context.Background()

	last, err := tracker.GetLastRun(ctx, "operations:acme")
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tracker.SetLastRun(ctx, "operations:acme", now))

	last, err = tracker.GetLastRun(ctx, "operations:acme")
	require.NoError(t, err)
	assert.Equal(t, now, last)

	require.NoError(t, tracker.DeleteLastRun(ctx, "operations:acme"))

	last, err = tracker.GetLastRun(ctx, "operations:acme")
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestConfigValidateRejectsNegativeConcurrency(t *testing.T) {
	cfg := &Config{Concurrency: -1}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConcurrency)
}

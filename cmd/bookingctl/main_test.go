package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagnosis/provence-bookings/internal/pricing"
	"github.com/diagnosis/provence-bookings/pkg/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := config.Load()
	cfg.Catalog.Path = ""

	var out bytes.Buffer
	root := newRootCmd(cfg)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSchedule(t *testing.T) {
	out, err := run(t, "schedule", "lavender-workshop", "--from", "2025-01-10")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9, "header plus four June and four July weeks")
	assert.True(t, strings.HasPrefix(lines[1], "2025-06-02"))
	assert.Contains(t, lines[1], "lavender-workshop")

	_, err = run(t, "schedule", "skydiving")
	assert.Error(t, err)
}

func TestRecommend(t *testing.T) {
	out, err := run(t, "recommend", "--interest", "wellness", "--interest", "solitude", "--activity", "relaxed", "--group", "solo")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[1], "yoga-with-goats")
	assert.Contains(t, lines[2], "meditation-mindfulness")
	assert.True(t, strings.HasPrefix(lines[2], "10"))
	assert.True(t, strings.HasPrefix(lines[3], "7"), "leave-me-alone scores 7")

	out, err = run(t, "recommend")
	require.NoError(t, err)
	assert.Contains(t, out, "show all experiences")
}

func TestQuote(t *testing.T) {
	out, err := run(t, "quote",
		"--occupancy", "double", "--guests", "2",
		"--check-in", "2025-09-15", "--check-out", "2025-09-19",
		"--extra-before", "1", "--deposit-paid",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "$5,600.00")
	assert.Contains(t, out, "$1,400.00")
	assert.Contains(t, out, "$7,000.00")
	assert.Contains(t, out, "$6,701.00")

	_, err = run(t, "quote", "--check-in", "2025-09-15", "--check-out", "2025-09-17")
	assert.ErrorIs(t, err, pricing.ErrInvalidNights)

	_, err = run(t, "quote", "--check-in", "2025-09-15")
	assert.Error(t, err, "check-out is required")
}

func TestMigratePrint(t *testing.T) {
	out, err := run(t, "migrate", "--print")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS bookings")
}

func TestReviewsRejectsBadID(t *testing.T) {
	_, err := run(t, "reviews", "approve", "abc")
	assert.EqualError(t, err, `invalid review id "abc"`)

	_, err = run(t, "bookings", "confirm")
	assert.Error(t, err)
}

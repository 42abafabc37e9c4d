package lifecycle_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hostel-leave/lifecycle"
)

func TestParseDate(t *testing.T) {
	d, err := lifecycle.ParseDate("2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, today, d)
	assert.Equal(t, "2026-03-10", d.String())

	empty, err := lifecycle.ParseDate("")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())

	_, err = lifecycle.ParseDate("10/03/2026")
	assert.Error(t, err)

	_, err = lifecycle.ParseDate("2026-02-30")
	assert.Error(t, err)
}

func TestMustParseDate(t *testing.T) {
	assert.Equal(t, today, lifecycle.MustParseDate("2026-03-10"))
	assert.Panics(t, func() { lifecycle.MustParseDate("2026-13-01") })
}

func TestDateOf_UsesHostelTimeZone(t *testing.T) {
	colombo, err := time.LoadLocation("Asia/Colombo")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// 20:00 UTC on the 10th is already the 11th in Colombo (UTC+5:30)
	instant := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, lifecycle.NewDate(2026, time.March, 10), lifecycle.DateOf(instant, time.UTC))
	assert.Equal(t, lifecycle.NewDate(2026, time.March, 11), lifecycle.DateOf(instant, colombo))
	assert.Equal(t, lifecycle.NewDate(2026, time.March, 10), lifecycle.DateOf(instant, nil))
}

func TestDate_Arithmetic(t *testing.T) {
	d := lifecycle.NewDate(2024, time.February, 28)

	assert.Equal(t, lifecycle.NewDate(2024, time.February, 29), d.AddDays(1), "leap day")
	assert.Equal(t, lifecycle.NewDate(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, 2, d.DaysUntil(d.AddDays(2)))
	assert.Equal(t, -2, d.AddDays(2).DaysUntil(d))
	assert.Equal(t, 2, lifecycle.DaysBetween(d.AddDays(2), d))

	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.BeforeOrEqual(d))
	assert.True(t, d.AfterOrEqual(d))
	assert.Equal(t, d, lifecycle.MinDate(d, d.AddDays(3)))
	assert.Equal(t, d.AddDays(3), lifecycle.MaxDate(d, d.AddDays(3)))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Start lifecycle.Date `json:"start"`
	}

	b, err := json.Marshal(payload{Start: today})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2026-03-10"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"start":"2026-12-31"}`), &p))
	assert.Equal(t, lifecycle.NewDate(2026, time.December, 31), p.Start)

	assert.Error(t, json.Unmarshal([]byte(`{"start":"tomorrow"}`), &p))
}

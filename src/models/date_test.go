package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestNewMDateTruncates(t *testing.T) {
	d := NewMDate(time.Date(2024, 3, 15, 23, 59, 1, 0, time.UTC))
	assert.Equal(t, "2024-03-15", d.String())

	// The calendar date is taken in the input's own zone
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	d = NewMDate(time.Date(2024, 3, 15, 22, 0, 0, 0, ny))
	assert.Equal(t, "2024-03-15", d.String())
}

// -----------------------------------------------------------------------------

func TestParseMDate(t *testing.T) {
	d, err := ParseMDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", d.String())

	_, err = ParseMDate("31/01/2024")
	assert.Error(t, err)
	_, err = ParseMDate("")
	assert.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestMDateJSONRoundTrip(t *testing.T) {
	d := NewMDate(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-01"`, string(raw))

	var parsed MDate
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, d.String(), parsed.String())

	assert.Error(t, json.Unmarshal([]byte(`12345`), &parsed))
}

// -----------------------------------------------------------------------------

func TestMDateAddDays(t *testing.T) {
	d, _ := ParseMDate("2024-02-28")
	assert.Equal(t, "2024-02-29", d.AddDays(1).String()) // leap year
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
}

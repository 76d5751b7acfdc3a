package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMealAttendanceUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want MealAttendance
	}{
		{
			name: "all present",
			json: `{"breakfast":false,"lunch":true,"dinner":false}`,
			want: MealAttendance{Breakfast: false, Lunch: true, Dinner: false},
		},
		{
			name: "absent slots default to eating",
			json: `{"dinner":false}`,
			want: MealAttendance{Breakfast: true, Lunch: true, Dinner: false},
		},
		{
			name: "empty record is all eating",
			json: `{}`,
			want: MealAttendance{Breakfast: true, Lunch: true, Dinner: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a MealAttendance
			require.NoError(t, json.Unmarshal([]byte(tt.json), &a))
			assert.Equal(t, tt.want, a)
		})
	}
}

func TestAttendanceForDefaults(t *testing.T) {
	doc := DayDocument{
		Attendance: map[string]MealAttendance{
			"u1": {Breakfast: true, Lunch: false, Dinner: true},
		},
	}

	assert.Equal(t, MealAttendance{Breakfast: true, Lunch: false, Dinner: true}, doc.AttendanceFor("u1"))
	// No record at all means everyone eats.
	assert.Equal(t, MealAttendance{Breakfast: true, Lunch: true, Dinner: true}, doc.AttendanceFor("u2"))
}

func TestTimestampNormalize(t *testing.T) {
	fixed := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	orig := nowFn
	nowFn = func() time.Time { return fixed }
	defer func() { nowFn = orig }()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2026-02-06T10:30:00Z"`, time.Date(2026, 2, 6, 10, 30, 0, 0, time.UTC)},
		{"plain date", `"2026-02-06"`, time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC)},
		{"seconds record", `{"seconds":1770000000,"nanoseconds":0}`, time.Unix(1770000000, 0).UTC()},
		{"nanos variant", `{"seconds":1770000000,"nanos":500}`, time.Unix(1770000000, 500).UTC()},
		{"unix seconds", `1770000000`, time.Unix(1770000000, 0).UTC()},
		{"null falls back to now", `null`, fixed},
		{"garbage string falls back to now", `"soon"`, fixed},
		{"garbage object falls back to now", `{"foo":1}`, fixed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(json.RawMessage(tt.raw))
			assert.True(t, got.Equal(tt.want), "got %v want %v", got.Time, tt.want)
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2026, 2, 6, 10, 30, 0, 0, time.UTC))
	b, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2026-02-06T10:30:00Z"`, string(b))

	var back Timestamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(ts.Time))
}

func TestDayPatchFields(t *testing.T) {
	cal := 1800
	date := "2026-02-06"
	p := DayPatch{Date: &date, TotalCalories: &cal}

	fields := p.Fields()
	assert.Equal(t, map[string]any{"date": "2026-02-06", "total_calories": 1800}, fields)
	assert.False(t, p.IsEmpty())
	assert.True(t, DayPatch{}.IsEmpty())
}

func TestDayDocumentDecodeLegacyShapes(t *testing.T) {
	// A historical document: full-date key, seconds-record timestamps, sparse
	// attendance slots.
	raw := `{
		"id": "2025-01-31",
		"date": "2025-01-31",
		"day_of_week": "Friday",
		"breakfast": {"name": "poha", "ingredients": ["rice flakes"], "calories": 250, "prep_time": "15m"},
		"attendance": {"u1": {"dinner": false}},
		"responsibility": {"dinnerId": "u2"},
		"created_at": {"seconds": 1735689600, "nanoseconds": 0},
		"updated_at": "2025-01-31T09:00:00Z"
	}`

	var doc DayDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "2025-01-31", doc.ID)
	assert.Equal(t, "poha", doc.Breakfast.Name)
	assert.Equal(t, MealAttendance{Breakfast: true, Lunch: true, Dinner: false}, doc.Attendance["u1"])
	assert.Equal(t, "u2", doc.Responsibility.DinnerID)
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), doc.CreatedAt.Time)
	assert.Equal(t, 2025, doc.UpdatedAt.Year())
}

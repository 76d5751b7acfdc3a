package model

import "encoding/json"

// Package model contains the domain documents of the meal planner. These are
// pure data structures shared across layers (HTTP, service, repository) with
// no persistence coupling; the JSON shape is the stored document shape.

// Meal slot names used throughout the API.
const (
	SlotBreakfast = "breakfast"
	SlotLunch     = "lunch"
	SlotDinner    = "dinner"
)

// Responsibility field names. Breakfast and lunch share a single assignee.
const (
	RespBreakfastLunch = "breakfastLunchId"
	RespDinner         = "dinnerId"
)

// MealSlots lists the slots in display order.
var MealSlots = []string{SlotBreakfast, SlotLunch, SlotDinner}

// ValidSlot reports whether s names a meal slot.
func ValidSlot(s string) bool {
	return s == SlotBreakfast || s == SlotLunch || s == SlotDinner
}

// ValidResponsibilitySlot reports whether s names a responsibility field.
func ValidResponsibilitySlot(s string) bool {
	return s == RespBreakfastLunch || s == RespDinner
}

// MealItem is a single planned meal.
type MealItem struct {
	Name         string            `json:"name"`
	Ingredients  []string          `json:"ingredients"`
	Calories     int               `json:"calories"`
	PrepTime     string            `json:"prep_time"`
	Instructions string            `json:"instructions,omitempty"`
	Nutrients    map[string]string `json:"nutrients,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
}

// Responsibility records who cooks on a given day. Breakfast and lunch share
// one assignee, dinner has its own. An empty value means unassigned; an empty
// string is never treated as an assignment.
type Responsibility struct {
	BreakfastLunchID string `json:"breakfastLunchId,omitempty"`
	DinnerID         string `json:"dinnerId,omitempty"`
}

// DayDocument is the per-calendar-day record. It is keyed by the zero-padded
// day-of-month; `date` carries the authoritative full date. The model assumes
// a single month of live documents at a time; the rollover migration keeps
// the key space from colliding across months.
type DayDocument struct {
	ID             string                    `json:"id"`
	Date           string                    `json:"date"`
	DayOfWeek      string                    `json:"day_of_week"`
	Breakfast      MealItem                  `json:"breakfast"`
	Lunch          MealItem                  `json:"lunch"`
	Dinner         MealItem                  `json:"dinner"`
	TotalCalories  int                       `json:"total_calories"`
	Attendance     map[string]MealAttendance `json:"attendance,omitempty"`
	Responsibility Responsibility            `json:"responsibility"`
	CreatedAt      Timestamp                 `json:"created_at"`
	UpdatedAt      Timestamp                 `json:"updated_at"`
}

// AttendanceFor returns the user's per-slot record, defaulting every slot to
// eating when the user has never toggled anything on this day.
func (d *DayDocument) AttendanceFor(userID string) MealAttendance {
	if rec, ok := d.Attendance[userID]; ok {
		return rec
	}
	return MealAttendance{Breakfast: true, Lunch: true, Dinner: true}
}

// Meal returns the meal item for a slot name.
func (d *DayDocument) Meal(slot string) MealItem {
	switch slot {
	case SlotBreakfast:
		return d.Breakfast
	case SlotLunch:
		return d.Lunch
	case SlotDinner:
		return d.Dinner
	}
	return MealItem{}
}

// MealAttendance holds one user's three opt-in flags for a day. A slot that
// was never written means the user is eating, so decoding defaults absent
// slots to true; explicit false is the only way to record skipping.
type MealAttendance struct {
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`
}

// Eating reports the flag for a slot name.
func (a MealAttendance) Eating(slot string) bool {
	switch slot {
	case SlotBreakfast:
		return a.Breakfast
	case SlotLunch:
		return a.Lunch
	case SlotDinner:
		return a.Dinner
	}
	return false
}

// Set writes the flag for a slot name, leaving the siblings untouched.
func (a *MealAttendance) Set(slot string, eating bool) {
	switch slot {
	case SlotBreakfast:
		a.Breakfast = eating
	case SlotLunch:
		a.Lunch = eating
	case SlotDinner:
		a.Dinner = eating
	}
}

// UnmarshalJSON defaults absent slots to "eating".
func (a *MealAttendance) UnmarshalJSON(data []byte) error {
	aux := struct {
		Breakfast *bool `json:"breakfast"`
		Lunch     *bool `json:"lunch"`
		Dinner    *bool `json:"dinner"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Breakfast = aux.Breakfast == nil || *aux.Breakfast
	a.Lunch = aux.Lunch == nil || *aux.Lunch
	a.Dinner = aux.Dinner == nil || *aux.Dinner
	return nil
}

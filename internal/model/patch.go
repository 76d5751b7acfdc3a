package model

// DayPatch is the statically enumerated set of mutable day-document fields.
// Only non-nil fields are written; everything else on the document (the
// attendance map, responsibility, timestamps) is left untouched, so a patch
// can never clobber sibling data it did not name.
type DayPatch struct {
	Date          *string   `json:"date,omitempty"`
	DayOfWeek     *string   `json:"day_of_week,omitempty"`
	Breakfast     *MealItem `json:"breakfast,omitempty"`
	Lunch         *MealItem `json:"lunch,omitempty"`
	Dinner        *MealItem `json:"dinner,omitempty"`
	TotalCalories *int      `json:"total_calories,omitempty"`
}

// IsEmpty reports whether the patch names no fields.
func (p DayPatch) IsEmpty() bool {
	return p.Date == nil && p.DayOfWeek == nil &&
		p.Breakfast == nil && p.Lunch == nil && p.Dinner == nil &&
		p.TotalCalories == nil
}

// Fields renders the set fields as document field paths.
func (p DayPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Date != nil {
		fields["date"] = *p.Date
	}
	if p.DayOfWeek != nil {
		fields["day_of_week"] = *p.DayOfWeek
	}
	if p.Breakfast != nil {
		fields["breakfast"] = *p.Breakfast
	}
	if p.Lunch != nil {
		fields["lunch"] = *p.Lunch
	}
	if p.Dinner != nil {
		fields["dinner"] = *p.Dinner
	}
	if p.TotalCalories != nil {
		fields["total_calories"] = *p.TotalCalories
	}
	return fields
}

// ResponsibilityPatch carries the bulk-assignment updates. A nil field is
// omitted from every target document; a pointer to the empty string clears
// the assignment.
type ResponsibilityPatch struct {
	BreakfastLunchID *string `json:"breakfastLunchId"`
	DinnerID         *string `json:"dinnerId"`
}

// IsEmpty reports whether neither field is present.
func (p ResponsibilityPatch) IsEmpty() bool {
	return p.BreakfastLunchID == nil && p.DinnerID == nil
}

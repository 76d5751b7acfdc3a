package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/iimmbipul/whattocook/internal/daykey"
	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/repository"
	"github.com/iimmbipul/whattocook/internal/storage"
)

var (
	ErrNotFound          = errors.New("day not found")
	ErrKeyRequired       = errors.New("day key is required")
	ErrInvalidSlot       = errors.New("invalid meal slot")
	ErrUserIDRequired    = errors.New("user id is required")
	ErrInvalidUserID     = errors.New("user id may not contain '.'")
	ErrEmptyPatch        = errors.New("no fields to update")
	ErrNothingToMigrate  = errors.New("no day documents to migrate")
	ErrSnapshotsDisabled = errors.New("snapshot storage is not configured")
)

// DayListResult is the service-level DTO for the full day listing.
type DayListResult struct {
	Items []model.DayDocument `json:"data"`
	Total int                 `json:"total"`
}

// MealRef points at one meal slot on one day.
type MealRef struct {
	Date string         `json:"date"`
	Slot string         `json:"slot"`
	Meal model.MealItem `json:"meal"`
}

// UserMeals is the aggregation result for one user: the meals they are on
// the hook to cook, and the meals they are eating.
type UserMeals struct {
	Assigned  []MealRef `json:"assigned"`
	Attending []MealRef `json:"attending"`
}

// MigrationResult reports a month rollover. UpdatedCount is the number of
// documents the batch attempted; when the atomic commit fails nothing was
// persisted even though the count is non-zero.
type MigrationResult struct {
	UpdatedCount int    `json:"updatedCount"`
	SnapshotKey  string `json:"snapshotKey,omitempty"`
}

// PlannerService defines the use cases on the household meal schedule.
type PlannerService interface {
	// GetByDate resolves any accepted date form to the canonical day key and
	// returns that day's document, falling back to the legacy unpadded key
	// before reporting ErrNotFound.
	GetByDate(ctx context.Context, date string) (*model.DayDocument, error)

	// ListDays returns every live day document ordered by key.
	ListDays(ctx context.Context) (*DayListResult, error)

	// Update merges the patch into an existing day document and stamps
	// updated_at. Fields the patch does not name are never touched.
	Update(ctx context.Context, key string, patch model.DayPatch) error

	// ToggleAttendance flips one user's flag for one meal slot.
	// skipping=true records an opt-out; skipping=false opts back in.
	ToggleAttendance(ctx context.Context, dayKey, slot, userID string, skipping bool) error

	// AssignResponsibility sets or clears the cook for a responsibility slot
	// (breakfastLunchId or dinnerId). An empty userID clears the assignment.
	AssignResponsibility(ctx context.Context, dayKey, slot, userID string) error

	// BulkAssignResponsibility applies the same responsibility updates to
	// every listed day in one atomic batch. Only fields present in updates
	// are written. Returns the attempted document count, which on a failed
	// commit exceeds what was persisted (nothing).
	BulkAssignResponsibility(ctx context.Context, dayKeys []string, updates model.ResponsibilityPatch) (int, error)

	// MigrateToCurrentMonth re-anchors every day document onto the current
	// month and the canonical key scheme. See rollover.go.
	MigrateToCurrentMonth(ctx context.Context) (MigrationResult, error)

	// MealsForUser scans all days and returns the user's assigned and
	// attending meals, each sorted ascending by date.
	MealsForUser(ctx context.Context, userID string) (*UserMeals, error)

	// SnapshotURL returns a short-lived download URL for a rollover
	// snapshot. Fails with ErrSnapshotsDisabled when no object storage is
	// configured.
	SnapshotURL(ctx context.Context, key string) (string, error)
}

// plannerService is the concrete implementation of PlannerService.
type plannerService struct {
	repo  repository.DayRepository
	snaps storage.Storage // optional; nil disables rollover snapshots
	now   func() time.Time
}

// NewPlannerService constructs a PlannerService. snaps may be nil when no
// object storage is configured.
func NewPlannerService(repo repository.DayRepository, snaps storage.Storage) PlannerService {
	return &plannerService{repo: repo, snaps: snaps, now: time.Now}
}

func (s *plannerService) GetByDate(ctx context.Context, date string) (*model.DayDocument, error) {
	if date == "" {
		return nil, ErrKeyRequired
	}
	return s.getDoc(ctx, date)
}

// getDoc resolves the key and reads the document, trying the legacy unpadded
// key before giving up. The returned document's ID is the key it is actually
// stored under, so follow-up writes hit the right row.
func (s *plannerService) getDoc(ctx context.Context, date string) (*model.DayDocument, error) {
	key := daykey.Resolve(date)
	doc, err := s.repo.Get(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		if short, ok := daykey.Unpadded(key); ok {
			doc, err = s.repo.Get(ctx, short)
		}
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *plannerService) ListDays(ctx context.Context) (*DayListResult, error) {
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &DayListResult{Items: docs, Total: len(docs)}, nil
}

func (s *plannerService) Update(ctx context.Context, key string, patch model.DayPatch) error {
	if key == "" {
		return ErrKeyRequired
	}
	if patch.IsEmpty() {
		return ErrEmptyPatch
	}

	fields := patch.Fields()
	// A date change drags day_of_week along unless the caller set it, so the
	// two can not drift apart.
	if patch.Date != nil && patch.DayOfWeek == nil {
		if t, err := time.Parse(daykey.ISODate, *patch.Date); err == nil {
			fields["day_of_week"] = daykey.DayName(t)
		}
	}
	fields["updated_at"] = model.NewTimestamp(s.now())

	err := s.repo.MergeFields(ctx, daykey.Resolve(key), fields)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *plannerService) ToggleAttendance(ctx context.Context, dayKey, slot, userID string, skipping bool) error {
	if !model.ValidSlot(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	if err := checkUserID(userID); err != nil {
		return err
	}

	// The whole document is read first: the per-user record may not exist
	// yet, and a blind nested write would drop the user's other two slots.
	doc, err := s.getDoc(ctx, dayKey)
	if err != nil {
		return err
	}

	rec := doc.AttendanceFor(userID)
	rec.Set(slot, !skipping)

	// The full three-slot record is written as one field so sibling slots
	// survive and other users' records stay untouched.
	fields := map[string]any{
		"attendance." + userID: rec,
		"updated_at":           model.NewTimestamp(s.now()),
	}
	err = s.repo.MergeFields(ctx, doc.ID, fields)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *plannerService) AssignResponsibility(ctx context.Context, dayKey, slot, userID string) error {
	if dayKey == "" {
		return ErrKeyRequired
	}
	if !model.ValidResponsibilitySlot(slot) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	if strings.Contains(userID, ".") {
		return ErrInvalidUserID
	}

	// Empty clears the assignment; an empty string is never stored.
	var val any
	if userID != "" {
		val = userID
	}
	fields := map[string]any{
		"responsibility." + slot: val,
		"updated_at":             model.NewTimestamp(s.now()),
	}
	err := s.repo.MergeFields(ctx, daykey.Resolve(dayKey), fields)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *plannerService) BulkAssignResponsibility(ctx context.Context, dayKeys []string, updates model.ResponsibilityPatch) (int, error) {
	if len(dayKeys) == 0 {
		// No-op success; the store is never contacted.
		return 0, nil
	}
	if updates.IsEmpty() {
		return 0, ErrEmptyPatch
	}

	fields := map[string]any{
		"updated_at": model.NewTimestamp(s.now()),
	}
	if updates.BreakfastLunchID != nil {
		fields["responsibility."+model.RespBreakfastLunch] = clearable(*updates.BreakfastLunchID)
	}
	if updates.DinnerID != nil {
		fields["responsibility."+model.RespDinner] = clearable(*updates.DinnerID)
	}

	ops := make([]repository.BatchOp, 0, len(dayKeys))
	for _, k := range dayKeys {
		ops = append(ops, repository.MergeOp(daykey.Resolve(k), fields))
	}
	if err := s.repo.RunBatch(ctx, ops); err != nil {
		// Attempted count; the atomic commit persisted nothing.
		return len(ops), err
	}
	return len(ops), nil
}

func clearable(userID string) any {
	if userID == "" {
		return nil
	}
	return userID
}

var slotRank = map[string]int{
	model.SlotBreakfast: 0,
	model.SlotLunch:     1,
	model.SlotDinner:    2,
}

func (s *plannerService) MealsForUser(ctx context.Context, userID string) (*UserMeals, error) {
	if err := checkUserID(userID); err != nil {
		return nil, err
	}

	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(daykey.ISODate)
	out := &UserMeals{Assigned: []MealRef{}, Attending: []MealRef{}}

	for i := range docs {
		doc := &docs[i]

		// Past cooking duties are not surfaced; attendance is not filtered.
		if doc.Date >= today {
			if doc.Responsibility.BreakfastLunchID == userID && userID != "" {
				out.Assigned = append(out.Assigned,
					MealRef{Date: doc.Date, Slot: model.SlotBreakfast, Meal: doc.Breakfast},
					MealRef{Date: doc.Date, Slot: model.SlotLunch, Meal: doc.Lunch},
				)
			}
			if doc.Responsibility.DinnerID == userID && userID != "" {
				out.Assigned = append(out.Assigned, MealRef{Date: doc.Date, Slot: model.SlotDinner, Meal: doc.Dinner})
			}
		}

		rec := doc.AttendanceFor(userID)
		for _, slot := range model.MealSlots {
			if rec.Eating(slot) {
				out.Attending = append(out.Attending, MealRef{Date: doc.Date, Slot: slot, Meal: doc.Meal(slot)})
			}
		}
	}

	sortMealRefs(out.Assigned)
	sortMealRefs(out.Attending)
	return out, nil
}

func sortMealRefs(refs []MealRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Date != refs[j].Date {
			return refs[i].Date < refs[j].Date
		}
		return slotRank[refs[i].Slot] < slotRank[refs[j].Slot]
	})
}

func checkUserID(userID string) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	// '.' is the field path separator in nested writes.
	if strings.Contains(userID, ".") {
		return ErrInvalidUserID
	}
	return nil
}

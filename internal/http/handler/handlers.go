package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/service"
)

// mutationResult is the response body for single-document mutations.
type mutationResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// bulkResult carries the attempted document count. On a failed atomic
// commit the count reflects how far processing advanced in memory, not what
// was persisted (nothing).
type bulkResult struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updatedCount"`
	Error        string `json:"error,omitempty"`
}

type migrateResult struct {
	Success      bool   `json:"success"`
	UpdatedCount int    `json:"updatedCount"`
	SnapshotKey  string `json:"snapshotKey,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListDays returns every live day document.
func ListDays(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.ListDays(c.UserContext())
		if err != nil {
			logOpError("list_days", err)
			return writeError(c, fiber.StatusInternalServerError, "STORE_FAILURE", "could not list days")
		}
		return c.JSON(res)
	}
}

// GetDay returns the document for any accepted date form ("YYYY-MM-DD",
// "D", "DD"). A missing day is a 404, not a failure.
func GetDay(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.GetByDate(c.UserContext(), c.Params("date"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "day not found")
			}
			if errors.Is(err, service.ErrKeyRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date is required")
			}
			logOpError("get_day", err)
			return writeError(c, fiber.StatusInternalServerError, "STORE_FAILURE", "could not read day")
		}
		return c.JSON(doc)
	}
}

// UpdateDay merges a typed partial update into a day document.
func UpdateDay(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch model.DayPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid update payload")
		}

		err := svc.Update(c.UserContext(), c.Params("key"), patch)
		return mutationResponse(c, "update_day", err)
	}
}

type toggleAttendanceRequest struct {
	Slot     string `json:"slot"`
	UserID   string `json:"user_id"`
	Skipping bool   `json:"skipping"`
}

// ToggleAttendance flips one user's opt-out flag for one meal slot.
func ToggleAttendance(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req toggleAttendanceRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid attendance payload")
		}

		err := svc.ToggleAttendance(c.UserContext(), c.Params("key"), req.Slot, req.UserID, req.Skipping)
		return mutationResponse(c, "toggle_attendance", err)
	}
}

type assignResponsibilityRequest struct {
	Slot   string `json:"slot"`
	UserID string `json:"user_id"`
}

// AssignResponsibility sets or clears the cook for one slot; an empty
// user_id clears the assignment.
func AssignResponsibility(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req assignResponsibilityRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid responsibility payload")
		}

		err := svc.AssignResponsibility(c.UserContext(), c.Params("key"), req.Slot, req.UserID)
		return mutationResponse(c, "assign_responsibility", err)
	}
}

type bulkAssignRequest struct {
	Keys    []string                  `json:"keys"`
	Updates model.ResponsibilityPatch `json:"updates"`
}

// BulkAssignResponsibility applies the same responsibility updates to many
// days in one atomic batch.
func BulkAssignResponsibility(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req bulkAssignRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid bulk payload")
		}

		count, err := svc.BulkAssignResponsibility(c.UserContext(), req.Keys, req.Updates)
		if err != nil {
			if isValidationErr(err) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_UPDATES", err.Error())
			}
			logOpError("bulk_assign_responsibility", err)
			return c.Status(fiber.StatusInternalServerError).JSON(bulkResult{
				Success:      false,
				UpdatedCount: count,
				Error:        "bulk assignment failed",
			})
		}
		return c.JSON(bulkResult{Success: true, UpdatedCount: count})
	}
}

// MigrateMonth re-anchors all day documents onto the current month.
func MigrateMonth(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.MigrateToCurrentMonth(c.UserContext())
		if err != nil {
			if errors.Is(err, service.ErrNothingToMigrate) {
				return writeError(c, fiber.StatusConflict, "NOTHING_TO_MIGRATE", "no day documents to migrate")
			}
			logOpError("migrate_month", err)
			return c.Status(fiber.StatusInternalServerError).JSON(migrateResult{
				Success:      false,
				UpdatedCount: res.UpdatedCount,
				SnapshotKey:  res.SnapshotKey,
				Error:        "migration failed",
			})
		}
		return c.JSON(migrateResult{
			Success:      true,
			UpdatedCount: res.UpdatedCount,
			SnapshotKey:  res.SnapshotKey,
		})
	}
}

// SnapshotLink presigns a download URL for a rollover snapshot object.
func SnapshotLink(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		url, err := svc.SnapshotURL(c.UserContext(), c.Params("*"))
		if err != nil {
			if errors.Is(err, service.ErrSnapshotsDisabled) {
				return writeError(c, fiber.StatusNotFound, "SNAPSHOTS_DISABLED", "snapshot storage is not configured")
			}
			if errors.Is(err, service.ErrKeyRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_KEY", "snapshot key is required")
			}
			logOpError("snapshot_link", err)
			return writeError(c, fiber.StatusInternalServerError, "STORE_FAILURE", "could not presign snapshot")
		}
		return c.JSON(fiber.Map{"url": url})
	}
}

// UserMeals returns a user's assigned and attending meals across all days.
func UserMeals(svc service.PlannerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		meals, err := svc.MealsForUser(c.UserContext(), c.Params("userId"))
		if err != nil {
			if isValidationErr(err) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_USER", err.Error())
			}
			logOpError("user_meals", err)
			return writeError(c, fiber.StatusInternalServerError, "STORE_FAILURE", "could not aggregate meals")
		}
		return c.JSON(meals)
	}
}

// mutationResponse converts a service mutation outcome into the boolean
// contract: validation problems are 400s, a missing day is a 404, and store
// failures are logged and reported as success:false rather than raised.
func mutationResponse(c *fiber.Ctx, op string, err error) error {
	switch {
	case err == nil:
		return c.JSON(mutationResult{Success: true})
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "day not found")
	case isValidationErr(err):
		return writeError(c, fiber.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		logOpError(op, err)
		return c.Status(fiber.StatusInternalServerError).JSON(mutationResult{
			Success: false,
			Error:   "write failed",
		})
	}
}

func isValidationErr(err error) bool {
	return errors.Is(err, service.ErrKeyRequired) ||
		errors.Is(err, service.ErrInvalidSlot) ||
		errors.Is(err, service.ErrUserIDRequired) ||
		errors.Is(err, service.ErrInvalidUserID) ||
		errors.Is(err, service.ErrEmptyPatch)
}

// logOpError emits one JSON line for a failed store operation.
func logOpError(op string, err error) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": "error",
		"op":    op,
		"error": err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}

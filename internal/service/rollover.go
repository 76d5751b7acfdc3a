package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/iimmbipul/whattocook/internal/daykey"
	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/repository"
	"github.com/iimmbipul/whattocook/internal/storage"
)

// MigrateToCurrentMonth rewrites every day document onto the month anchored
// to "now", reconciling the historical "YYYY-MM-DD" key scheme with the
// canonical zero-padded day keys.
//
// The year and month are fixed once per run. For each document the stored
// date's day-of-month is re-anchored into the current month (clamped to the
// month's last day, so Jan 31 lands on Feb 28 rather than rolling into
// March), day_of_week is recomputed, created_at is preserved and updated_at
// stamped. A document already stored under its new key gets an in-place
// field merge; otherwise the old key is deleted and the new one written,
// both inside the same batch. The whole run commits as one transaction.
//
// Two source documents can map to the same new key when upstream data holds
// duplicate days; the later one in key iteration order wins, matching the
// original behavior.
func (s *plannerService) MigrateToCurrentMonth(ctx context.Context) (MigrationResult, error) {
	docs, err := s.repo.ListAll(ctx)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("scan days: %w", err)
	}
	if len(docs) == 0 {
		// Nothing to migrate is a caller mistake, not a silent success.
		return MigrationResult{}, ErrNothingToMigrate
	}

	now := s.now().UTC()
	year, month := now.Year(), now.Month()
	lastDay := daykey.LastDayOfMonth(year, month)

	snapshotKey, err := s.snapshot(ctx, docs, now)
	if err != nil {
		return MigrationResult{}, fmt.Errorf("pre-rollover snapshot: %w", err)
	}

	ops := make([]repository.BatchOp, 0, len(docs))
	count := 0
	for i := range docs {
		doc := docs[i]

		day, ok := sourceDay(&doc)
		if !ok {
			continue
		}
		if day > lastDay {
			day = lastDay
		}

		newDate := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		newKey := daykey.Pad(day)
		dateStr := newDate.Format(daykey.ISODate)
		dayName := daykey.DayName(newDate)

		if doc.ID == newKey {
			ops = append(ops, repository.MergeOp(newKey, map[string]any{
				"date":        dateStr,
				"day_of_week": dayName,
				"updated_at":  model.NewTimestamp(now),
			}))
		} else {
			moved := doc
			moved.ID = newKey
			moved.Date = dateStr
			moved.DayOfWeek = dayName
			if moved.CreatedAt.IsZero() {
				moved.CreatedAt = model.NewTimestamp(now)
			}
			moved.UpdatedAt = model.NewTimestamp(now)
			// Delete+set rather than rename: the pair commits atomically
			// with the rest of the batch.
			ops = append(ops, repository.DeleteOp(doc.ID), repository.SetOp(&moved))
		}
		count++
	}

	if err := s.repo.RunBatch(ctx, ops); err != nil {
		// Attempted count: processing advanced in memory but the atomic
		// commit persisted nothing.
		return MigrationResult{UpdatedCount: count, SnapshotKey: snapshotKey}, fmt.Errorf("commit rollover batch: %w", err)
	}
	return MigrationResult{UpdatedCount: count, SnapshotKey: snapshotKey}, nil
}

// sourceDay extracts the day-of-month a document should keep, preferring the
// authoritative date field and falling back to the document key.
func sourceDay(doc *model.DayDocument) (int, bool) {
	if t, err := time.Parse(daykey.ISODate, doc.Date); err == nil {
		return t.Day(), true
	}
	if d, err := strconv.Atoi(daykey.Resolve(doc.ID)); err == nil && d >= 1 && d <= 31 {
		return d, true
	}
	return 0, false
}

// SnapshotURL presigns a download link for a stored rollover snapshot.
func (s *plannerService) SnapshotURL(ctx context.Context, key string) (string, error) {
	if s.snaps == nil {
		return "", ErrSnapshotsDisabled
	}
	if key == "" {
		return "", ErrKeyRequired
	}
	return s.snaps.PresignGet(ctx, key, 15*time.Minute)
}

// snapshot uploads the full document set to object storage before the
// destructive batch runs. Skipped when no storage is configured.
func (s *plannerService) snapshot(ctx context.Context, docs []model.DayDocument, now time.Time) (string, error) {
	if s.snaps == nil {
		return "", nil
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := fmt.Sprintf("rollover/%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString())
	_, err = s.snaps.Put(ctx, key, bytes.NewReader(payload), storage.PutObjectOptions{
		Size:        int64(len(payload)),
		ContentType: "application/json",
		Metadata:    map[string]string{"document-count": strconv.Itoa(len(docs))},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iimmbipul/whattocook/internal/model"
	"github.com/iimmbipul/whattocook/internal/repository"
	repoMocks "github.com/iimmbipul/whattocook/internal/repository/mocks"
	"github.com/iimmbipul/whattocook/internal/storage"
	storageMocks "github.com/iimmbipul/whattocook/internal/storage/mocks"
)

func TestMigrateNothingToMigrate(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{}, nil).Once()

	_, err := svc.MigrateToCurrentMonth(context.Background())
	assert.ErrorIs(t, err, ErrNothingToMigrate)
	repo.AssertNotCalled(t, "RunBatch")
}

func TestMigrateInPlaceMerge(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	// Already stored under the canonical key; only the date fields move.
	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
		{ID: "15", Date: "2026-01-15", DayOfWeek: "Thursday"},
	}, nil).Once()
	repo.On("RunBatch", mock.Anything, mock.MatchedBy(func(ops []repository.BatchOp) bool {
		if len(ops) != 1 || ops[0].Kind != repository.OpMerge || ops[0].Key != "15" {
			return false
		}
		return ops[0].Fields["date"] == "2026-02-15" && ops[0].Fields["day_of_week"] == "Sunday"
	})).Return(nil).Once()

	res, err := svc.MigrateToCurrentMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Empty(t, res.SnapshotKey)
	repo.AssertExpectations(t)
}

func TestMigrateLegacyKeyRewrite(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	// A full-date key from January, day 31: February 2026 only has 28 days,
	// so the day clamps instead of rolling into March.
	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
		{ID: "2025-01-31", Date: "2025-01-31", Dinner: model.MealItem{Name: "stew"}},
	}, nil).Once()
	repo.On("RunBatch", mock.Anything, mock.MatchedBy(func(ops []repository.BatchOp) bool {
		if len(ops) != 2 {
			return false
		}
		if ops[0].Kind != repository.OpDelete || ops[0].Key != "2025-01-31" {
			return false
		}
		if ops[1].Kind != repository.OpSet || ops[1].Key != "28" {
			return false
		}
		doc := ops[1].Doc
		return doc.Date == "2026-02-28" && doc.DayOfWeek == "Saturday" && doc.Dinner.Name == "stew"
	})).Return(nil).Once()

	res, err := svc.MigrateToCurrentMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)
	repo.AssertExpectations(t)
}

func TestMigrateIsIdempotent(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	// A second run in the same month finds everything already canonical:
	// every op is an in-place merge, nothing is deleted or rewritten.
	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
		{ID: "01", Date: "2026-02-01"},
		{ID: "15", Date: "2026-02-15"},
		{ID: "28", Date: "2026-02-28"},
	}, nil).Once()
	repo.On("RunBatch", mock.Anything, mock.MatchedBy(func(ops []repository.BatchOp) bool {
		if len(ops) != 3 {
			return false
		}
		for _, op := range ops {
			if op.Kind != repository.OpMerge {
				return false
			}
		}
		return true
	})).Return(nil).Once()

	res, err := svc.MigrateToCurrentMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.UpdatedCount)
	repo.AssertExpectations(t)
}

func TestMigrateSkipsUndatableDocuments(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
		{ID: "15", Date: "2026-01-15"},
		{ID: "notes", Date: "not a date"},
	}, nil).Once()
	repo.On("RunBatch", mock.Anything, mock.MatchedBy(func(ops []repository.BatchOp) bool {
		return len(ops) == 1 && ops[0].Key == "15"
	})).Return(nil).Once()

	res, err := svc.MigrateToCurrentMonth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)
	repo.AssertExpectations(t)
}

func TestMigrateFailedCommitKeepsAttemptedCount(t *testing.T) {
	repo := new(repoMocks.MockDayRepository)
	svc := newTestService(repo)

	repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
		{ID: "01", Date: "2026-01-01"},
		{ID: "02", Date: "2026-01-02"},
	}, nil).Once()
	repo.On("RunBatch", mock.Anything, mock.Anything).Return(errors.New("tx aborted")).Once()

	res, err := svc.MigrateToCurrentMonth(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 2, res.UpdatedCount)
}

func TestMigrateSnapshot(t *testing.T) {
	t.Run("uploads before the batch runs", func(t *testing.T) {
		repo := new(repoMocks.MockDayRepository)
		snaps := new(storageMocks.MockStorage)
		svc := &plannerService{repo: repo, snaps: snaps, now: func() time.Time { return fixedNow }}

		repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
			{ID: "15", Date: "2026-02-15"},
		}, nil).Once()
		snaps.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "rollover/20260215T100000Z-") && strings.HasSuffix(key, ".json")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.ContentType == "application/json" && opt.Metadata["document-count"] == "1"
		})).Return(storage.ObjectInfo{}, nil).Once()
		repo.On("RunBatch", mock.Anything, mock.Anything).Return(nil).Once()

		res, err := svc.MigrateToCurrentMonth(context.Background())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(res.SnapshotKey, "rollover/"))
		snaps.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("snapshot link uses a presigned URL", func(t *testing.T) {
		repo := new(repoMocks.MockDayRepository)
		snaps := new(storageMocks.MockStorage)
		svc := &plannerService{repo: repo, snaps: snaps, now: func() time.Time { return fixedNow }}

		snaps.On("PresignGet", mock.Anything, "rollover/x.json", 15*time.Minute).
			Return("https://minio.local/rollover/x.json?sig=abc", nil).Once()

		url, err := svc.SnapshotURL(context.Background(), "rollover/x.json")
		require.NoError(t, err)
		assert.Contains(t, url, "rollover/x.json")
		snaps.AssertExpectations(t)
	})

	t.Run("snapshot link without storage", func(t *testing.T) {
		repo := new(repoMocks.MockDayRepository)
		svc := newTestService(repo)

		_, err := svc.SnapshotURL(context.Background(), "rollover/x.json")
		assert.ErrorIs(t, err, ErrSnapshotsDisabled)
	})

	t.Run("upload failure aborts the migration", func(t *testing.T) {
		repo := new(repoMocks.MockDayRepository)
		snaps := new(storageMocks.MockStorage)
		svc := &plannerService{repo: repo, snaps: snaps, now: func() time.Time { return fixedNow }}

		repo.On("ListAll", mock.Anything).Return([]model.DayDocument{
			{ID: "15", Date: "2026-02-15"},
		}, nil).Once()
		snaps.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("bucket gone")).Once()

		_, err := svc.MigrateToCurrentMonth(context.Background())
		assert.Error(t, err)
		repo.AssertNotCalled(t, "RunBatch")
	})
}

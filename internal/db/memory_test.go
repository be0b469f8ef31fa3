package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/property360-2/richwell-potal-sub001/internal/model"
	apperrors "github.com/property360-2/richwell-potal-sub001/pkg/errors"
)

func TestCreateResolution_OneOpenRequestPerRecord(t *testing.T) {
	repo := NewMemoryRepository()
	repo.SeedGradeRecord(model.GradeRecord{ID: "gr-1", Status: model.GradeStatusInc})

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.CreateResolution(context.Background(), &model.ResolutionRequest{
				ID:             fmt.Sprintf("res-%d", i),
				GradeRecordID:  "gr-1",
				RequestedBy:    "prof-1",
				ProposedStatus: model.GradeStatusPassed,
				ApprovalStatus: model.ApprovalStatusPendingHead,
				CreatedAt:      time.Now(),
			})
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case apperrors.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created, "exactly one writer wins the check-and-create")
	assert.Equal(t, writers-1, conflicts)
}

func TestExpireIncomplete_LosesRaceWithOpenResolution(t *testing.T) {
	repo := NewMemoryRepository()
	deadline := time.Now().Add(-time.Hour)
	repo.SeedGradeRecord(model.GradeRecord{ID: "gr-1", Status: model.GradeStatusInc, IncDeadline: &deadline})

	require.NoError(t, repo.CreateResolution(context.Background(), &model.ResolutionRequest{
		ID:             "res-1",
		GradeRecordID:  "gr-1",
		RequestedBy:    "prof-1",
		ProposedStatus: model.GradeStatusPassed,
		ApprovalStatus: model.ApprovalStatusPendingHead,
		CreatedAt:      time.Now(),
	}))

	err := repo.ExpireIncomplete(context.Background(), "gr-1", 5.00, time.Now())
	assert.True(t, apperrors.IsInvalidState(err))

	rec, err := repo.GetGradeRecord(context.Background(), "gr-1")
	require.NoError(t, err)
	assert.Equal(t, model.GradeStatusInc, rec.Status)
}

func TestUpdateGradeRecord_StaleWriterRejected(t *testing.T) {
	repo := NewMemoryRepository()
	repo.SeedGradeRecord(model.GradeRecord{ID: "gr-1", Status: model.GradeStatusEnrolled})

	grade := 2.00
	rec := model.GradeRecord{ID: "gr-1", Status: model.GradeStatusPassed, Grade: &grade}
	require.NoError(t, repo.UpdateGradeRecord(context.Background(), &rec, model.GradeStatusEnrolled))

	// Second writer still believes the record is ENROLLED.
	err := repo.UpdateGradeRecord(context.Background(), &rec, model.GradeStatusEnrolled)
	assert.True(t, apperrors.IsInvalidState(err))
}

package store

import (
	"context"
	"testing"
	"time"

	"talentgate/internal/errors"
	"talentgate/internal/types"
)

func TestMemoryStoreApplications(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	app := &types.Application{
		ID:        "app-1",
		StudentID: "student-1",
		JobID:     "job-1",
		Status:    types.StatusPending,
		Timeline:  []types.TimelineEntry{{Stage: "Applied", At: time.Now()}},
		CreatedAt: time.Now(),
	}
	if err := s.CreateApplication(ctx, app); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("find by pair", func(t *testing.T) {
		found, err := s.FindApplication(ctx, "student-1", "job-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found == nil || found.ID != "app-1" {
			t.Fatalf("found = %+v, want app-1", found)
		}
	})

	t.Run("find excludes status", func(t *testing.T) {
		found, err := s.FindApplication(ctx, "student-1", "job-1", types.StatusPending)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found != nil {
			t.Fatalf("found = %+v, want nil when Pending excluded", found)
		}
	})

	t.Run("copies are isolated", func(t *testing.T) {
		found, _ := s.GetApplication(ctx, "app-1")
		found.Timeline = append(found.Timeline, types.TimelineEntry{Stage: "tampered"})

		again, _ := s.GetApplication(ctx, "app-1")
		if len(again.Timeline) != 1 {
			t.Errorf("stored timeline mutated through returned copy")
		}
	})

	t.Run("update missing application", func(t *testing.T) {
		err := s.UpdateApplication(ctx, &types.Application{ID: "ghost"})
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("err = %v, want NOT_FOUND", err)
		}
	})

	t.Run("delete removes record", func(t *testing.T) {
		if err := s.DeleteApplication(ctx, "app-1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetApplication(ctx, "app-1"); !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("get after delete = %v, want NOT_FOUND", err)
		}
	})
}

func TestMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now()
	for i, id := range []string{"app-b", "app-a", "app-c"} {
		app := &types.Application{
			ID:        id,
			StudentID: "student-1",
			JobID:     "job-1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateApplication(ctx, app); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	apps, err := s.ListApplicationsByStudent(ctx, "student-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(apps) != 3 {
		t.Fatalf("len = %d, want 3", len(apps))
	}
	// Chronological by creation time
	if apps[0].ID != "app-b" || apps[2].ID != "app-c" {
		t.Errorf("order = [%s %s %s], want [app-b app-a app-c]", apps[0].ID, apps[1].ID, apps[2].ID)
	}
}

func TestMemoryStoreProfiles(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	profile, err := s.GetProfileSignal(ctx, "student-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile != nil {
		t.Fatalf("profile = %+v, want nil before upload", profile)
	}

	saved := &types.StudentProfile{
		StudentID:  "student-1",
		Signal:     types.CandidateSignal{Skills: []string{"React"}},
		UploadedAt: time.Now(),
	}
	if err := s.SaveProfileSignal(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	profile, err = s.GetProfileSignal(ctx, "student-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if profile == nil || len(profile.Signal.Skills) != 1 {
		t.Fatalf("profile = %+v, want stored signal", profile)
	}
}

func TestMemoryStoreOwnership(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.SaveJob(ctx, &types.JobRequirements{ID: "job-1", OwnerID: "hr-1"})
	_ = s.SaveJob(ctx, &types.JobRequirements{ID: "job-2", OwnerID: "hr-1"})
	_ = s.SaveJob(ctx, &types.JobRequirements{ID: "job-3", OwnerID: "hr-2"})
	_ = s.SetCompanyOwner(ctx, "acme", "hr-1")

	jobCount, err := s.CountJobsByOwner(ctx, "hr-1")
	if err != nil {
		t.Fatalf("count jobs: %v", err)
	}
	if jobCount != 2 {
		t.Errorf("job count = %d, want 2", jobCount)
	}

	companyCount, err := s.CountCompaniesByOwner(ctx, "hr-1")
	if err != nil {
		t.Fatalf("count companies: %v", err)
	}
	if companyCount != 1 {
		t.Errorf("company count = %d, want 1", companyCount)
	}

	jobs, err := s.ListJobsByOwner(ctx, "hr-1")
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].ID != "job-1" {
		t.Errorf("jobs = %+v, want [job-1 job-2]", jobs)
	}
}

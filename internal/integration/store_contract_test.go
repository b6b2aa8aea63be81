package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskora/internal/domain"
	"taskora/internal/service"
)

// runStoreContract exercises a freshly emptied store. unknownID must be a
// well-formed id that does not exist.
func runStoreContract(t *testing.T, store service.TaskStore, unknownID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	older := &domain.Task{Title: "Write report", Status: domain.StatusPending, CreatedAt: base, UpdatedAt: base}
	newer := &domain.Task{Title: "Ship release", Description: "v2", Status: domain.StatusInProgress, CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute)}

	for _, task := range []*domain.Task{older, newer} {
		if err := store.Create(ctx, task); err != nil {
			t.Fatalf("create %q: %v", task.Title, err)
		}
		if task.ID == "" {
			t.Fatalf("create %q did not assign an id", task.Title)
		}
	}

	dup := &domain.Task{Title: "WRITE report", Status: domain.StatusPending, CreatedAt: base, UpdatedAt: base}
	if err := store.Create(ctx, dup); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("duplicate create err=%v, want ErrDuplicateTitle", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("list order wrong: %+v", list)
	}

	got, err := store.GetByID(ctx, older.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Write report" || got.Status != domain.StatusPending || !got.CreatedAt.Equal(base) {
		t.Fatalf("get=%+v", got)
	}

	taken, err := store.TitleTaken(ctx, domain.TitleKey("write REPORT"), "")
	if err != nil || !taken {
		t.Fatalf("TitleTaken=%v err=%v, want true", taken, err)
	}
	taken, err = store.TitleTaken(ctx, domain.TitleKey("Write report"), older.ID)
	if err != nil || taken {
		t.Fatalf("TitleTaken excluding self=%v err=%v, want false", taken, err)
	}

	status := domain.StatusCompleted
	updatedAt := base.Add(time.Hour)
	updated, err := store.Update(ctx, older.ID, domain.TaskPatch{Status: &status, UpdatedAt: updatedAt})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Write report" || updated.Status != domain.StatusCompleted || !updated.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("updated=%+v", updated)
	}

	clash := "ship RELEASE"
	if _, err := store.Update(ctx, older.ID, domain.TaskPatch{Title: &clash, UpdatedAt: updatedAt}); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("rename clash err=%v, want ErrDuplicateTitle", err)
	}

	if _, err := store.Update(ctx, unknownID, domain.TaskPatch{Status: &status, UpdatedAt: updatedAt}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("update unknown err=%v, want ErrTaskNotFound", err)
	}
	for _, id := range []string{unknownID, "not-an-id"} {
		if _, err := store.GetByID(ctx, id); !errors.Is(err, domain.ErrTaskNotFound) {
			t.Fatalf("get %q err=%v, want ErrTaskNotFound", id, err)
		}
	}

	if err := store.Delete(ctx, older.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Delete(ctx, older.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("second delete err=%v, want ErrTaskNotFound", err)
	}
	if _, err := store.GetByID(ctx, older.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("get after delete err=%v, want ErrTaskNotFound", err)
	}
}

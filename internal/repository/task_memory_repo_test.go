package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"taskora/internal/domain"
)

func newTask(title string, createdAt time.Time) *domain.Task {
	return &domain.Task{
		Title:     title,
		Status:    domain.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestMemoryTaskRepository_ListNewestFirst(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"first", "second", "third"} {
		if err := repo.Create(ctx, newTask(title, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	// same timestamp as "third": insertion order breaks the tie
	if err := repo.Create(ctx, newTask("fourth", base.Add(2*time.Minute))); err != nil {
		t.Fatalf("create fourth: %v", err)
	}

	tasks, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"fourth", "third", "second", "first"}
	if len(tasks) != len(want) {
		t.Fatalf("len=%d, want %d", len(tasks), len(want))
	}
	for i, w := range want {
		if tasks[i].Title != w {
			t.Fatalf("tasks[%d]=%q, want %q", i, tasks[i].Title, w)
		}
	}
}

func TestMemoryTaskRepository_EnforcesTitleKey(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	a := newTask("Write report", now)
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, newTask("write REPORT", now)); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("err=%v, want ErrDuplicateTitle", err)
	}

	b := newTask("Other", now)
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}

	clash := "WRITE report"
	if _, err := repo.Update(ctx, b.ID, domain.TaskPatch{Title: &clash, UpdatedAt: now}); !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Fatalf("err=%v, want ErrDuplicateTitle", err)
	}

	// renaming a task to a case variant of its own title is fine
	own := "WRITE REPORT"
	got, err := repo.Update(ctx, a.ID, domain.TaskPatch{Title: &own, UpdatedAt: now})
	if err != nil {
		t.Fatalf("update own title: %v", err)
	}
	if got.Title != own {
		t.Fatalf("title=%q, want %q", got.Title, own)
	}
}

func TestMemoryTaskRepository_NotFound(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("get err=%v", err)
	}
	if _, err := repo.Update(ctx, "missing", domain.TaskPatch{}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("update err=%v", err)
	}
	if err := repo.Delete(ctx, "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("delete err=%v", err)
	}
}

func TestMemoryTaskRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()

	task := newTask("Copy", time.Now().UTC())
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := repo.GetByID(ctx, task.ID)
	got.Title = "mutated"

	again, _ := repo.GetByID(ctx, task.ID)
	if again.Title != "Copy" {
		t.Fatalf("stored task mutated through returned pointer")
	}
}

// Run with -race: List must not read entries that Update is writing.
func TestMemoryTaskRepository_ListDuringUpdates(t *testing.T) {
	repo := NewMemoryTaskRepository()
	ctx := context.Background()

	task := newTask("Busy", time.Now().UTC())
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			title := fmt.Sprintf("Busy %d", i)
			if _, err := repo.Update(ctx, task.ID, domain.TaskPatch{Title: &title, UpdatedAt: time.Now().UTC()}); err != nil {
				t.Errorf("update: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			list, err := repo.List(ctx)
			if err != nil || len(list) != 1 {
				t.Errorf("list=%v err=%v", list, err)
				return
			}
		}
	}()
	wg.Wait()

	list, _ := repo.List(ctx)
	if list[0].Title != "Busy 999" {
		t.Fatalf("title=%q", list[0].Title)
	}
}

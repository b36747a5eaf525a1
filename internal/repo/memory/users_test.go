package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/repo/memory"
)

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	u, err := r.Create(ctx, user.User{
		FirstName:    "A",
		LastName:     "B",
		Email:        "a@x.com",
		PasswordHash: "hash",
	})

	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if u.ID == "" {
		t.Fatalf("expected an assigned id")
	}

	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, user.User{FirstName: "A", LastName: "B", Email: "a@x.com", PasswordHash: "h1"})

	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	_, err = r.Create(ctx, user.User{FirstName: "C", LastName: "D", Email: "a@x.com", PasswordHash: "h2"})

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	users, err := r.List(ctx)

	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(users))
	}
}

func TestGetByEmailAndID(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, _ := r.Create(ctx, user.User{FirstName: "A", LastName: "B", Email: "a@x.com", PasswordHash: "h"})

	byEmail, err := r.GetByEmail(ctx, "a@x.com")

	if err != nil || byEmail.ID != created.ID {
		t.Fatalf("get by email: err=%v id=%q want %q", err, byEmail.ID, created.ID)
	}

	byID, err := r.GetByID(ctx, created.ID)

	if err != nil || byID.Email != "a@x.com" {
		t.Fatalf("get by id: err=%v email=%q", err, byID.Email)
	}

	if _, err := r.GetByID(ctx, "missing"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestUpdateAppliesAllowListOnly(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, _ := r.Create(ctx, user.User{FirstName: "A", LastName: "B", Email: "a@x.com", PasswordHash: "h"})

	first := "Ada"
	updated, err := r.Update(ctx, created.ID, user.Patch{FirstName: &first})

	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if updated.FirstName != "Ada" || updated.LastName != "B" || updated.Email != "a@x.com" {
		t.Fatalf("unexpected record after update: %+v", updated)
	}

	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}
}

func TestUpdateRejectsTakenEmail(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	_, _ = r.Create(ctx, user.User{FirstName: "A", LastName: "B", Email: "a@x.com", PasswordHash: "h"})
	second, _ := r.Create(ctx, user.User{FirstName: "C", LastName: "D", Email: "c@x.com", PasswordHash: "h"})

	taken := "a@x.com"
	_, err := r.Update(ctx, second.ID, user.Patch{Email: &taken})

	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}
}

func TestUpdateMissingUser(t *testing.T) {
	r := memory.NewUsersRepo()

	first := "Ada"
	_, err := r.Update(context.Background(), "missing", user.Patch{FirstName: &first})

	if !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestDeleteThenGet(t *testing.T) {
	r := memory.NewUsersRepo()
	ctx := context.Background()

	created, _ := r.Create(ctx, user.User{FirstName: "A", LastName: "B", Email: "a@x.com", PasswordHash: "h"})

	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := r.GetByID(ctx, created.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound after delete", err)
	}

	if err := r.Delete(ctx, created.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

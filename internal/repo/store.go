package repo

import (
	"context"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/observability"
)

// UserStore is the full credential-store surface. Handlers declare their own
// narrow interfaces; this one exists so backends and the metrics decorator
// can be swapped behind a single type.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
	Delete(ctx context.Context, id string) error
}

type instrumentedUsers struct {
	inner UserStore
	prom  *observability.Prom
}

// WithMetrics wraps a store so every logical op lands in the store histograms.
func WithMetrics(inner UserStore, prom *observability.Prom) UserStore {
	return &instrumentedUsers{inner: inner, prom: prom}
}

func (s *instrumentedUsers) Create(ctx context.Context, u user.User) (user.User, error) {
	var out user.User
	err := s.prom.ObserveStore("create", func() error {
		var err error
		out, err = s.inner.Create(ctx, u)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var out user.User
	err := s.prom.ObserveStore("get_by_email", func() error {
		var err error
		out, err = s.inner.GetByEmail(ctx, email)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	var out user.User
	err := s.prom.ObserveStore("get_by_id", func() error {
		var err error
		out, err = s.inner.GetByID(ctx, id)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) List(ctx context.Context) ([]user.User, error) {
	var out []user.User
	err := s.prom.ObserveStore("list", func() error {
		var err error
		out, err = s.inner.List(ctx)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	var out user.User
	err := s.prom.ObserveStore("update", func() error {
		var err error
		out, err = s.inner.Update(ctx, id, patch)
		return err
	})
	return out, err
}

func (s *instrumentedUsers) Delete(ctx context.Context, id string) error {
	return s.prom.ObserveStore("delete", func() error {
		return s.inner.Delete(ctx, id)
	})
}

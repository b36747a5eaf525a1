package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/accounthub/internal/auth"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/http/handlers"
	"github.com/geocoder89/accounthub/internal/security"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fake store implementation of the handlers.CredentialStore interface

type fakeCredentialStore struct {
	createFn     func(ctx context.Context, u user.User) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
}

func (f *fakeCredentialStore) Create(ctx context.Context, u user.User) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	return user.User{}, nil
}

func (f *fakeCredentialStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func newAuthHandler(store *fakeCredentialStore) *handlers.AuthHandler {
	jwtManager := auth.NewManager("test-secret-key", time.Hour)

	return handlers.NewAuthHandler(store, jwtManager, discardLogger(), bcrypt.MinCost)
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeCredentialStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.createFn = func(ctx context.Context, u user.User) (user.User, error) {
					u.ID = "id-1"
					u.CreatedAt = time.Now().UTC()
					u.UpdatedAt = u.CreatedAt
					return u, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "missing_first_name",
			body: `{"lastName":"B","email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				// invalid request, the store should never be reached
				f.createFn = func(ctx context.Context, u user.User) (user.User, error) {
					return user.User{}, errors.New("create must not be called")
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "missing_last_name",
			body: `{"firstName":"A","email":"a@x.com","password":"secret1"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "missing_email",
			body: `{"firstName":"A","lastName":"B","password":"secret1"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "missing_password",
			body: `{"firstName":"A","lastName":"B","email":"a@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email_on_lookup",
			body: `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{ID: "id-1", Email: email}, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// two concurrent registrations: the lookup misses, the unique
			// index catches it at insert time
			name: "duplicate_email_on_insert",
			body: `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.createFn = func(ctx context.Context, u user.User) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.createFn = func(ctx context.Context, u user.User) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCredentialStore{}

			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := newAuthHandler(store)
			r := setupRouter(http.MethodPost, "/register", h.Register)

			w := doJSON(r, http.MethodPost, "/register", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestRegisterNeverStoresPlaintext(t *testing.T) {
	var persisted user.User

	store := &fakeCredentialStore{
		createFn: func(ctx context.Context, u user.User) (user.User, error) {
			persisted = u
			u.ID = "id-1"
			return u, nil
		},
	}

	h := newAuthHandler(store)
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w := doJSON(r, http.MethodPost, "/register", `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if persisted.PasswordHash == "secret1" {
		t.Fatalf("plaintext password reached the store")
	}

	if err := security.CheckPassword(persisted.PasswordHash, "secret1"); err != nil {
		t.Fatalf("stored hash does not verify against the plaintext: %v", err)
	}
}

func TestRegisterTokenCarriesEmail(t *testing.T) {
	store := &fakeCredentialStore{
		createFn: func(ctx context.Context, u user.User) (user.User, error) {
			u.ID = "id-1"
			return u, nil
		},
	}

	jwtManager := auth.NewManager("test-secret-key", time.Hour)
	h := handlers.NewAuthHandler(store, jwtManager, discardLogger(), bcrypt.MinCost)
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w := doJSON(r, http.MethodPost, "/register", `{"firstName":"A","lastName":"B","email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	mustReadJSON(t, w, &resp)

	if !resp.Success || resp.Token == "" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	claims, err := jwtManager.Parse(resp.Token)

	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}

	if claims.Email != "a@x.com" || claims.FirstName != "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("secret1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash setup failed: %v", err)
	}

	stored := user.User{
		ID:           "id-1",
		FirstName:    "A",
		LastName:     "B",
		Email:        "a@x.com",
		PasswordHash: hash,
	}

	tests := []struct {
		name           string
		body           string
		storeSetUp     func(*fakeCredentialStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "unknown_email",
			body:           `{"email":"nobody@x.com","password":"secret1"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "wrong_password",
			body: `{"email":"a@x.com","password":"wrong"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// a missing password walks the same verification path
			name: "missing_password",
			body: `{"email":"a@x.com"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name: "store_error",
			body: `{"email":"a@x.com","password":"secret1"}`,
			storeSetUp: func(f *fakeCredentialStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			store := &fakeCredentialStore{}

			if tt.storeSetUp != nil {
				tt.storeSetUp(store)
			}

			h := newAuthHandler(store)
			r := setupRouter(http.MethodPost, "/login", h.Login)

			w := doJSON(r, http.MethodPost, "/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

// unknown email and wrong password must be indistinguishable to the caller

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := security.HashPassword("secret1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash setup failed: %v", err)
	}

	store := &fakeCredentialStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			if email == "a@x.com" {
				return user.User{ID: "id-1", FirstName: "A", Email: email, PasswordHash: hash}, nil
			}
			return user.User{}, user.ErrNotFound
		},
	}

	h := newAuthHandler(store)
	r := setupRouter(http.MethodPost, "/login", h.Login)

	unknown := doJSON(r, http.MethodPost, "/login", `{"email":"nobody@x.com","password":"secret1"}`)
	wrongPass := doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"wrong"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("got %d and %d, want 401 for both", unknown.Code, wrongPass.Code)
	}

	if unknown.Body.String() != wrongPass.Body.String() {
		t.Fatalf("bodies differ:\n%s\n%s", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestLoginTokenClaims(t *testing.T) {
	hash, err := security.HashPassword("secret1", bcrypt.MinCost)

	if err != nil {
		t.Fatalf("hash setup failed: %v", err)
	}

	store := &fakeCredentialStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return user.User{ID: "id-1", FirstName: "Ada", LastName: "L", Email: email, PasswordHash: hash}, nil
		},
	}

	jwtManager := auth.NewManager("test-secret-key", time.Hour)
	h := handlers.NewAuthHandler(store, jwtManager, discardLogger(), bcrypt.MinCost)
	r := setupRouter(http.MethodPost, "/login", h.Login)

	w := doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"secret1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token     string `json:"token"`
		FirstName string `json:"firstName"`
	}
	mustReadJSON(t, w, &resp)

	claims, err := jwtManager.Parse(resp.Token)

	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}

	if claims.Email != "a@x.com" || claims.FirstName != "Ada" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Barklim/bio/config"
	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/application"
	"github.com/Barklim/bio/internal/domain/entity"
	"github.com/Barklim/bio/internal/router"
	"github.com/Barklim/bio/pkg/helpers"
	"github.com/Barklim/bio/pkg/validation"
)

// memRepo is an in-memory UserRepository with the same contract as the
// Postgres implementation: case-insensitive email uniqueness, not-found on
// missing ids, credentials only through GetByEmailWithPassword.
type memRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*entity.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[int64]*entity.User)}
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memRepo) emailTakenLocked(email string, exceptID int64) bool {
	for _, u := range r.users {
		if u.ID != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func copyUser(u *entity.User, withPassword bool) *entity.User {
	c := *u
	if !withPassword {
		c.PasswordHash = ""
	}
	return &c
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = normEmail(u.Email)
	if r.emailTakenLocked(u.Email, 0) {
		return apperr.ErrEmailTaken
	}
	r.seq++
	u.ID = r.seq
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	r.users[u.ID] = copyUser(u, true)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	return copyUser(u, false), nil
}

func (r *memRepo) getByEmail(email string, withPassword bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = normEmail(email)
	for _, u := range r.users {
		if u.Email == email {
			return copyUser(u, withPassword), nil
		}
	}
	return nil, apperr.ErrUserNotFound
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.getByEmail(email, false)
}

func (r *memRepo) GetByEmailWithPassword(_ context.Context, email string) (*entity.User, error) {
	return r.getByEmail(email, true)
}

func (r *memRepo) List(_ context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, copyUser(u, false))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.Email = normEmail(u.Email)
	if r.emailTakenLocked(u.Email, u.ID) {
		return apperr.ErrEmailTaken
	}
	u.UpdatedAt = time.Now().UTC()
	hash := stored.PasswordHash
	r.users[u.ID] = copyUser(u, false)
	r.users[u.ID].PasswordHash = hash
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperr.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperr.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memRepo) TouchLastLogin(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now().UTC()
		u.LastLoginAt = &now
	}
	return nil
}

// newTestAPI wires the real router with in-memory persistence.
func newTestAPI(t *testing.T) (*gin.Engine, *memRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	repo := newMemRepo()
	jwtManager := helpers.NewJWTManager("test-secret", "1h")
	authSvc := application.NewAuthService(repo, jwtManager, logger, nil)
	userSvc := application.NewUserService(repo, logger, nil, nil, "")

	engine := gin.New()
	reg := router.NewRegistry(engine)
	router.InitModules(reg, router.Deps{
		Cfg:    &config.Config{AppName: "BIO Backend API", Env: "test"},
		Logger: logger,
		JWT:    jwtManager,
		Auth:   authSvc,
		Users:  userSvc,
	})
	reg.RegisterAll()
	return engine, repo
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(rec *httptest.ResponseRecorder, out any) error {
	return json.Unmarshal(rec.Body.Bytes(), out)
}

type authResponse struct {
	AccessToken string            `json:"accessToken"`
	TokenType   string            `json:"tokenType"`
	ExpiresIn   int               `json:"expiresIn"`
	User        entity.PublicUser `json:"user"`
}

func register(t *testing.T, engine *gin.Engine, email, password string) authResponse {
	t.Helper()
	rec := doJSON(t, engine, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":     email,
		"firstName": "Test",
		"lastName":  "User",
		"password":  password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())

	var res authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func errMessage(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()
	var body struct {
		StatusCode int    `json:"statusCode"`
		Message    any    `json:"message"`
		Error      string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, rec.Code, body.StatusCode)
	return body.Message
}

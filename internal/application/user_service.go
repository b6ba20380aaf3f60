package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Barklim/bio/internal/apperr"
	"github.com/Barklim/bio/internal/domain/entity"
	repo "github.com/Barklim/bio/internal/domain/repository"
	"github.com/Barklim/bio/pkg/events"
	"github.com/Barklim/bio/pkg/helpers"
)

// UserService implements the administrative user CRUD surface plus
// Elasticsearch-backed search. Indexing is best effort: a failed ES call is
// logged and never fails the request.
type UserService struct {
	Repo         repo.UserRepository
	Logger       *logrus.Logger
	Pub          *helpers.RabbitPublisher
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewUserService(r repo.UserRepository, logger *logrus.Logger, pub *helpers.RabbitPublisher, es *elasticsearch.Client, esUsersIndex string) *UserService {
	return &UserService{Repo: r, Logger: logger, Pub: pub, ES: es, ESUsersIndex: esUsersIndex}
}

// CreateInput is a validated administrative create request. Password is
// optional: accounts created without one cannot authenticate until a
// password is set.
type CreateInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// UpdateInput carries a partial update; nil fields stay untouched.
type UpdateInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
	Role      *string
	IsActive  *bool
}

func (s *UserService) List(ctx context.Context) ([]entity.PublicUser, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		s.Logger.WithError(err).Error("listing users failed")
		return nil, err
	}
	out := make([]entity.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.PublicUser, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrUserNotFound) {
			s.Logger.WithError(err).WithField("user_id", id).Error("user lookup failed")
		}
		return nil, err
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) Create(ctx context.Context, in CreateInput) (*entity.PublicUser, error) {
	email := normalizeEmail(in.Email)

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		s.Logger.WithField("email", email).Warn("create with existing email")
		return nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrUserNotFound) {
		return nil, err
	}

	u := &entity.User{
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
		IsActive:  true,
	}
	if in.Password != "" {
		hash, err := helpers.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if !errors.Is(err, apperr.ErrEmailTaken) {
			s.Logger.WithError(err).WithField("email", email).Error("user creation failed")
		}
		return nil, err
	}
	s.Logger.WithField("user_id", u.ID).Info("user created")

	s.publishEvent(ctx, events.UserRegistered, u)
	s.indexUser(ctx, u)

	pub := u.Public()
	return &pub, nil
}

func (s *UserService) Update(ctx context.Context, id int64, in UpdateInput) (*entity.PublicUser, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != u.Email {
			if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
				s.Logger.WithField("email", email).Warn("update with existing email")
				return nil, apperr.ErrEmailTaken
			} else if !errors.Is(err, apperr.ErrUserNotFound) {
				return nil, err
			}
			u.Email = email
		}
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if err := s.Repo.Update(ctx, u); err != nil {
		if !errors.Is(err, apperr.ErrEmailTaken) && !errors.Is(err, apperr.ErrUserNotFound) {
			s.Logger.WithError(err).WithField("user_id", id).Error("user update failed")
		}
		return nil, err
	}

	if in.Password != nil {
		hash, err := helpers.HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		if err := s.Repo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	s.Logger.WithField("user_id", id).Info("user updated")

	s.indexUser(ctx, u)
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperr.ErrUserNotFound) {
			s.Logger.WithError(err).WithField("user_id", id).Error("user delete failed")
		}
		return err
	}
	s.Logger.WithField("user_id", id).Info("user deleted")

	s.publishEvent(ctx, events.UserDeleted, u)
	s.deleteUserDoc(ctx, id)
	return nil
}

// Search performs a multi_match query on email and name fields. Without a
// configured ES client the result is empty rather than an error.
func (s *UserService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "firstName", "lastName"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *UserService) indexUser(ctx context.Context, u *entity.User) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	doc := map[string]any{
		"id":        u.ID,
		"email":     u.Email,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"role":      u.Role,
		"isActive":  u.IsActive,
		"createdAt": u.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESUsersIndex,
		DocumentID: strconv.FormatInt(u.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("es index failed")
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("user_id", u.ID).Warn("es index response error")
	}
}

func (s *UserService) deleteUserDoc(ctx context.Context, id int64) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", id).Warn("es delete failed")
		return
	}
	_ = res.Body.Close()
}

func (s *UserService) publishEvent(ctx context.Context, eventType string, u *entity.User) {
	if s.Pub == nil {
		return
	}
	ev := events.UserEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Pub.PublishJSON(ctx, ev); err != nil {
		s.Logger.WithError(err).WithField("type", eventType).Warn("event publish failed")
	}
}

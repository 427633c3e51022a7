package memstore

import (
	"context"
	"slices"
	"strings"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/id"
	"stockroom/internal/domain/auth"
)

// UserRepo implements auth.UserRepository.
type UserRepo struct{ db *DB }

var _ auth.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(_ context.Context, user *auth.User) error {
	return r.db.write(func(s *state) error {
		for _, u := range s.users {
			if u.Email == user.Email {
				return apperror.NewDuplicate("user", "email", user.Email)
			}
		}
		u := *user
		u.Permissions = slices.Clone(user.Permissions)
		s.users[u.ID] = u
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, userID id.ID) (*auth.User, error) {
	var (
		u  auth.User
		ok bool
	)
	r.db.read(func(s *state) { u, ok = s.users[userID] })
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	u.Permissions = slices.Clone(u.Permissions)
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var found *auth.User
	r.db.read(func(s *state) {
		for _, u := range s.users {
			if u.Email == email {
				u.Permissions = slices.Clone(u.Permissions)
				found = &u
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("user", email)
	}
	return found, nil
}

func (r *UserRepo) Update(_ context.Context, user *auth.User) error {
	return r.db.write(func(s *state) error {
		if _, ok := s.users[user.ID]; !ok {
			return apperror.NewNotFound("user", user.ID)
		}
		u := *user
		u.Permissions = slices.Clone(user.Permissions)
		s.users[u.ID] = u
		return nil
	})
}

func (r *UserRepo) List(_ context.Context, filter auth.UserFilter) ([]auth.User, int64, error) {
	search := strings.ToLower(filter.Search)
	var out []auth.User
	r.db.read(func(s *state) {
		for _, u := range s.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if filter.CreatedBy != nil && !id.Equal(u.CreatedBy, *filter.CreatedBy) {
				continue
			}
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
				continue
			}
			out = append(out, u)
		}
	})
	sortNewest(out, func(u auth.User) id.ID { return u.ID })
	page, total := paginate(out, filter.Limit, filter.Offset)
	return page, total, nil
}

func (r *UserRepo) Exists(_ context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var exists bool
	r.db.read(func(s *state) {
		for _, u := range s.users {
			if u.Email == email {
				exists = true
				return
			}
		}
	})
	return exists, nil
}

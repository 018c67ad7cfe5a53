package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
)

type UserRepository struct {
	db access
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	var err error
	r.db.write(func(t *tables) {
		if user.TelegramID != nil {
			for _, u := range t.users {
				if u.TelegramID != nil && *u.TelegramID == *user.TelegramID {
					err = fmt.Errorf("create user: %w: users_telegram_id_key", repository.ErrDuplicate)
					return
				}
			}
		}
		t.userSeq++
		user.ID = t.userSeq
		user.CreatedAt = time.Now()
		t.users[user.ID] = copyUser(user)
	})
	return err
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*model.User, error) {
	var user *model.User
	r.db.read(func(t *tables) {
		if u, ok := t.users[id]; ok {
			user = copyUser(u)
		}
	})
	return user, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []int64) ([]*model.User, error) {
	users := []*model.User{}
	r.db.read(func(t *tables) {
		seen := make(map[int64]bool, len(ids))
		for _, id := range ids {
			if u, ok := t.users[id]; ok && !seen[id] {
				seen[id] = true
				users = append(users, copyUser(u))
			}
		}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *UserRepository) Approve(_ context.Context, id int64) (bool, error) {
	var ok bool
	r.db.write(func(t *tables) {
		u, found := t.users[id]
		if !found || u.Role != model.RoleStudent || u.Approved {
			return
		}
		u.Approved = true
		ok = true
	})
	return ok, nil
}

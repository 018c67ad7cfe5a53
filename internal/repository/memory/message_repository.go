package memory

import (
	"context"
	"sort"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
)

type MessageRepository struct {
	db access
}

func (r *MessageRepository) Create(_ context.Context, msg *model.Message) error {
	r.db.write(func(t *tables) {
		t.messageSeq++
		msg.ID = t.messageSeq
		msg.CreatedAt = time.Now()
		t.messages[msg.ID] = copyMessage(msg)
	})
	return nil
}

func (r *MessageRepository) GetByID(_ context.Context, id int64) (*model.Message, error) {
	var msg *model.Message
	r.db.read(func(t *tables) {
		if m, ok := t.messages[id]; ok {
			msg = copyMessage(m)
		}
	})
	return msg, nil
}

func (r *MessageRepository) ListForRecipient(_ context.Context, userID int64) ([]*model.Message, error) {
	var msgs []*model.Message
	r.db.read(func(t *tables) {
		for _, m := range t.messages {
			if m.ToID == userID {
				msgs = append(msgs, copyMessage(m))
			}
		}
	})
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
		}
		return msgs[i].ID > msgs[j].ID
	})
	return msgs, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, id int64) error {
	r.db.write(func(t *tables) {
		if m, ok := t.messages[id]; ok {
			m.Read = true
		}
	})
	return nil
}

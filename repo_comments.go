package tasktrack

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Comments interface {
	repository.Repository[*Comment]

	Create(ctx context.Context, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]*Comment, int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type comments struct {
	repository.Repository[*Comment]
	db *bun.DB
}

var (
	_ Comments                        = (*comments)(nil)
	_ repository.Repository[*Comment] = (*comments)(nil)
)

func NewCommentsRepository(db *bun.DB) Comments {
	repo := repository.NewRepository[*Comment](db, repository.ModelHandlers[*Comment]{
		NewRecord: func() *Comment { return &Comment{} },
		GetID: func(c *Comment) uuid.UUID {
			if c == nil {
				return uuid.Nil
			}
			return c.ID
		},
		SetID: func(c *Comment, id uuid.UUID) {
			if c != nil {
				c.ID = id
			}
		},
	})

	return &comments{
		Repository: repo,
		db:         db,
	}
}

func (a *comments) Create(ctx context.Context, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *comments) CreateTx(ctx context.Context, tx bun.IDB, record *Comment, criteria ...repository.InsertCriteria) (*Comment, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListByTask returns the task's comments oldest first, with the
// unpaginated count.
func (a *comments) ListByTask(ctx context.Context, taskID uuid.UUID, limit, offset int) ([]*Comment, int, error) {
	var records []*Comment
	q := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.task_id = ?", taskID).
		Order("created_at ASC")

	if limit > 0 {
		q.Limit(limit)
	}
	if offset > 0 {
		q.Offset(offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (a *comments) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Comment)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

// BelongsToUser reports whether the user wrote the comment.
func (c *Comment) BelongsToUser(userID uuid.UUID) bool {
	return c != nil && c.UserID == userID
}

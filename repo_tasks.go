package tasktrack

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TaskFilters narrows admin task listings. Zero values mean "any".
type TaskFilters struct {
	Status     string
	Priority   string
	AuthorID   *uuid.UUID
	AssigneeID *uuid.UUID
	Limit      int
	Offset     int
}

type Tasks interface {
	repository.Repository[*Task]

	Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error)
	ListFiltered(ctx context.Context, filters TaskFilters) ([]*Task, int, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Task, int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

type tasks struct {
	repository.Repository[*Task]
	db *bun.DB
}

var (
	_ Tasks                        = (*tasks)(nil)
	_ repository.Repository[*Task] = (*tasks)(nil)
)

func NewTasksRepository(db *bun.DB) Tasks {
	repo := repository.NewRepository[*Task](db, repository.ModelHandlers[*Task]{
		NewRecord: func() *Task { return &Task{} },
		GetID: func(t *Task) uuid.UUID {
			if t == nil {
				return uuid.Nil
			}
			return t.ID
		},
		SetID: func(t *Task, id uuid.UUID) {
			if t != nil {
				t.ID = id
			}
		},
	})

	return &tasks{
		Repository: repo,
		db:         db,
	}
}

func (a *tasks) Create(ctx context.Context, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *tasks) CreateTx(ctx context.Context, tx bun.IDB, record *Task, criteria ...repository.InsertCriteria) (*Task, error) {
	prepareTaskDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListFiltered returns tasks matching every set filter, newest first,
// along with the unpaginated match count.
func (a *tasks) ListFiltered(ctx context.Context, filters TaskFilters) ([]*Task, int, error) {
	var records []*Task
	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if filters.Status != "" {
		q.Where("?TableAlias.status = ?", filters.Status)
	}
	if filters.Priority != "" {
		q.Where("?TableAlias.priority = ?", filters.Priority)
	}
	if filters.AuthorID != nil {
		q.Where("?TableAlias.author_id = ?", *filters.AuthorID)
	}
	if filters.AssigneeID != nil {
		q.Where("?TableAlias.assignee_id = ?", *filters.AssigneeID)
	}
	if filters.Limit > 0 {
		q.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		q.Offset(filters.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListForUser returns tasks the user authored or is assigned to.
func (a *tasks) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Task, int, error) {
	var records []*Task
	q := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.author_id = ? OR ?TableAlias.assignee_id = ?", userID, userID).
		Order("created_at DESC")

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

func (a *tasks) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Task)(nil)).
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

// BelongsToUser reports whether the user authored the task or is its assignee.
func (t *Task) BelongsToUser(userID uuid.UUID) bool {
	if t == nil {
		return false
	}
	if t.AuthorID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

func prepareTaskDefaults(record *Task) {
	if record == nil {
		return
	}

	if record.Status == "" {
		record.Status = TaskStatusPending
	}

	if record.Priority == "" {
		record.Priority = TaskPriorityMedium
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

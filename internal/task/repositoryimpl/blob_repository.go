package repositoryimpl

import (
	"cmp"
	"context"
	"slices"

	"github.com/kazz187/agentboard/internal/collection"
	"github.com/kazz187/agentboard/internal/task"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

// StorageKey is the blob name of the task collection.
const StorageKey = "kanban_coding_agents_tasks"

var _ task.Repository = (*BlobRepository)(nil)

type BlobRepository struct {
	tasks *collection.Collection[task.Task]
}

func NewBlobRepository(s storage.Storage) *BlobRepository {
	return &BlobRepository{tasks: collection.New[task.Task](s, StorageKey, "task")}
}

func (r *BlobRepository) Fetch(ctx context.Context, userID string) ([]task.Task, error) {
	tasks, err := r.tasks.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		return cmp.Compare(b.CreatedAt.UnixMilli(), a.CreatedAt.UnixMilli())
	})
	return tasks, nil
}

func (r *BlobRepository) Insert(ctx context.Context, userID string, t task.Task) (task.Task, error) {
	err := r.tasks.Mutate(ctx, userID, func(tasks []task.Task) ([]task.Task, error) {
		if slices.ContainsFunc(tasks, func(e task.Task) bool { return e.ID == t.ID }) {
			return nil, cerr.NewError(cerr.AlreadyExists, "task already exists", nil)
		}
		return append([]task.Task{t}, tasks...), nil
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *BlobRepository) Replace(ctx context.Context, userID string, t task.Task) error {
	return r.tasks.Mutate(ctx, userID, func(tasks []task.Task) ([]task.Task, error) {
		i := slices.IndexFunc(tasks, func(e task.Task) bool { return e.ID == t.ID })
		if i < 0 {
			return nil, r.tasks.NotFound()
		}
		tasks[i] = t
		return tasks, nil
	})
}

func (r *BlobRepository) Remove(ctx context.Context, userID, id string) error {
	return r.tasks.Mutate(ctx, userID, func(tasks []task.Task) ([]task.Task, error) {
		i := slices.IndexFunc(tasks, func(e task.Task) bool { return e.ID == id })
		if i < 0 {
			return nil, r.tasks.NotFound()
		}
		return slices.Delete(tasks, i, i+1), nil
	})
}

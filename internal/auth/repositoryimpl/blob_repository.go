package repositoryimpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/kazz187/agentboard/internal/auth"
	"github.com/kazz187/agentboard/pkg/cerr"
	"github.com/kazz187/agentboard/pkg/storage"
)

const usersKey = "users/index.json"

var _ auth.UserRepository = (*BlobRepository)(nil)

// BlobRepository keeps all accounts in one blob.
type BlobRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewBlobRepository(s storage.Storage) *BlobRepository {
	return &BlobRepository{storage: s}
}

func (r *BlobRepository) load(ctx context.Context) ([]auth.User, error) {
	data, err := r.storage.Read(ctx, usersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("users", err)
	}
	var users []auth.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal users: %w", err))
	}
	return users, nil
}

func (r *BlobRepository) Create(ctx context.Context, u auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return err
	}
	if slices.ContainsFunc(users, func(e auth.User) bool { return e.Email == u.Email }) {
		return cerr.NewError(cerr.AlreadyExists, "email is already registered", nil)
	}
	data, err := json.Marshal(append(users, u))
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal users: %w", err))
	}
	if err := r.storage.Write(ctx, usersKey, data); err != nil {
		return cerr.WrapStorageWriteError("users", err)
	}
	return nil
}

func (r *BlobRepository) Get(ctx context.Context, id string) (auth.User, error) {
	return r.find(ctx, func(u auth.User) bool { return u.ID == id })
}

func (r *BlobRepository) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	return r.find(ctx, func(u auth.User) bool { return u.Email == email })
}

func (r *BlobRepository) find(ctx context.Context, match func(auth.User) bool) (auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users, err := r.load(ctx)
	if err != nil {
		return auth.User{}, err
	}
	i := slices.IndexFunc(users, match)
	if i < 0 {
		return auth.User{}, cerr.NewError(cerr.NotFound, "user not found", nil)
	}
	return users[i], nil
}

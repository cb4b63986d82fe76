package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/filex"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/emails"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/timex"
)

// FileRepository keeps every user in one JSON array file. Each operation
// reads the whole file and writes operations rewrite it in full, all under a
// single mutex. Writes go to a temp file in the same directory which is then
// renamed over the target.
type FileRepository struct {
	mu      sync.Mutex
	path    string
	idWidth int
	stamper Stamper
	log     logging.Logger
}

type FileOption func(*FileRepository)

func WithIDWidth(width int) FileOption {
	return func(r *FileRepository) {
		if width > 0 {
			r.idWidth = width
		}
	}
}

func WithStamper(s Stamper) FileOption {
	return func(r *FileRepository) { r.stamper = s }
}

func WithLogger(l logging.Logger) FileOption {
	return func(r *FileRepository) { r.log = l }
}

// NewFileRepository returns a repository over path. The file and its parent
// directory are created on the first write.
func NewFileRepository(path string, opts ...FileOption) *FileRepository {
	r := &FileRepository{
		path:    path,
		idWidth: DefaultIDWidth,
		stamper: &timex.Stamper{Layout: timex.DefaultStampLayout},
		log:     logging.Nop{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *FileRepository) Path() string {
	return r.path
}

// load reads the file. A missing, empty or unparsable file yields an empty
// list; only other I/O failures are errors.
func (r *FileRepository) load(ctx context.Context) ([]models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.User{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		r.log.Warn(ctx, "data file is not a JSON user array, treating as empty", "path", r.path, "error", err)
		return []models.User{}, nil
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (r *FileRepository) save(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}

	return filex.WriteFileAtomic(r.path, data, 0o644)
}

func (r *FileRepository) GetAll(ctx context.Context) ([]models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

func (r *FileRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, common.ErrUserNotFound
}

func (r *FileRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if emails.Equal(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, common.ErrUserNotFound
}

func (r *FileRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return emails.Exists(users, email, excludeID), nil
}

// Create assigns the next id and createdAt, then appends user. Any id or
// timestamps already set on user are overwritten.
func (r *FileRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return models.User{}, err
	}
	if emails.Exists(users, user.Email, "") {
		return models.User{}, common.ErrEmailTaken
	}

	user.ID = NextID(users, r.idWidth)
	user.CreatedAt = r.stamper.Stamp()
	user.UpdatedAt = ""

	if err := r.save(append(users, user)); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *FileRepository) Update(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return models.User{}, err
	}

	idx := indexOf(users, id)
	if idx < 0 {
		return models.User{}, common.ErrUserNotFound
	}
	if in.Email != nil && emails.Exists(users, *in.Email, id) {
		return models.User{}, common.ErrEmailTaken
	}

	users[idx] = ApplyUpdate(users[idx], in, r.stamper.Stamp())
	if err := r.save(users); err != nil {
		return models.User{}, err
	}
	return users[idx], nil
}

// Delete removes the record and persists the remaining ones.
func (r *FileRepository) Delete(ctx context.Context, id string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load(ctx)
	if err != nil {
		return models.User{}, err
	}

	idx := indexOf(users, id)
	if idx < 0 {
		return models.User{}, common.ErrUserNotFound
	}
	deleted := users[idx]
	rest := append(users[:idx:idx], users[idx+1:]...)

	if err := r.save(rest); err != nil {
		return models.User{}, err
	}
	return deleted, nil
}

func (r *FileRepository) Count(ctx context.Context) (int, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (r *FileRepository) FindPaginated(ctx context.Context, page, limit int) (models.Page, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return models.Page{}, err
	}
	return Paginate(users, page, limit), nil
}

func indexOf(users []models.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

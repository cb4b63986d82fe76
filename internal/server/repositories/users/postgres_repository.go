package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/dbx"
	"github.com/dmitrijs2005/userkeeper/internal/server/models"
	"github.com/dmitrijs2005/userkeeper/internal/timex"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password, created_at, updated_at`

// PostgresRepository stores users in the users table. Insertion order is
// kept by the seq column.
type PostgresRepository struct {
	db      *sql.DB
	idWidth int
	stamper Stamper
}

func NewPostgresRepository(db *sql.DB, idWidth int, stamper Stamper) *PostgresRepository {
	if idWidth < 1 {
		idWidth = DefaultIDWidth
	}
	if stamper == nil {
		stamper = &timex.Stamper{Layout: timex.DefaultStampLayout}
	}
	return &PostgresRepository{db: db, idWidth: idWidth, stamper: stamper}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		u         models.User
		updatedAt sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.CreatedAt, &updatedAt); err != nil {
		return models.User{}, err
	}
	u.UpdatedAt = updatedAt.String
	return u, nil
}

func queryUsers(ctx context.Context, db dbx.DBTX, query string, args ...any) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return users, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, db dbx.DBTX, query string, args ...any) (models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, common.ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// mapWriteError turns a unique violation into ErrEmailTaken. The only
// unique constraints besides the primary key are on email, and ids are
// assigned under a table lock.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrEmailTaken
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]models.User, error) {
	return queryUsers(ctx, r.db, `SELECT `+userColumns+` FROM users ORDER BY seq`)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, r.db, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1) AND id <> $2)`,
		email, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Create computes the next id while holding an exclusive table lock, so
// concurrent creates cannot pick the same one.
func (r *PostgresRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	return dbx.InTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) (models.User, error) {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE users IN EXCLUSIVE MODE`); err != nil {
			return models.User{}, fmt.Errorf("db error: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `SELECT id FROM users`)
		if err != nil {
			return models.User{}, fmt.Errorf("db error: %w", err)
		}
		var existing []models.User
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return models.User{}, fmt.Errorf("db error: %w", err)
			}
			existing = append(existing, models.User{ID: id})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return models.User{}, fmt.Errorf("db error: %w", err)
		}

		user.ID = NextID(existing, r.idWidth)
		user.CreatedAt = r.stamper.Stamp()
		user.UpdatedAt = ""

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (id, name, email, password, created_at) VALUES ($1, $2, $3, $4, $5)`,
			user.ID, user.Name, user.Email, user.Password, user.CreatedAt)
		if err != nil {
			return models.User{}, mapWriteError(err)
		}
		return user, nil
	})
}

func (r *PostgresRepository) Update(ctx context.Context, id string, in models.UserInput) (models.User, error) {
	return dbx.InTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) (models.User, error) {
		current, err := r.findOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return models.User{}, err
		}

		updated := ApplyUpdate(current, in, r.stamper.Stamp())
		_, err = tx.ExecContext(ctx,
			`UPDATE users SET name = $2, email = $3, password = $4, updated_at = $5 WHERE id = $1`,
			id, updated.Name, updated.Email, updated.Password, updated.UpdatedAt)
		if err != nil {
			return models.User{}, mapWriteError(err)
		}
		return updated, nil
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, r.db, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) FindPaginated(ctx context.Context, page, limit int) (models.Page, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return models.Page{}, err
	}

	p := models.Page{Users: []models.User{}, Total: total, Page: page, Limit: limit}
	if page < 1 || limit < 1 {
		return p, nil
	}
	p.TotalPages = TotalPages(total, limit)
	if page > p.TotalPages {
		return p, nil
	}

	users, err := queryUsers(ctx, r.db,
		`SELECT `+userColumns+` FROM users ORDER BY seq LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit)
	if err != nil {
		return models.Page{}, err
	}
	p.Users = users
	return p, nil
}

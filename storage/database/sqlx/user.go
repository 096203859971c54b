package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kwanza/mahudhurio/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string) error {
	q := `SELECT
		EXISTS (SELECT 1 FROM users WHERE username = $1),
		EXISTS (SELECT 1 FROM users WHERE email = $2)`
	var unameTaken, emailTaken bool
	if err := repo.db.QueryRowContext(ctx, q, username, email).Scan(&unameTaken, &emailTaken); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if unameTaken {
		return user.ErrUsernameExists
	}
	if emailTaken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (username, email, password_hash, role, class_id, first_name, last_name, student_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := repo.db.QueryRowContext(
		ctx, q,
		usr.Username, usr.Email, usr.PasswordHash, usr.Role, usr.ClassID,
		usr.FirstName, usr.LastName, usr.StudentNo, usr.CreatedAt, usr.UpdatedAt,
	).Scan(&usr.ID)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return user.User{}, user.ErrUsernameExists
		case uniqueViolation(err, "users_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY username`); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, q string, args ...interface{}) (user.User, error) {
	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE email = $1`, email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT * FROM users WHERE username = $1 OR email = $1`, username)
}

func (repo userRepository) UpdatePasswordHash(ctx context.Context, usr user.User) error {
	q := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, q, usr.PasswordHash, usr.UpdatedAt, usr.ID)
	if err != nil {
		return errors.Wrap(err, "updating password hash")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

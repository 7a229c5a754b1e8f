package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/classroom/core"
	"github.com/trezcool/classroom/core/user"
	"github.com/trezcool/classroom/storage/database"
)

const userSelect = `SELECT id, email, password_hash, full_name, role FROM users`

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func boilUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		FullName:     null.NewString(usr.FullName, usr.FullName != ""),
		Role:         usr.Role.String(),
	}
}

func unboilUser(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		Email:        row.Email,
		FullName:     row.FullName.String,
		Role:         user.Role(row.Role),
		PasswordHash: row.PasswordHash,
	}
}

func unboilUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, unboilUser(row))
	}
	return users
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := repo.getExec(exec)
	row := boilUser(usr)
	q := `INSERT INTO users (email, password_hash, full_name, role) VALUES (?, ?, ?, ?) RETURNING id`
	if err := repo.get(ctx, ex, &row.ID, q, row.Email, row.PasswordHash, row.FullName, row.Role); err != nil {
		if database.IsUniqueViolation(err, "email") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return unboilUser(row), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, userSelect+` ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return unboilUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, repo.getExec(exec), &row, userSelect+` WHERE id = ?`, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by id")
	}
	return unboilUser(row), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	if err := repo.get(ctx, repo.getExec(exec), &row, userSelect+` WHERE email = ?`, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by email")
	}
	return unboilUser(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	ex := repo.getExec(exec)
	row := boilUser(usr)
	updated, err := repo.execAffecting(
		ctx, ex,
		`UPDATE users SET full_name = ?, password_hash = ? WHERE id = ?`,
		row.FullName, row.PasswordHash, row.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if !updated {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, ex)
}

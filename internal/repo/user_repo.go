package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/agoraforum/agora/internal/model"
	"github.com/agoraforum/agora/internal/pkg/dbutil"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
)

var userColumns = []string{"id", "username", "email", "password", "salt", "type", "status", "activation_code", "header_url", "ctime"}

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Insert persists a new user row and fills in the generated id.
func (r *UserRepo) Insert(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"username":        user.Username,
		"email":           user.Email,
		"password":        user.Password,
		"salt":            user.Salt,
		"type":            user.Type,
		"status":          user.Status,
		"activation_code": user.ActivationCode,
		"header_url":      user.HeaderURL,
		"ctime":           user.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	sqlStr += " RETURNING id"
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&user.ID); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) SelectByID(ctx context.Context, id int64) (*model.User, error) {
	return r.selectOne(ctx, map[string]interface{}{"id": id})
}

func (r *UserRepo) SelectByName(ctx context.Context, name string) (*model.User, error) {
	return r.selectOne(ctx, map[string]interface{}{"username": name})
}

func (r *UserRepo) SelectByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.selectOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, map[string]interface{}{"password": passwordHash})
}

func (r *UserRepo) UpdateStatus(ctx context.Context, id int64, status int) error {
	return r.update(ctx, id, map[string]interface{}{"status": status})
}

func (r *UserRepo) UpdateHeader(ctx context.Context, id int64, headerURL string) error {
	return r.update(ctx, id, map[string]interface{}{"header_url": headerURL})
}

func (r *UserRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.Salt,
		&user.Type, &user.Status, &user.ActivationCode, &user.HeaderURL, &user.Ctime); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) update(ctx context.Context, id int64, fields map[string]interface{}) error {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildUpdate("users", where, fields)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/trace"
)

var ErrUserNotFound = fmt.Errorf("user %w", hashid.ErrNotFound)
var ErrUserAlreadyExists = errors.New("username already exists")

type UsersRepo struct {
	db *pgxpool.Pool
}

func NewUsersRepo(db *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = "id, username, role, password_hash, created_at"

func scanUser(row pgx.Row) (user shortlink.User, err error) {
	err = row.Scan(&user.ID, &user.Username, &user.Role, &user.PasswordHash, &user.CreatedAt)
	return user, err
}

// Create 用户名冲突返回 ErrUserAlreadyExists；passwordHash 由上层算好
func (u *UsersRepo) Create(ctx context.Context, username, passwordHash string) (user shortlink.User, err error) {
	ctx, span := trace.StartDB(ctx, "insert", "users")
	defer func() { endSpan(span, err) }()

	username = strings.TrimSpace(username)
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	user, err = scanUser(u.db.QueryRow(dbctx,
		"INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3) ON CONFLICT (username) DO NOTHING RETURNING "+userColumns,
		username, passwordHash, shortlink.RoleUser))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortlink.User{}, ErrUserAlreadyExists
		}
		slog.Error(err.Error())
		return shortlink.User{}, err
	}
	return user, nil
}

func (u *UsersRepo) FindByID(ctx context.Context, id int64) (shortlink.User, error) {
	return u.findOne(ctx, "id=$1", id)
}

// FindByUsername 登录用
func (u *UsersRepo) FindByUsername(ctx context.Context, username string) (shortlink.User, error) {
	return u.findOne(ctx, "username=$1", strings.TrimSpace(username))
}

func (u *UsersRepo) findOne(ctx context.Context, where string, arg any) (user shortlink.User, err error) {
	ctx, span := trace.StartDB(ctx, "select", "users")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	user, err = scanUser(u.db.QueryRow(dbctx, "SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortlink.User{}, ErrUserNotFound
		}
		slog.Error(err.Error())
		return shortlink.User{}, err
	}
	return user, nil
}

func (u *UsersRepo) FindByIDs(ctx context.Context, ids []int64) (users []shortlink.User, err error) {
	if len(ids) == 0 {
		return []shortlink.User{}, nil
	}
	ctx, span := trace.StartDB(ctx, "select", "users")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := u.db.Query(dbctx,
		"SELECT "+userColumns+" FROM users WHERE id = ANY($1) ORDER BY array_position($1::bigint[], id)", ids)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	users = make([]shortlink.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return users, nil
}

package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"hashkey.local/internal/app/shortlink"
	"hashkey.local/internal/app/shortlink/cache"
	"hashkey.local/internal/hashid"
	"hashkey.local/internal/platform/trace"
)

var ErrShortlinkNotFound = fmt.Errorf("shortlink %w", hashid.ErrNotFound)
var (
	ErrAlreadyDisabled = errors.New("shortlink already disabled")
	ErrAlreadyEnabled  = errors.New("shortlink already enabled")
	// ErrShortlinkDisabled 创建时 URL 已存在但被禁用；恢复只能走 Enable
	ErrShortlinkDisabled = errors.New("shortlink disabled")
)

const shortlinkColumns = "id, url, owner_id, disabled, created_at, updated_at"

type ShortlinksRepo struct {
	db     *pgxpool.Pool
	cache  *cache.ShortlinkCache
	filter *cache.IDFilter
}

// NewShortlinksRepo cache 和 filter 都可以为 nil。
func NewShortlinksRepo(db *pgxpool.Pool, cache *cache.ShortlinkCache, filter *cache.IDFilter) *ShortlinksRepo {
	return &ShortlinksRepo{
		db:     db,
		cache:  cache,
		filter: filter,
	}
}

func scanShortlink(row pgx.Row) (shortlink.Shortlink, error) {
	var sl shortlink.Shortlink
	err := row.Scan(&sl.ID, &sl.URL, &sl.OwnerID, &sl.Disabled, &sl.CreatedAt, &sl.UpdatedAt)
	return sl, err
}

/*
保存长链接，同一个 URL 只会有一行，重复创建返回已有记录。
已有记录被禁用时返回 ErrShortlinkDisabled：禁用是管理动作，不能靠重新提交同一个 URL 绕过。
对外的短码不落库，由 hashid 从 id 编码得到。
*/
func (s *ShortlinksRepo) Create(ctx context.Context, url string, ownerID *int64) (sl shortlink.Shortlink, err error) {
	ctx, span := trace.StartDB(ctx, "insert", "shortlinks")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	sl, err = scanShortlink(s.db.QueryRow(dbctx,
		"INSERT INTO shortlinks (url, owner_id, disabled) VALUES ($1, $2, false) ON CONFLICT (url) DO UPDATE SET url=EXCLUDED.url RETURNING "+shortlinkColumns,
		url, ownerID))
	if err != nil {
		slog.Error(err.Error())
		return shortlink.Shortlink{}, err
	}

	if s.filter != nil {
		s.filter.Add(sl.ID)
	}
	if sl.Disabled {
		return shortlink.Shortlink{}, ErrShortlinkDisabled
	}
	// 写缓存/覆盖负缓存：创建成功后立刻写入，避免此前命中 "__nil__" 导致短码暂时不可用。
	if s.cache != nil {
		cacheCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_ = s.cache.Set(cacheCtx, sl.ID, sl.URL)
	}
	return sl, nil
}

func (s *ShortlinksRepo) FindByID(ctx context.Context, id int64) (sl shortlink.Shortlink, err error) {
	ctx, span := trace.StartDB(ctx, "select", "shortlinks")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	sl, err = scanShortlink(s.db.QueryRow(dbctx, "SELECT "+shortlinkColumns+" FROM shortlinks WHERE id=$1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shortlink.Shortlink{}, ErrShortlinkNotFound
		}
		slog.Error(err.Error())
		return shortlink.Shortlink{}, err
	}
	return sl, nil
}

// FindByIDs 一次查询取回多条，结果按 ids 的顺序排列，不存在的 id 直接跳过。
func (s *ShortlinksRepo) FindByIDs(ctx context.Context, ids []int64) (items []shortlink.Shortlink, err error) {
	if len(ids) == 0 {
		return []shortlink.Shortlink{}, nil
	}
	ctx, span := trace.StartDB(ctx, "select", "shortlinks")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := s.db.Query(dbctx,
		"SELECT "+shortlinkColumns+" FROM shortlinks WHERE id = ANY($1) ORDER BY array_position($1::bigint[], id)", ids)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	items = make([]shortlink.Shortlink, 0, len(ids))
	for rows.Next() {
		sl, err := scanShortlink(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		items = append(items, sl)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	return items, nil
}

// ResolveURL 跳转入口：布隆过滤器 → 缓存 → 数据库。
// 返回空字符串表示不存在或已禁用；span 上记下最终由哪一层给出结果。
func (s *ShortlinksRepo) ResolveURL(ctx context.Context, id int64) (url string, err error) {
	ctx, span := trace.StartDB(ctx, "resolve", "shortlinks")
	source := "db"
	defer func() {
		span.SetAttributes(attribute.String("shortlink.resolve.source", source))
		endSpan(span, err)
	}()

	if s.filter != nil && !s.filter.MightExist(id) {
		source = "bloom"
		return "", nil
	}

	//先查缓存
	if s.cache != nil {
		cached, hit, cerr := s.cache.Get(ctx, id)
		if cerr != nil {
			slog.Warn("shortlink cache get failed", "id", id, "err", cerr)
		} else if hit {
			source = "cache"
			return cached, nil
		}
	}

	//查数据库
	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err = s.db.QueryRow(dbctx, "SELECT url FROM shortlinks WHERE id=$1 AND disabled=false", id).Scan(&url); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if s.cache != nil {
				_ = s.cache.SetNotFound(ctx, id)
			}
			return "", nil
		}
		slog.Error(err.Error())
		return "", err
	}

	//写缓存
	if s.cache != nil {
		_ = s.cache.Set(ctx, id, url)
	}
	return url, nil
}

// Disable 禁用后跳转立即失效（删缓存，下一次查库写负缓存）
func (s *ShortlinksRepo) Disable(ctx context.Context, id int64) error {
	return s.setDisabled(ctx, id, true)
}

// Enable 恢复被禁用的短链
func (s *ShortlinksRepo) Enable(ctx context.Context, id int64) error {
	return s.setDisabled(ctx, id, false)
}

func (s *ShortlinksRepo) setDisabled(ctx context.Context, id int64, disabled bool) (err error) {
	ctx, span := trace.StartDB(ctx, "update", "shortlinks")
	defer func() { endSpan(span, err) }()

	dbctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	var ok int
	err = s.db.QueryRow(dbctx, "UPDATE shortlinks SET disabled=$2, updated_at=now() WHERE id=$1 AND disabled<>$2 RETURNING 1", id, disabled).Scan(&ok)
	if err == nil {
		if s.cache != nil {
			// 恢复时也要删：负缓存里可能还留着 "__nil__"
			_ = s.cache.Delete(ctx, id)
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		slog.Error(err.Error())
		return err
	}

	// 没有更新到行：要么不存在，要么已经是目标状态
	var current bool
	if err = s.db.QueryRow(dbctx, "SELECT disabled FROM shortlinks WHERE id=$1", id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrShortlinkNotFound
		}
		slog.Error(err.Error())
		return err
	}
	switch {
	case current && disabled:
		return ErrAlreadyDisabled
	case !current && !disabled:
		return ErrAlreadyEnabled
	}
	return errors.New("shortlink update failed")
}

// WarmFilter 启动时把已有 id 灌进布隆过滤器。
func (s *ShortlinksRepo) WarmFilter(ctx context.Context) (int, error) {
	if s.filter == nil {
		return 0, nil
	}
	rows, err := s.db.Query(ctx, "SELECT id FROM shortlinks")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return n, err
		}
		s.filter.Add(id)
		n++
	}
	return n, rows.Err()
}

package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	stderrors "errors"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid"
)

var linkColumns = []string{
	"id", "user_id", "title", "url", "position", "active", "is_social", "social_type",
	"clicks", "last_status", "last_checked_at", "healthy", "page_title",
	"created_at", "updated_at",
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newLinkID returns a ULID; monotonic entropy keeps ids sortable within a millisecond.
func newLinkID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func linksOrdered(b sq.SelectBuilder) sq.SelectBuilder {
	return b.OrderBy("position ASC", "created_at ASC", "id ASC")
}

func (s *Store) selectLinks(ctx context.Context, b sq.SelectBuilder, op string) ([]Link, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, dbError(err, "build "+op)
	}
	links := []Link{}
	if err := s.db.SelectContext(ctx, &links, query, args...); err != nil {
		return nil, dbError(err, op)
	}
	return links, nil
}

// ListLinks returns every link of a user in display order.
func (s *Store) ListLinks(ctx context.Context, userID string) ([]Link, error) {
	return s.selectLinks(ctx, linksOrdered(sq.Select(linkColumns...).From("links").
		Where(sq.Eq{"user_id": userID})), "list links")
}

// ListActiveLinks returns the links shown on a user's public page.
func (s *Store) ListActiveLinks(ctx context.Context, userID string) ([]Link, error) {
	return s.selectLinks(ctx, linksOrdered(sq.Select(linkColumns...).From("links").
		Where(sq.Eq{"user_id": userID, "active": true})), "list active links")
}

// ListAllActiveLinks returns every active link across users, oldest check first.
func (s *Store) ListAllActiveLinks(ctx context.Context) ([]Link, error) {
	return s.selectLinks(ctx, sq.Select(linkColumns...).From("links").
		Where(sq.Eq{"active": true}).
		OrderBy("last_checked_at IS NOT NULL", "last_checked_at ASC", "id ASC"), "list all active links")
}

// NextPosition returns one past the highest position used by the user.
func (s *Store) NextPosition(ctx context.Context, userID string) (int, error) {
	query, args, err := sq.Select("COALESCE(MAX(position) + 1, 0)").From("links").
		Where(sq.Eq{"user_id": userID}).ToSql()
	if err != nil {
		return 0, dbError(err, "build next position")
	}
	var next int
	if err := s.db.GetContext(ctx, &next, query, args...); err != nil {
		return 0, dbError(err, "next position")
	}
	return next, nil
}

// CreateLink inserts a link for a user.
func (s *Store) CreateLink(ctx context.Context, nl NewLink) (*Link, error) {
	now := s.now()
	l := &Link{
		ID:         newLinkID(now),
		UserID:     nl.UserID,
		Title:      nl.Title,
		URL:        nl.URL,
		Order:      nl.Order,
		Active:     nl.Active,
		IsSocial:   nl.IsSocial,
		SocialType: nl.SocialType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	query, args, err := sq.Insert("links").
		Columns("id", "user_id", "title", "url", "position", "active", "is_social", "social_type", "clicks", "created_at", "updated_at").
		Values(l.ID, l.UserID, l.Title, l.URL, l.Order, l.Active, l.IsSocial, nullable(l.SocialType), 0, l.CreatedAt, l.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, dbError(err, "build insert link")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, dbError(err, "insert link")
	}
	return l, nil
}

func (s *Store) getLink(ctx context.Context, q sqlx.QueryerContext, where sq.Sqlizer) (*Link, error) {
	query, args, err := sq.Select(linkColumns...).From("links").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, dbError(err, "build select link")
	}
	var l Link
	if err := sqlx.GetContext(ctx, q, &l, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, dbError(err, "select link")
	}
	return &l, nil
}

// GetLink loads a link owned by userID; links of other users are reported as not found.
func (s *Store) GetLink(ctx context.Context, id, userID string) (*Link, error) {
	return s.getLink(ctx, s.db, sq.Eq{"id": id, "user_id": userID})
}

// GetLinkByID loads a link regardless of owner, for public redirects.
func (s *Store) GetLinkByID(ctx context.Context, id string) (*Link, error) {
	return s.getLink(ctx, s.db, sq.Eq{"id": id})
}

// UpdateLink applies a partial update to a link owned by userID.
func (s *Store) UpdateLink(ctx context.Context, id, userID string, upd LinkUpdate) (*Link, error) {
	q := sq.Update("links")
	changed := false
	if v, ok := upd.Title.Value(); ok {
		q, changed = q.Set("title", v), true
	}
	if v, ok := upd.URL.Value(); ok {
		q, changed = q.Set("url", v), true
	}
	if v, ok := upd.Order.Value(); ok {
		q, changed = q.Set("position", v), true
	}
	if v, ok := upd.Active.Value(); ok {
		q, changed = q.Set("active", v), true
	}
	if v, ok := upd.IsSocial.Value(); ok {
		q, changed = q.Set("is_social", v), true
	}
	if upd.SocialType.IsSet() {
		q, changed = q.Set("social_type", nullable(upd.SocialType.Ptr())), true
	}
	// A changed URL invalidates the previous health probe.
	if upd.URL.IsSet() {
		q = q.Set("last_status", nil).Set("last_checked_at", nil).Set("healthy", nil).Set("page_title", nil)
	}

	if !changed {
		return s.GetLink(ctx, id, userID)
	}

	query, args, err := q.Set("updated_at", s.now()).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, dbError(err, "build update link")
	}
	if err := s.execAffectingOne(ctx, query, args, ErrLinkNotFound, "update link"); err != nil {
		return nil, err
	}
	return s.GetLink(ctx, id, userID)
}

// DeleteLink removes a link owned by userID.
func (s *Store) DeleteLink(ctx context.Context, id, userID string) error {
	query, args, err := sq.Delete("links").Where(sq.Eq{"id": id, "user_id": userID}).ToSql()
	if err != nil {
		return dbError(err, "build delete link")
	}
	return s.execAffectingOne(ctx, query, args, ErrLinkNotFound, "delete link")
}

// ReorderLinks assigns positions in a single transaction. Any id not owned by
// userID aborts the whole batch with ErrLinkNotFound.
func (s *Store) ReorderLinks(ctx context.Context, userID string, items []ReorderItem) error {
	if len(items) == 0 {
		return nil
	}
	now := s.now()
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, item := range items {
			query, args, err := sq.Update("links").
				Set("position", item.Order).
				Set("updated_at", now).
				Where(sq.Eq{"id": item.ID, "user_id": userID}).
				ToSql()
			if err != nil {
				return dbError(err, "build reorder")
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return dbError(err, "reorder links")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dbError(err, "reorder links")
			}
			if n == 0 {
				return ErrLinkNotFound.WithContext("link_id", item.ID)
			}
		}
		return nil
	})
}

// IncrementClicks bumps a link's click counter and returns the new value.
func (s *Store) IncrementClicks(ctx context.Context, id string) (int64, error) {
	query, args, err := sq.Update("links").
		Set("clicks", sq.Expr("clicks + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING clicks").
		ToSql()
	if err != nil {
		return 0, dbError(err, "build increment clicks")
	}
	return s.returningCounter(ctx, query, args, ErrLinkNotFound, "increment clicks")
}

// RecordLinkHealth stores the result of a link probe.
func (s *Store) RecordLinkHealth(ctx context.Context, id string, h Health) error {
	checkedAt := h.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = s.now()
	}
	query, args, err := sq.Update("links").
		Set("last_status", nullable(h.Status)).
		Set("last_checked_at", checkedAt.UTC()).
		Set("healthy", h.Healthy).
		Set("page_title", nullable(h.PageTitle)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return dbError(err, "build record health")
	}
	return s.execAffectingOne(ctx, query, args, ErrLinkNotFound, "record link health")
}

// UserStats aggregates view, click and health counters for a user.
func (s *Store) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	query, args, err := sq.Select(
		"u.page_views AS page_views",
		"COALESCE(SUM(l.clicks), 0) AS total_clicks",
		"COUNT(l.id) AS link_count",
		"COALESCE(SUM(CASE WHEN l.active THEN 1 ELSE 0 END), 0) AS active_links",
		"COALESCE(SUM(CASE WHEN l.healthy = 1 THEN 1 ELSE 0 END), 0) AS healthy_links",
		"COALESCE(SUM(CASE WHEN l.healthy = 0 THEN 1 ELSE 0 END), 0) AS broken_links",
		"COALESCE(SUM(CASE WHEN l.id IS NOT NULL AND l.healthy IS NULL THEN 1 ELSE 0 END), 0) AS unchecked_links",
	).
		From("users u").
		LeftJoin("links l ON l.user_id = u.id").
		Where(sq.Eq{"u.id": userID}).
		GroupBy("u.id").
		ToSql()
	if err != nil {
		return nil, dbError(err, "build user stats")
	}
	var st UserStats
	if err := s.db.GetContext(ctx, &st, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, dbError(err, "user stats")
	}
	return &st, nil
}

// Package progress tracks which articles a learner has read and advances that
// state when a test for the articles' category is passed.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

type Entry struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	ArticleID int64  `json:"article_id"`
	Status    string `json:"status"`
	UpdatedAt int64  `json:"updated_at"`
}

var ErrNotFound = errors.New("progress not found")

type Propagator struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPropagator(db *sql.DB, log *zap.Logger) *Propagator {
	return &Propagator{db: db, log: log}
}

// PropagateTestPass marks every article in the passed test's category as done
// for the user. Each article upsert is independent and idempotent: a failure
// on one article is logged and the rest still get updated.
func (p *Propagator) PropagateTestPass(ctx context.Context, userID, testID int64) error {
	var categoryID int64
	err := p.db.QueryRowContext(ctx,
		`SELECT category_id FROM tests WHERE id=$1`, testID).Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("lookup test %d: %w", testID, err)
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT id FROM articles WHERE category_id=$1 ORDER BY id`, categoryID)
	if err != nil {
		return fmt.Errorf("list articles for category %d: %w", categoryID, err)
	}
	defer rows.Close()
	var articleIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		articleIDs = append(articleIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var failed int
	for _, articleID := range articleIDs {
		if err := p.Upsert(ctx, userID, articleID, StatusDone); err != nil {
			failed++
			p.log.Error("progress update failed",
				zap.Int64("user_id", userID),
				zap.Int64("article_id", articleID),
				zap.Error(err),
			)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d article updates failed", failed, len(articleIDs))
	}
	return nil
}

// Upsert creates or updates the (user, article) progress row.
func (p *Propagator) Upsert(ctx context.Context, userID, articleID int64, status string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, article_id, status, updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id, article_id) DO UPDATE SET status=$3, updated_at=$4`,
		userID, articleID, status, time.Now().Unix())
	return err
}

// MarkViewed lazily creates an in_progress row the first time a learner opens
// an article. An existing row (any status) is left alone.
func (p *Propagator) MarkViewed(ctx context.Context, userID, articleID int64) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO progress (user_id, article_id, status, updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (user_id, article_id) DO NOTHING`,
		userID, articleID, StatusInProgress, time.Now().Unix())
	return err
}

// --- Queries used by the progress endpoints ---

func (p *Propagator) List(ctx context.Context, userID, articleID int64) ([]Entry, error) {
	query := `SELECT id, user_id, article_id, status, updated_at FROM progress`
	args := []any{}
	switch {
	case userID != 0 && articleID != 0:
		query += ` WHERE user_id=$1 AND article_id=$2`
		args = append(args, userID, articleID)
	case userID != 0:
		query += ` WHERE user_id=$1`
		args = append(args, userID)
	case articleID != 0:
		query += ` WHERE article_id=$1`
		args = append(args, articleID)
	}
	query += ` ORDER BY id`

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ArticleID, &e.Status, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Propagator) Get(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	err := p.db.QueryRowContext(ctx,
		`SELECT id, user_id, article_id, status, updated_at FROM progress WHERE id=$1`, id,
	).Scan(&e.ID, &e.UserID, &e.ArticleID, &e.Status, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

func (p *Propagator) Delete(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM progress WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

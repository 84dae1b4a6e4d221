package content

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidTarget  = errors.New("assignment must target exactly one of user or group")
	ErrInvalidContent = errors.New("content_type must be markdown or html")
	ErrInvalidMedia   = errors.New("media_type must be svg, png or webm")
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// --- Categories ---

func (s *SQLStore) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, parent_id FROM categories WHERE id=$1`, id,
	).Scan(&c.ID, &c.Title, &c.ParentID)
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *SQLStore) ListCategories(ctx context.Context) ([]Category, error) {
	return s.listCategories(ctx, `SELECT id, title, parent_id FROM categories ORDER BY id`)
}

func (s *SQLStore) ListChildCategories(ctx context.Context, parentID int64) ([]Category, error) {
	return s.listCategories(ctx,
		`SELECT id, title, parent_id FROM categories WHERE parent_id=$1 ORDER BY id`, parentID)
}

func (s *SQLStore) listCategories(ctx context.Context, query string, args ...any) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateCategory(ctx context.Context, title string, parentID *int64) (Category, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO categories (title, parent_id) VALUES ($1,$2) RETURNING id`,
		title, parentID).Scan(&id)
	if err != nil {
		return Category{}, err
	}
	return Category{ID: id, Title: title, ParentID: parentID}, nil
}

func (s *SQLStore) UpdateCategory(ctx context.Context, id int64, title *string, parentID *int64) (Category, error) {
	c, err := s.GetCategory(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if title != nil {
		c.Title = *title
	}
	if parentID != nil {
		c.ParentID = parentID
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE categories SET title=$1, parent_id=$2 WHERE id=$3`, c.Title, c.ParentID, id)
	if err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *SQLStore) DeleteCategory(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM categories WHERE id=$1`, id)
}

// --- Articles ---

func (s *SQLStore) GetArticle(ctx context.Context, id int64) (Article, error) {
	var a Article
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category_id, title, content, content_type, created_at FROM articles WHERE id=$1`, id,
	).Scan(&a.ID, &a.CategoryID, &a.Title, &a.Content, &a.ContentType, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Article{}, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) ListArticles(ctx context.Context) ([]Article, error) {
	return s.listArticles(ctx,
		`SELECT id, category_id, title, content, content_type, created_at FROM articles ORDER BY id`)
}

func (s *SQLStore) ListArticlesByCategory(ctx context.Context, categoryID int64) ([]Article, error) {
	return s.listArticles(ctx,
		`SELECT id, category_id, title, content, content_type, created_at FROM articles WHERE category_id=$1 ORDER BY id`,
		categoryID)
}

func (s *SQLStore) listArticles(ctx context.Context, query string, args ...any) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Article{}
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.CategoryID, &a.Title, &a.Content, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateArticle(ctx context.Context, categoryID int64, title, body, contentType string) (Article, error) {
	if contentType != "markdown" && contentType != "html" {
		return Article{}, ErrInvalidContent
	}
	a := Article{CategoryID: categoryID, Title: title, Content: body, ContentType: contentType, CreatedAt: time.Now().Unix()}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO articles (category_id, title, content, content_type, created_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		a.CategoryID, a.Title, a.Content, a.ContentType, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (s *SQLStore) UpdateArticle(ctx context.Context, id int64, title, body, contentType *string) (Article, error) {
	a, err := s.GetArticle(ctx, id)
	if err != nil {
		return Article{}, err
	}
	if title != nil {
		a.Title = *title
	}
	if body != nil {
		a.Content = *body
	}
	if contentType != nil {
		if *contentType != "markdown" && *contentType != "html" {
			return Article{}, ErrInvalidContent
		}
		a.ContentType = *contentType
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE articles SET title=$1, content=$2, content_type=$3 WHERE id=$4`,
		a.Title, a.Content, a.ContentType, id)
	if err != nil {
		return Article{}, err
	}
	return a, nil
}

func (s *SQLStore) DeleteArticle(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM articles WHERE id=$1`, id)
}

// --- Media ---

func (s *SQLStore) GetMedia(ctx context.Context, id int64) (Media, error) {
	var m Media
	err := s.db.QueryRowContext(ctx,
		`SELECT id, article_id, media_type, url, sort_order FROM media WHERE id=$1`, id,
	).Scan(&m.ID, &m.ArticleID, &m.MediaType, &m.URL, &m.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return Media{}, ErrNotFound
	}
	return m, err
}

func (s *SQLStore) ListMediaByArticle(ctx context.Context, articleID int64) ([]Media, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, article_id, media_type, url, sort_order FROM media
		 WHERE article_id=$1 ORDER BY sort_order, id`, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Media{}
	for rows.Next() {
		var m Media
		if err := rows.Scan(&m.ID, &m.ArticleID, &m.MediaType, &m.URL, &m.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateMedia(ctx context.Context, articleID int64, mediaType, url string, sortOrder int) (Media, error) {
	switch mediaType {
	case "svg", "png", "webm":
	default:
		return Media{}, ErrInvalidMedia
	}
	m := Media{ArticleID: articleID, MediaType: mediaType, URL: url, SortOrder: sortOrder}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO media (article_id, media_type, url, sort_order) VALUES ($1,$2,$3,$4) RETURNING id`,
		m.ArticleID, m.MediaType, m.URL, m.SortOrder).Scan(&m.ID)
	if err != nil {
		return Media{}, err
	}
	return m, nil
}

func (s *SQLStore) DeleteMedia(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM media WHERE id=$1`, id)
}

// --- Assignments ---

func (s *SQLStore) CreateAssignment(ctx context.Context, assignedBy, categoryID int64, userID, groupID *int64) (Assignment, error) {
	if (userID == nil) == (groupID == nil) {
		return Assignment{}, ErrInvalidTarget
	}
	a := Assignment{AssignedBy: assignedBy, CategoryID: categoryID, UserID: userID, GroupID: groupID, AssignedAt: time.Now().Unix()}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO assignments (assigned_by, category_id, user_id, group_id, assigned_at)
		 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		a.AssignedBy, a.CategoryID, a.UserID, a.GroupID, a.AssignedAt).Scan(&a.ID)
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context) ([]Assignment, error) {
	return s.listAssignments(ctx,
		`SELECT id, assigned_by, category_id, user_id, group_id, assigned_at FROM assignments ORDER BY id`)
}

// ListAssignmentsForUser returns assignments targeting the user directly or
// through any group they belong to.
func (s *SQLStore) ListAssignmentsForUser(ctx context.Context, userID int64) ([]Assignment, error) {
	return s.listAssignments(ctx,
		`SELECT id, assigned_by, category_id, user_id, group_id, assigned_at FROM assignments
		 WHERE user_id=$1
		    OR group_id IN (SELECT group_id FROM group_members WHERE user_id=$1)
		 ORDER BY id`, userID)
}

func (s *SQLStore) listAssignments(ctx context.Context, query string, args ...any) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.AssignedBy, &a.CategoryID, &a.UserID, &a.GroupID, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteAssignment(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM assignments WHERE id=$1`, id)
}

// --- Groups ---

func (s *SQLStore) CreateGroup(ctx context.Context, name string) (Group, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO groups_ (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return Group{}, err
	}
	return Group{ID: id, Name: name}, nil
}

func (s *SQLStore) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM groups_ ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Group{}
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddGroupMember(ctx context.Context, groupID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1,$2)
		 ON CONFLICT (group_id, user_id) DO NOTHING`, groupID, userID)
	return err
}

func (s *SQLStore) RemoveGroupMember(ctx context.Context, groupID, userID int64) error {
	return s.deleteByID(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
}

func (s *SQLStore) deleteByID(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
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

package content

type Category struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ParentID *int64 `json:"parent_id"`
}

type Article struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category_id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"` // markdown | html
	CreatedAt   int64  `json:"created_at"`
}

type Media struct {
	ID        int64  `json:"id"`
	ArticleID int64  `json:"article_id"`
	MediaType string `json:"media_type"` // svg | png | webm
	URL       string `json:"url"`
	SortOrder int    `json:"sort_order"`
}

// Assignment targets exactly one of UserID or GroupID.
type Assignment struct {
	ID         int64  `json:"id"`
	AssignedBy int64  `json:"assigned_by"`
	CategoryID int64  `json:"category_id"`
	UserID     *int64 `json:"user_id"`
	GroupID    *int64 `json:"group_id"`
	AssignedAt int64  `json:"assigned_at"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

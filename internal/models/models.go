package models

// User roles. The first registered user becomes admin when no admin
// exists yet; everyone after that defaults to user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email"`
	PasswordHash string  `json:"-"`
	DisplayName  *string `json:"display_name"`
	AvatarURL    *string `json:"avatar_url"`
	Role         string  `json:"role"`
	IsActive     bool    `json:"is_active"`
	LastLoginAt  *string `json:"last_login_at"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type Category struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	SortOrder   int64   `json:"sort_order"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type Tag struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       string  `json:"color"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type Article struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Excerpt         *string `json:"excerpt"`
	Status          string  `json:"status"`
	CategoryID      *int64  `json:"category_id"`
	ViewCount       int64   `json:"view_count"`
	IsFeatured      bool    `json:"is_featured"`
	MetaTitle       *string `json:"meta_title"`
	MetaDescription *string `json:"meta_description"`
	Slug            *string `json:"slug"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	PublishedAt     *string `json:"published_at"`

	// Hydrated relations, not columns. Never present in snapshots.
	Category *Category `json:"category,omitempty"`
	Tags     []Tag     `json:"tags,omitempty"`
}

// ArticleTag is a bare link row between an article and a tag.
type ArticleTag struct {
	ArticleID int64 `json:"article_id"`
	TagID     int64 `json:"tag_id"`
}

type Image struct {
	ID           int64   `json:"id"`
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	FilePath     string  `json:"file_path"`
	FileSize     int64   `json:"file_size"`
	MimeType     string  `json:"mime_type"`
	CreatedAt    string  `json:"created_at"`
	URL          *string `json:"url,omitempty"`
}

type Setting struct {
	Key         string  `json:"key"`
	Value       string  `json:"value"`
	Type        string  `json:"type"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// SnapshotVersion is written into every exported snapshot and accepted
// on restore. Restore does not reject other versions; the target schema
// is assumed to match.
const SnapshotVersion = "1.0.0"

// Snapshot is the versioned full-database export document. Each
// collection carries complete rows, primary keys included, ordered by
// primary key ascending (settings by key, article_tags by the composite
// key). Images are only present when the export requested them.
type Snapshot struct {
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
	Data      SnapshotData `json:"data"`
}

type SnapshotData struct {
	Articles    []Article    `json:"articles"`
	Categories  []Category   `json:"categories"`
	Tags        []Tag        `json:"tags"`
	ArticleTags []ArticleTag `json:"article_tags"`
	Settings    []Setting    `json:"settings"`
	Images      []Image      `json:"images,omitempty"`
}

// UserStats backs the first-run probe on /auth/check-users.
type UserStats struct {
	HasUsers   bool `json:"hasUsers"`
	UserCount  int  `json:"userCount"`
	HasAdmin   bool `json:"hasAdmin"`
	AdminCount int  `json:"adminCount"`
}

// Statistics is the dashboard counters payload.
type Statistics struct {
	TotalArticles     int   `json:"total_articles"`
	PublishedArticles int   `json:"published_articles"`
	DraftArticles     int   `json:"draft_articles"`
	TotalCategories   int   `json:"total_categories"`
	TotalTags         int   `json:"total_tags"`
	TotalImages       int   `json:"total_images"`
	TotalViews        int64 `json:"total_views"`
}

package devto

// Article represents one entry of the Dev.to article listing.
type Article struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
	TagList     []string `json:"tag_list"`
}

// ArticleDetail is the per-article endpoint payload. Only the full
// body is read from it; everything else comes from the listing.
type ArticleDetail struct {
	BodyMarkdown string `json:"body_markdown"`
}

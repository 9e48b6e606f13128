package scholar

// SearchResponse represents the paper search payload of the Semantic
// Scholar Graph API.
type SearchResponse struct {
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Data   []Paper `json:"data"`
}

type Paper struct {
	PaperID         string         `json:"paperId"`
	Title           string         `json:"title"`
	Abstract        string         `json:"abstract"`
	URL             string         `json:"url"`
	Venue           string         `json:"venue"`
	Year            int            `json:"year"`
	PublicationDate string         `json:"publicationDate"`
	Authors         []Author       `json:"authors"`
	OpenAccessPdf   *OpenAccessPdf `json:"openAccessPdf"`
}

type Author struct {
	Name string `json:"name"`
}

type OpenAccessPdf struct {
	URL string `json:"url"`
}

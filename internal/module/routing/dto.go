package routing

// ClassifyQuery is the query of GET /api/v1/routes/classify.
type ClassifyQuery struct {
	Path string `form:"path" binding:"required,startswith=/,max=2048"`
}

// ClassifyResult reports how the route guard treats a path.
type ClassifyResult struct {
	Path           string `json:"path"`
	Excluded       bool   `json:"excluded"`
	Classification string `json:"classification,omitempty"`
}

// PrefixesView lists the configured prefixes.
type PrefixesView struct {
	Protected []string `json:"protected"`
	Auth      []string `json:"auth"`
	Mode      string   `json:"mode"`
}

package googlebooks

// VolumesResponse is the top-level response from the Google Books volumes
// endpoint.
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single catalog record.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the bibliographic fields of a volume.
type VolumeInfo struct {
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle"`
	Authors   []string `json:"authors"`
	Publisher string   `json:"publisher"`

	// PublishedDate is "YYYY", "YYYY-MM", or "YYYY-MM-DD".
	PublishedDate string `json:"publishedDate"`

	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

// IndustryIdentifier is an ISBN entry attached to a volume.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

package crossref

// WorksResponse is the top-level response from the Crossref works endpoint.
type WorksResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is a single Crossref record.
type Work struct {
	DOI            string     `json:"DOI"`
	Title          []string   `json:"title"`
	Author         []Author   `json:"author"`
	ContainerTitle []string   `json:"container-title"`
	Volume         string     `json:"volume"`
	Issue          string     `json:"issue"`
	Page           string     `json:"page"`
	URL            string     `json:"URL"`
	PublishedOnline *DateParts `json:"published-online"`
	PublishedPrint  *DateParts `json:"published-print"`
	Issued          *DateParts `json:"issued"`
}

// Author is a contributor entry on a work.
type Author struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// DateParts is Crossref's nested date representation:
// [[year, month, day]] with month and day optional.
type DateParts struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the year component, or zero when absent.
func (d *DateParts) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

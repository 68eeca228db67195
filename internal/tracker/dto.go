package tracker

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// RequestDTO is a single request record as returned by the API.
type RequestDTO struct {
	ID               string   `json:"id"`
	TechnologyBlock  *string  `json:"technology_block"`
	RequestType      string   `json:"request_type"`
	Priority         string   `json:"priority"`
	RequestDate      string   `json:"request_date"`
	EntryDate        *string  `json:"entry_date"`
	ElapsedDays      int      `json:"elapsed_days"`
	CompliesSLA1     *bool    `json:"complies_sla1"`
	CompliesSLA2     *bool    `json:"complies_sla2"`
	PctCompletedSLA1 *float64 `json:"pct_completed_sla1"`
	PctCompletedSLA2 *float64 `json:"pct_completed_sla2"`
	Status           string   `json:"status"`
	ThresholdDays    int      `json:"threshold_days"`
}

// RequestsResponse is the container for the request listing.
type RequestsResponse struct {
	Total    int          `json:"total"`
	Requests []RequestDTO `json:"requests"`
}

// SLAConfigDTO is one entry of the SLA configuration catalog.
type SLAConfigDTO struct {
	Code          string `json:"sla_type"`
	ThresholdDays int    `json:"threshold_days"`
	Description   string `json:"description"`
}

// CatalogResponse is the container for the SLA configuration listing.
type CatalogResponse struct {
	Configs []SLAConfigDTO `json:"configs"`
}

// NewRequest is the payload staff submit to log a personnel request event.
type NewRequest struct {
	ID              string    `json:"id"`
	TechnologyBlock string    `json:"technology_block,omitempty"`
	RequestType     string    `json:"request_type"`
	Priority        string    `json:"priority"`
	RequestDate     time.Time `json:"-"`
}

// Validate checks the required fields and assigns an ID when missing.
func (n *NewRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(n.RequestType) == "" {
		missing = append(missing, "request_type")
	}
	if strings.TrimSpace(n.Priority) == "" {
		missing = append(missing, "priority")
	}
	if n.RequestDate.IsZero() {
		missing = append(missing, "request_date")
	}
	if len(missing) > 0 {
		return fmt.Errorf("new request is missing %s", strings.Join(missing, ", "))
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// createRequestBody is the wire form of NewRequest.
type createRequestBody struct {
	NewRequest
	RequestDate string `json:"request_date"`
}

// ParseDate is a helper for the API's calendar date format. Timestamps with a
// time component are accepted and truncated to their date.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

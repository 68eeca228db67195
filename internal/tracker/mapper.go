package tracker

import (
	"strings"

	"github.com/rs/zerolog/log"

	"sla-tracker/internal/stats"
)

// MapRequest converts a wire record into a domain request.
// An unparseable request date drops the record; a bad entry date is cleared.
func MapRequest(dto RequestDTO) (stats.Request, bool) {
	requestDate, err := ParseDate(dto.RequestDate)
	if err != nil {
		log.Warn().Err(err).Str("id", dto.ID).Str("request_date", dto.RequestDate).Msg("Skipping request with invalid date")
		return stats.Request{}, false
	}

	r := stats.Request{
		ID:               dto.ID,
		TechnologyBlock:  normalizeBlock(dto.TechnologyBlock),
		RequestType:      strings.TrimSpace(dto.RequestType),
		Priority:         strings.TrimSpace(dto.Priority),
		RequestDate:      requestDate,
		ElapsedDays:      dto.ElapsedDays,
		CompliesSLA1:     dto.CompliesSLA1,
		CompliesSLA2:     dto.CompliesSLA2,
		PctCompletedSLA1: dto.PctCompletedSLA1,
		PctCompletedSLA2: dto.PctCompletedSLA2,
		Status:           MapStatus(dto.Status),
		ThresholdDays:    dto.ThresholdDays,
	}

	if dto.EntryDate != nil && *dto.EntryDate != "" {
		if entry, err := ParseDate(*dto.EntryDate); err == nil {
			r.EntryDate = &entry
		} else {
			log.Debug().Str("id", dto.ID).Str("entry_date", *dto.EntryDate).Msg("Ignoring invalid entry date")
		}
	}

	if r.ElapsedDays < 0 {
		log.Debug().Str("id", dto.ID).Int("elapsed_days", r.ElapsedDays).Msg("Negative elapsed days reported")
	}

	return r, true
}

// MapRequests converts a listing, dropping records that cannot be mapped.
func MapRequests(dtos []RequestDTO) []stats.Request {
	out := make([]stats.Request, 0, len(dtos))
	for _, dto := range dtos {
		if r, ok := MapRequest(dto); ok {
			out = append(out, r)
		}
	}
	return out
}

// MapCatalog converts the configuration listing into a catalog keyed by code.
func MapCatalog(dtos []SLAConfigDTO) stats.Catalog {
	catalog := make(stats.Catalog, len(dtos))
	for _, d := range dtos {
		code := strings.ToUpper(strings.TrimSpace(d.Code))
		if code == "" {
			continue
		}
		catalog[code] = stats.SLAConfig{
			Code:          code,
			ThresholdDays: d.ThresholdDays,
			Description:   d.Description,
		}
	}
	return catalog
}

// MapStatus normalises the status labels the API has used over time.
// Unknown labels map to the empty status so it is derived from the flags.
func MapStatus(s string) stats.Status {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "complies", "compliant", "ok":
		return stats.StatusComplies
	case "doesnotcomply", "noncompliant", "breached":
		return stats.StatusDoesNotComply
	case "pending", "open":
		return stats.StatusPending
	case "escalated":
		return stats.StatusEscalated
	case "atrisk", "warning":
		return stats.StatusAtRisk
	}
	return ""
}

func normalizeBlock(b *string) *string {
	if b == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*b)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package reports

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/buensabor/buensabor-web/internal/domain"
	"github.com/buensabor/buensabor-web/internal/shared"
)

const (
	dateLayout = "2006-01-02"
	// DefaultDays is the range shown when no dates are given.
	DefaultDays = 30
	// MaxDays bounds a single query.
	MaxDays = 366
	// RankingLimit is the number of rows in each ranking.
	RankingLimit = 10
)

// ParseRange reads start_date and end_date. Missing values default to the
// last DefaultDays days ending today.
func ParseRange(q url.Values, now time.Time) (domain.DateRange, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	rng := domain.DateRange{Start: today.AddDate(0, 0, -(DefaultDays - 1)), End: today}

	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return rng, shared.NewValidationError("end_date", "La fecha de fin no es válida.")
		}
		rng.End = end
		rng.Start = end.AddDate(0, 0, -(DefaultDays - 1))
	}
	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return rng, shared.NewValidationError("start_date", "La fecha de inicio no es válida.")
		}
		rng.Start = start
	}
	if rng.Start.After(rng.End) {
		return rng, shared.NewValidationError("start_date", "La fecha de inicio debe ser anterior a la de fin.")
	}
	if rng.Days() > MaxDays {
		return rng, shared.NewValidationError("end_date", fmt.Sprintf("El rango no puede superar %d días.", MaxDays))
	}
	return rng, nil
}

// RangeQuery encodes rng back into query parameters.
func RangeQuery(rng domain.DateRange) string {
	return url.Values{
		"start_date": {rng.Start.Format(dateLayout)},
		"end_date":   {rng.End.Format(dateLayout)},
	}.Encode()
}

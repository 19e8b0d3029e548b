package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const periodoFormat = "2006-01-02"

// defaultPeriodDays is the reporting window applied when the request does
// not pin an explicit period.
const defaultPeriodDays = 30

// parsePeriod reads the periodo_inicio / periodo_fim query parameters.
// Missing values default to the last 30 days ending today (UTC).
func parsePeriod(c fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	fim := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	inicio := fim.AddDate(0, 0, -defaultPeriodDays)

	if raw := c.Query("periodo_inicio"); raw != "" {
		parsed, err := time.Parse(periodoFormat, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		inicio = parsed
	}
	if raw := c.Query("periodo_fim"); raw != "" {
		parsed, err := time.Parse(periodoFormat, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		fim = parsed
	}
	return inicio, fim, nil
}

// parseUUIDParam parses a UUID path parameter, returning uuid.Nil on
// malformed input.
func parseUUIDParam(c fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page/per query parameters with the same bounds the
// rest of the API uses: page >= 1, 1 <= per <= 100.
func parsePagination(c fiber.Ctx) (page, per, offset int) {
	page = max(fiber.Query[int](c, "page", 1), 1)
	per = min(max(fiber.Query[int](c, "per", 50), 1), 100)
	return page, per, (page - 1) * per
}

// inClause numbers placeholders from start and pairs them with the ids as
// query arguments.
func inClause(start int, ids []uuid.UUID) (string, []interface{}) {
	parts := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(parts, ", "), args
}

func buildPaginationMeta(page, per int, total int64) PaginationMeta {
	var totalPages int
	if total > 0 && per > 0 {
		totalPages = int((total + int64(per) - 1) / int64(per))
	}
	return PaginationMeta{
		Page:       page,
		Per:        per,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByCreated    = "created_at"
	orderByValue      = "estimated_value"
	orderByConfidence = "confidence"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByCreated:    "created_at DESC",
	orderByValue:      "estimated_value DESC",
	orderByConfidence: "confidence_score DESC",
}

const defaultOrderBy = "created_at DESC"

const baseValuationsSelect = `SELECT id, vin, make, model, year, mileage, condition, zip_code,
	COALESCE(user_id, ''), estimated_value, price_low, price_high,
	confidence_score, valuation_method,
	base_value, base_source, base_confidence,
	adjustments, market_insights, confidence_breakdown,
	COALESCE(data_sources, '{}'), COALESCE(processing_time_ms, 0), created_at
FROM valuations`

const countValuationsSelect = "SELECT COUNT(*) FROM valuations"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a valuation
// query. It returns two SQL strings (one for the data query, one for the
// count query) and the positional parameters.
func (q *ValuationQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.VIN != nil {
		conditions = append(conditions, fmt.Sprintf("vin = $%d", paramIdx))
		args = append(args, *q.VIN)
		paramIdx++
	}

	if q.Make != nil {
		conditions = append(conditions, fmt.Sprintf("make ILIKE $%d", paramIdx))
		args = append(args, *q.Make)
		paramIdx++
	}

	if q.Model != nil {
		conditions = append(conditions, fmt.Sprintf("model ILIKE $%d", paramIdx))
		args = append(args, *q.Model)
		paramIdx++
	}

	if q.Year != nil {
		conditions = append(conditions, fmt.Sprintf("year = $%d", paramIdx))
		args = append(args, *q.Year)
		paramIdx++
	}

	if q.Method != nil {
		conditions = append(conditions, fmt.Sprintf("valuation_method = $%d", paramIdx))
		args = append(args, *q.Method)
		paramIdx++
	}

	if q.MinConfidence != nil {
		conditions = append(conditions, fmt.Sprintf("confidence_score >= $%d", paramIdx))
		args = append(args, *q.MinConfidence)
		paramIdx++
	}

	if q.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", paramIdx))
		args = append(args, *q.UserID)
		paramIdx++
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", paramIdx))
		args = append(args, *q.Since)
		paramIdx++
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by
	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	// Limit
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseValuationsSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countValuationsSelect + whereClause

	return dataSQL, countSQL, args
}

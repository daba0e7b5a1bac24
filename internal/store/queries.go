package store

// SQL statements used by PostgresStore. Named parameters bind via
// pgx.NamedArgs.

const queryInsertValuation = `
INSERT INTO valuations (
	id, vin, make, model, year, mileage, condition, zip_code, user_id,
	estimated_value, price_low, price_high, confidence_score, valuation_method,
	base_value, base_source, base_confidence,
	adjustments, market_insights, confidence_breakdown,
	data_sources, processing_time_ms, created_at
) VALUES (
	@id, @vin, @make, @model, @year, @mileage, @condition, @zip_code, @user_id,
	@estimated_value, @price_low, @price_high, @confidence_score, @valuation_method,
	@base_value, @base_source, @base_confidence,
	@adjustments, @market_insights, @confidence_breakdown,
	@data_sources, @processing_time_ms, @created_at
)`

const queryGetValuation = baseValuationsSelect + `
WHERE id = $1`

const queryVINHistory = baseValuationsSelect + `
WHERE vin = $1
ORDER BY created_at DESC
LIMIT $2`

const queryValuationStats = `
SELECT COUNT(*),
	COALESCE(AVG(estimated_value), 0),
	COALESCE(AVG(confidence_score), 0),
	COUNT(DISTINCT vin)
FROM valuations`

const queryDeleteValuationsBefore = `
DELETE FROM valuations WHERE created_at < $1`

package postgres

import (
	"cbrrates/internal/domain"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RecordRepository struct {
	pool *pgxpool.Pool
}

// SaveRecords upserts records on (digital_code, date). The first record of a duplicated key wins.
func (r *RecordRepository) SaveRecords(ctx context.Context, records []domain.CurrencyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	seen := make(map[string]struct{}, len(records))
	payload := make([]domain.CurrencyRecord, 0, len(records))
	for _, rec := range records {
		key := rec.DigitalCode + "|" + rec.Date
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		payload = append(payload, rec)
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal currency records: %w", err)
	}

	const q = `
		with

		-- step 1: parsing input
		input_rows as (
			select * from json_to_recordset($1::json) as r(
				digital_code text, letter_code text, units int, currency_name text,
				exchange_rate numeric, "date" text, "timestamp" timestamptz, source text
			)
		)

		-- step 2: insert new rates, refresh the ones already archived
		insert into currency_rates(digital_code, letter_code, units, currency_name, exchange_rate, rate_date, captured_at, source)
		select ir.digital_code, ir.letter_code, ir.units, ir.currency_name, ir.exchange_rate,
		       to_date(ir."date", 'DD.MM.YYYY'), ir."timestamp", ir.source
		from input_rows ir
		on conflict (digital_code, rate_date) do update
		  set letter_code = excluded.letter_code,
		      units = excluded.units,
		      currency_name = excluded.currency_name,
		      exchange_rate = excluded.exchange_rate,
		      captured_at = excluded.captured_at,
		      source = excluded.source;
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, q, json.RawMessage(payloadJSON))
	if err != nil {
		return 0, fmt.Errorf("failed to execute query: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// RecordsByDate returns archived records of a DD.MM.YYYY date in insertion order.
func (r *RecordRepository) RecordsByDate(ctx context.Context, date string) ([]domain.CurrencyRecord, error) {
	const q = `
		select digital_code, letter_code, units, currency_name, exchange_rate::float8,
		       to_char(rate_date, 'DD.MM.YYYY'), captured_at, source
		from currency_rates
		where rate_date = to_date($1, 'DD.MM.YYYY')
		order by id;
	`

	rows, err := r.pool.Query(ctx, q, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for %q: %w", date, err)
	}
	defer rows.Close()

	records := make([]domain.CurrencyRecord, 0, 64)
	for rows.Next() {
		var rec domain.CurrencyRecord
		if err = rows.Scan(
			&rec.DigitalCode,
			&rec.LetterCode,
			&rec.Units,
			&rec.CurrencyName,
			&rec.ExchangeRate,
			&rec.Date,
			&rec.Timestamp,
			&rec.Source,
		); err != nil {
			return nil, fmt.Errorf("failed to scan currency rate: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating currency rates: %w", err)
	}
	return records, nil
}

func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

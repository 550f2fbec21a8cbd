package adapters

import (
	"cbrrates/internal/domain"
	"context"
)

type PageFetcher interface {
	FetchPage(ctx context.Context, date string) (string, error)
}

type RecordsSender interface {
	SendRecords(ctx context.Context, records []domain.CurrencyRecord) error
}

type RecordsArchive interface {
	SaveRecords(ctx context.Context, records []domain.CurrencyRecord) (int, error)
	RecordsByDate(ctx context.Context, date string) ([]domain.CurrencyRecord, error)
}

type SpreadsheetWriter interface {
	Write(path string, header []string, rows [][]any) error
}

type RecordsCache interface {
	Get(date string) ([]domain.CurrencyRecord, bool)
	Set(date string, records []domain.CurrencyRecord)
}

type PipelineMetrics interface {
	ObserveAttempt(outcome string)
	ObserveDate(status domain.DateStatus, records int)
	ObserveSink(sink string, ok bool)
}

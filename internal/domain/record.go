package domain

import "time"

// SourceCBR is the provenance tag stamped on every record built from cbr.ru pages.
const SourceCBR = "cbr.ru"

// DateLayout is the DD.MM.YYYY layout used by the source and by record dates.
const DateLayout = "02.01.2006"

type CurrencyRecord struct {
	DigitalCode  string    `json:"digital_code"`
	LetterCode   string    `json:"letter_code"`
	Units        int       `json:"units"`
	CurrencyName string    `json:"currency_name"`
	ExchangeRate float64   `json:"exchange_rate"`
	Date         string    `json:"date"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
}

// RecordFields lists record field names in column order
var RecordFields = []string{
	"digital_code",
	"letter_code",
	"units",
	"currency_name",
	"exchange_rate",
	"date",
	"timestamp",
	"source",
}

// RawRow is one table row as extracted from the page, columns already trimmed
type RawRow struct {
	DigitalCode  string
	LetterCode   string
	Units        string
	CurrencyName string
	RateText     string
}

// RateChange is a record paired with its previous rate. Nil pointers mean no previous data.
type RateChange struct {
	CurrencyRecord
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"change_percent"`
	PreviousRate  *float64 `json:"previous_rate"`
}

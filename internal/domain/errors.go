package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransport         = errors.New("transport error")
	ErrNonSuccessStatus  = errors.New("non-success status")
	ErrParseAnomaly      = errors.New("page structure anomaly")
	ErrTableNotFound     = fmt.Errorf("%w: rates table not found", ErrParseAnomaly)
	ErrTableBodyNotFound = fmt.Errorf("%w: rates table body not found", ErrParseAnomaly)
	ErrFieldParse        = errors.New("field parse error")
	ErrInvalidDate       = errors.New("invalid date")
	ErrNoRecords         = errors.New("no records")
	ErrRateNotFound      = errors.New("rate not found")
	ErrSinkFailure       = errors.New("sink failure")
)

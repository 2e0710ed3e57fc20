package exception

import "github.com/yanun0323/errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrRunCancelled    = errors.New("run cancelled")
	ErrSummaryMismatch = errors.New("journal summary mismatch")
)

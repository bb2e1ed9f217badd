package usecase

import (
	"context"

	"CrashLens/pkg/queue"
)

// ScanJobType is the queue message type for asynchronous watchlist scans.
const ScanJobType = "scan.request"

// ScanJobPayload carries the symbols to scan; empty means the watchlist.
type ScanJobPayload struct {
	Symbols []string `json:"symbols"`
}

// ScanJob processes queued scan requests in the background.
type ScanJob struct {
	scanner *ScannerUseCase
}

func NewScanJob(scanner *ScannerUseCase) *ScanJob {
	return &ScanJob{scanner: scanner}
}

func (j *ScanJob) Name() string { return "watchlist-scan" }
func (j *ScanJob) Type() string { return ScanJobType }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ScanJobPayload](payload)
	if err != nil {
		return err
	}
	j.scanner.Scan(ctx, p.Symbols)
	return nil
}

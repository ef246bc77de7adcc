package chainscan

import "context"

// ScannerInterface defines the methods required from the chain scanner
type ScannerInterface interface {
	Scan(ctx context.Context, address, chain string) ([]Reward, error)
}

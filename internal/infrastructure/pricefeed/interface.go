package pricefeed

import "context"

// ClientInterface defines the methods required from the price feed client
type ClientInterface interface {
	PriceGBP(ctx context.Context, symbol string) (float64, error)
}

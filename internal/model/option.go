package model

import "time"

// Direction is the directional bias of an options trade.
type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// OptionContract is a read-only quote for a single contract on one expiry.
type OptionContract struct {
	ContractSymbol    string
	Strike            float64
	Expiry            time.Time
	Bid               float64
	Ask               float64
	LastPrice         float64
	ImpliedVolatility float64
	Volume            float64
}

// StrikeSelection holds the three recommended contracts for a direction.
// Direction is carried explicitly here; it is never re-derived from the
// contract symbol.
type StrikeSelection struct {
	Direction Direction
	ITM       OptionContract // conservative
	ATM       OptionContract // balanced
	OTM       OptionContract // aggressive
}

// RiskBucket classifies an expiry by days-to-expiry. Informational only.
type RiskBucket string

const (
	RiskHigh       RiskBucket = "HIGH"        // < 7 days
	RiskMediumHigh RiskBucket = "MEDIUM_HIGH" // 7-29 days
	RiskBalanced   RiskBucket = "BALANCED"    // 30-60 days
	RiskLow        RiskBucket = "LOW"         // > 60 days
)

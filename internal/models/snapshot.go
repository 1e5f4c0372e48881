package models

import "time"

// VenueSnapshot - нормализованные котировки одной биржи на момент тика
//
// Все цены могут отсутствовать (0 + Ok=false) при сбое запроса
type VenueSnapshot struct {
	Exchange        string    `json:"exchange"`
	Bid             float64   `json:"bid"`
	Ask             float64   `json:"ask"`
	MarkPrice       float64   `json:"mark_price"`
	FundingRate     float64   `json:"funding_rate"`
	NextFundingTime time.Time `json:"next_funding_time"`
	MaxOrderSize    float64   `json:"max_order_size"`
	Ok              bool      `json:"ok"`        // bid/ask пригодны для расчётов
	Simulated       bool      `json:"simulated"` // данные сгенерированы, не с биржи
	Timestamp       time.Time `json:"timestamp"`
}

// Usable сообщает, пригодны ли котировки для торговых решений
func (vs *VenueSnapshot) Usable() bool {
	return vs != nil && vs.Ok && !vs.Simulated && vs.Bid > 0 && vs.Ask > 0
}

// SnapshotPair - котировки обеих бирж для одного тика
type SnapshotPair struct {
	Venue1 *VenueSnapshot `json:"venue_1"`
	Venue2 *VenueSnapshot `json:"venue_2"`

	// RealMarket = true только когда обе биржи вернули живые bid/ask.
	// Торговые решения принимаются ТОЛЬКО при RealMarket=true
	RealMarket bool `json:"real_market"`
}

// SpreadSample - спреды, рассчитанные строго из текущей пары снапшотов
type SpreadSample struct {
	OpenSpread  float64 `json:"open_spread"`  // (bid2-ask1)/ask1*100
	CloseSpread float64 `json:"close_spread"` // (bid1-ask2)/ask2*100
	RealSpread  float64 `json:"real_spread"`  // open при LONG, close при SHORT (только график)
}

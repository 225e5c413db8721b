package service

import "sync"

// PriceMemory keeps the last observed price per symbol for the lifetime of
// the process.
type PriceMemory struct {
	mu   sync.Mutex
	last map[string]float64
}

func NewPriceMemory() *PriceMemory {
	return &PriceMemory{last: make(map[string]float64)}
}

// DiffPct records price and returns its percent change against the previous
// observation of symbol. The first observation, and any non-positive price,
// yields 0. Non-positive prices are not recorded.
func (m *PriceMemory) DiffPct(symbol string, price float64) float64 {
	if price <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.last[symbol]
	m.last[symbol] = price
	if !ok || old <= 0 {
		return 0
	}
	return (price - old) / old * 100
}

// Last returns the stored price for symbol.
func (m *PriceMemory) Last(symbol string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.last[symbol]
	return p, ok
}

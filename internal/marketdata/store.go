package marketdata

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// Store 进程内行情存储：最优买卖价、预言机价格与有效性、时钟值。
// 写入来自外部行情源，读取发生在填单周期内，需要自身加锁。
type Store struct {
	mu     sync.RWMutex
	quotes map[domain.MarketIndex]quote
	slot   atomic.Uint64
}

type quote struct {
	bestBid     decimal.Decimal
	bestAsk     decimal.Decimal
	oracle      decimal.Decimal
	oracleValid bool
}

// NewStore 创建空行情存储
func NewStore() *Store {
	return &Store{quotes: make(map[domain.MarketIndex]quote)}
}

// SetQuote 更新市场最优买卖价
func (s *Store) SetQuote(market domain.MarketIndex, bestBid, bestAsk decimal.Decimal) {
	s.mu.Lock()
	q := s.quotes[market]
	q.bestBid, q.bestAsk = bestBid, bestAsk
	s.quotes[market] = q
	s.mu.Unlock()
}

// SetOracle 更新预言机价格与有效性
func (s *Store) SetOracle(market domain.MarketIndex, price decimal.Decimal, valid bool) {
	s.mu.Lock()
	q := s.quotes[market]
	q.oracle, q.oracleValid = price, valid
	s.quotes[market] = q
	s.mu.Unlock()
}

// AdvanceSlot 推进时钟值
func (s *Store) AdvanceSlot(slot uint64) {
	s.slot.Store(slot)
}

// Slot 当前时钟值
func (s *Store) Slot() uint64 { return s.slot.Load() }

// BestBid 市场最优买价
func (s *Store) BestBid(market domain.MarketIndex) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[market].bestBid
}

// BestAsk 市场最优卖价
func (s *Store) BestAsk(market domain.MarketIndex) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[market].bestAsk
}

// IsOracleValid 预言机价格当前是否可信
func (s *Store) IsOracleValid(market domain.MarketIndex, _ uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[market].oracleValid
}

// OraclePrice 预言机价格
func (s *Store) OraclePrice(market domain.MarketIndex) decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quotes[market].oracle
}

// IsFillableByAMM 无显式 maker 时，自动对手方能否成交：
// 要求预言机可信且买卖价都在（自动对手方的报价基准齐备）
func (s *Store) IsFillableByAMM(c *domain.FillCandidate, _ uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := s.quotes[c.Market]
	return q.oracleValid && !q.bestBid.IsZero() && !q.bestAsk.IsZero()
}

package orderbook

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

func TestBook_InsertFindRemove(t *testing.T) {
	b := NewBook()
	b.InsertOrder(domain.PendingOrder{Market: 1, Account: "acc-1", Order: 1})
	b.InsertOrder(domain.PendingOrder{Market: 1, Account: "acc-2", Order: 2})

	oracle := decimal.NewFromInt(100)
	nodes := b.FindNodesToFill(1, decimal.NewFromInt(99), decimal.NewFromInt(101), 42, &oracle)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(nodes))
	}

	removed := false
	b.RemoveOrder(1, "acc-1", func() { removed = true })
	if !removed {
		t.Fatalf("onRemoved callback not invoked")
	}

	nodes = b.FindNodesToFill(1, decimal.NewFromInt(99), decimal.NewFromInt(101), 42, &oracle)
	if len(nodes) != 1 || nodes[0].Account != "acc-2" {
		t.Fatalf("unexpected candidates after removal: %v", nodes)
	}
}

func TestBook_NoOracleNoCandidates(t *testing.T) {
	b := NewBook()
	b.InsertOrder(domain.PendingOrder{Market: 1, Account: "acc-1", Order: 1})

	// 预言机价格缺席：没有可信的成交基准，不产出候选
	nodes := b.FindNodesToFill(1, decimal.NewFromInt(99), decimal.NewFromInt(101), 42, nil)
	if len(nodes) != 0 {
		t.Fatalf("expected no candidates without oracle, got %d", len(nodes))
	}
}

func TestBook_MarkFilledRoundTrip(t *testing.T) {
	b := NewBook()
	b.InsertOrder(domain.PendingOrder{Market: 1, Account: "acc-1", Order: 1})

	oracle := decimal.NewFromInt(100)
	nodes := b.FindNodesToFill(1, decimal.Zero, decimal.Zero, 42, &oracle)
	if len(nodes) != 1 || nodes[0].Filled {
		t.Fatalf("fresh order must not be filled")
	}

	b.MarkFilled(nodes[0])
	nodes = b.FindNodesToFill(1, decimal.Zero, decimal.Zero, 42, &oracle)
	if !nodes[0].Filled {
		t.Fatalf("filled flag must survive snapshot rebuild")
	}

	b.MarkUnfilled(nodes[0])
	nodes = b.FindNodesToFill(1, decimal.Zero, decimal.Zero, 42, &oracle)
	if nodes[0].Filled {
		t.Fatalf("unfilled flag must survive snapshot rebuild")
	}
}

func TestBook_Snapshot(t *testing.T) {
	b := NewBook()
	b.InsertOrder(domain.PendingOrder{Market: 1, Account: "acc-1", Order: 1})
	b.InsertOrder(domain.PendingOrder{Market: 2, Account: "acc-2", Order: 2})
	b.InsertOrder(domain.PendingOrder{Market: 2, Account: "acc-3", Order: 3})

	snap := b.Snapshot()
	if snap.TotalOrders != 3 {
		t.Fatalf("total = %d, want 3", snap.TotalOrders)
	}
	if snap.OrdersPerMarket[2] != 2 {
		t.Fatalf("market 2 = %d, want 2", snap.OrdersPerMarket[2])
	}
}

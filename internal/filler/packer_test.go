package filler

import (
	"fmt"
	"testing"
	"testing/quick"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

func testPreamble() *domain.Operation {
	return &domain.Operation{
		Program: "compute-budget",
		Data:    make([]byte, 5),
	}
}

func testCandidate(i int) *domain.FillCandidate {
	return &domain.FillCandidate{
		Market:  1,
		Account: domain.AccountRef(fmt.Sprintf("acc-%d", i)),
		Order:   domain.OrderID(i),
	}
}

func TestShortvecLen(t *testing.T) {
	cases := []struct {
		n    int
		want int
	}{
		{0, 1}, {1, 1}, {127, 1},
		{128, 2}, {16383, 2},
		{16384, 3}, {100000, 3},
	}
	for _, c := range cases {
		if got := shortvecLen(c.n); got != c.want {
			t.Fatalf("shortvecLen(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestOperationSize_EmptyPayloadStillCostsPrefix(t *testing.T) {
	op := &domain.Operation{Program: "p"}
	// 1 程序索引 + 1 账户表前缀 + 1 负载前缀
	if got := OperationSize(op); got != 3 {
		t.Fatalf("empty op size = %d, want 3", got)
	}
}

func TestPendingBatch_SeedsEnvelopeAndPreamble(t *testing.T) {
	b := NewPendingBatch(DefaultMaxBatchBytes, "authority", testPreamble())

	// 信封 106 + 提交者引用 32 + 前导操作 8 + 前导程序引用 32
	want := 106 + 32 + 8 + 32
	if b.Size() != want {
		t.Fatalf("seeded size = %d, want %d", b.Size(), want)
	}
	if !b.Empty() {
		t.Fatalf("expected empty batch")
	}
}

func TestPendingBatch_DeduplicatesKnownReferences(t *testing.T) {
	b := NewPendingBatch(DefaultMaxBatchBytes, "authority", testPreamble())
	base := b.Size()

	// 只引用已预置的提交者身份：不产生边际头开销
	op := &domain.Operation{
		Program:  "compute-budget",
		Accounts: []domain.AccountRef{"authority"},
		Data:     []byte{1, 2, 3},
	}
	if !b.TryAdd(testCandidate(1), op) {
		t.Fatalf("expected accept")
	}
	if got := b.Size() - base; got != OperationSize(op) {
		t.Fatalf("marginal size = %d, want pure op size %d", got, OperationSize(op))
	}
}

func TestPendingBatch_GreedyHaltNoBacktracking(t *testing.T) {
	preamble := testPreamble()
	// base = 178；第一个操作 14 字节 + 64 新引用 => 256
	b := NewPendingBatch(300, "authority", preamble)

	op1 := &domain.Operation{Program: "prog", Accounts: []domain.AccountRef{"acc-1"}, Data: make([]byte, 10)}
	if !b.TryAdd(testCandidate(1), op1) {
		t.Fatalf("op1 should fit")
	}
	if b.Size() != 256 {
		t.Fatalf("size after op1 = %d, want 256", b.Size())
	}

	// op2 需要 14 + 32 = 46 => 302 >= 300，拒绝并停止
	op2 := &domain.Operation{Program: "prog", Accounts: []domain.AccountRef{"acc-2"}, Data: make([]byte, 10)}
	if b.TryAdd(testCandidate(2), op2) {
		t.Fatalf("op2 should not fit")
	}

	// op3 更小、本可以放下（293 < 300），但贪心停止后绝不回头
	op3 := &domain.Operation{Program: "prog", Accounts: []domain.AccountRef{"acc-3"}, Data: make([]byte, 1)}
	if b.TryAdd(testCandidate(3), op3) {
		t.Fatalf("packer must not accept a later smaller candidate after halting")
	}

	if len(b.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(b.Entries()))
	}
}

// 属性：任何输入序列下，接受任一候选之后的运行字节数都严格小于预算
func TestPendingBatch_NeverExceedsBudget(t *testing.T) {
	property := func(dataLens []uint16, extra uint16) bool {
		maxBytes := 200 + int(extra%1800)
		b := NewPendingBatch(maxBytes, "authority", testPreamble())

		for i, dl := range dataLens {
			op := &domain.Operation{
				Program:  "prog",
				Accounts: []domain.AccountRef{domain.AccountRef(fmt.Sprintf("acc-%d", i))},
				Data:     make([]byte, int(dl%600)),
			}
			if !b.TryAdd(testCandidate(i), op) {
				break
			}
			if b.Size() >= maxBytes {
				return false
			}
		}
		return true
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 200}); err != nil {
		t.Fatal(err)
	}
}

func TestPendingBatch_AcceptsMaximalPrefixInOrder(t *testing.T) {
	b := NewPendingBatch(1000, "authority", testPreamble())

	var accepted int
	for i := 0; i < 50; i++ {
		op := &domain.Operation{
			Program:  "prog",
			Accounts: []domain.AccountRef{domain.AccountRef(fmt.Sprintf("acc-%d", i))},
			Data:     make([]byte, 20),
		}
		if !b.TryAdd(testCandidate(i), op) {
			break
		}
		accepted++
	}

	// 接受的必须恰好是输入顺序上的前缀
	entries := b.Entries()
	if len(entries) != accepted {
		t.Fatalf("entries = %d, accepted = %d", len(entries), accepted)
	}
	for i, e := range entries {
		if e.Candidate.Order != domain.OrderID(i) {
			t.Fatalf("entry %d is candidate %d, packing must preserve input order", i, e.Candidate.Order)
		}
	}
	if accepted == 0 || accepted == 50 {
		t.Fatalf("test should exercise the budget boundary, accepted=%d", accepted)
	}
}

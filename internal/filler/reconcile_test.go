package filler

import (
	"strings"
	"testing"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

func TestClassifyResultLog_AttributesOutcomesByPackingOrder(t *testing.T) {
	opaque := strings.Repeat("x", 60)
	lines := []string{
		"Program log: Instruction: FillOrder",
		"Order does not exist",
		"Program log: Instruction: FillOrder",
		"Amm cant fulfill order",
		"Program log: Instruction: FillOrder",
		opaque,
	}

	kinds := ClassifyResultLog(lines, 3)
	want := []domain.OutcomeKind{
		domain.OutcomeStaleOrder,
		domain.OutcomeCounterpartyRejected,
		domain.OutcomeSucceeded,
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("candidate %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestClassifyResultLog_UnknownLineIsUnparsed(t *testing.T) {
	lines := []string{
		"Program log: Instruction: FillOrder",
		"short noise",
		"Program log: Instruction: FillOrder",
		strings.Repeat("y", 50),
	}
	kinds := ClassifyResultLog(lines, 2)
	if kinds[0] != domain.OutcomeUnparsed {
		t.Fatalf("short ambiguous line must stay unparsed, got %s", kinds[0])
	}
	// 解析歧义不阻断后续行
	if kinds[1] != domain.OutcomeSucceeded {
		t.Fatalf("subsequent entry must still be classified, got %s", kinds[1])
	}
}

func TestClassifyResultLog_MissingOutcomeLineStaysUnparsed(t *testing.T) {
	lines := []string{
		"Program log: Instruction: FillOrder",
		"Program log: Instruction: FillOrder",
		"Order does not exist",
	}
	kinds := ClassifyResultLog(lines, 2)
	if kinds[0] != domain.OutcomeUnparsed {
		t.Fatalf("marker without outcome line must stay unparsed, got %s", kinds[0])
	}
	if kinds[1] != domain.OutcomeStaleOrder {
		t.Fatalf("second entry misattributed: %s", kinds[1])
	}
}

func TestClassifyResultLog_ExtraMarkersBeyondBatchIgnored(t *testing.T) {
	lines := []string{
		"Program log: Instruction: FillOrder",
		strings.Repeat("z", 55),
		"Program log: Instruction: FillOrder",
		"Order does not exist",
	}
	kinds := ClassifyResultLog(lines, 1)
	if len(kinds) != 1 || kinds[0] != domain.OutcomeSucceeded {
		t.Fatalf("markers past the batch length must be ignored: %v", kinds)
	}
}

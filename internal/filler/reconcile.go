package filler

import (
	"strings"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

// 结果日志文法：fillMarker 行宣告下一个操作结果的开始（按提交顺序推进索引），
// 其后恰好一行按子串匹配归类。
const (
	fillMarker = "Instruction: FillOrder"

	staleOrderPattern = "does not exist"
	// rejectPattern 自动对手方拒绝的两种线上拼写：
	// "Amm cant fulfill order" 与 "cannot fulfill"
	rejectPatternShort = "cant fulfill"
	rejectPatternLong  = "cannot fulfill"

	// minSuccessLineLen 足够长的不透明行视为成功回执
	minSuccessLineLen = 50
)

// ClassifyResultLog 按打包顺序走一遍结构化结果日志，为 count 个条目各归类一个结局。
// 未匹配到任何模式的条目保持 Unparsed（记录日志、不改状态、不阻断后续行）。
func ClassifyResultLog(lines []string, count int) []domain.OutcomeKind {
	kinds := make([]domain.OutcomeKind, count)
	for i := range kinds {
		kinds[i] = domain.OutcomeUnparsed
	}

	idx := -1
	expectOutcome := false
	for _, line := range lines {
		if strings.Contains(line, fillMarker) {
			idx++
			expectOutcome = true
			continue
		}
		if !expectOutcome || idx < 0 || idx >= count {
			continue
		}
		kinds[idx] = classifyLine(line)
		expectOutcome = false
	}
	return kinds
}

func classifyLine(line string) domain.OutcomeKind {
	switch {
	case strings.Contains(line, staleOrderPattern):
		return domain.OutcomeStaleOrder
	case strings.Contains(line, rejectPatternShort), strings.Contains(line, rejectPatternLong):
		return domain.OutcomeCounterpartyRejected
	case len(line) >= minSuccessLineLen:
		return domain.OutcomeSucceeded
	default:
		return domain.OutcomeUnparsed
	}
}

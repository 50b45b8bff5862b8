package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

func TestJournal_RecordAndTail(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	base := time.Now()
	require.NoError(t, j.RecordOutcome("c1", "acc-1-1", domain.OutcomeSucceeded, base))
	require.NoError(t, j.RecordOutcome("c1", "acc-2-2", domain.OutcomeStaleOrder, base.Add(time.Millisecond)))
	require.NoError(t, j.RecordOutcome("c2", "acc-3-3", domain.OutcomeCounterpartyRejected, base.Add(2*time.Millisecond)))

	entries, err := j.Tail(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// 新到旧
	assert.Equal(t, "acc-3-3", entries[0].Signature)
	assert.Equal(t, "counterparty_rejected", entries[0].Kind)
	assert.Equal(t, "acc-2-2", entries[1].Signature)
}

func TestJournal_TailOnEmpty(t *testing.T) {
	j, err := Open(t.TempDir())
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

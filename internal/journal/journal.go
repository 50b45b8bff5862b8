package journal

import (
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tomland123/keeper-bots-v2/internal/domain"
)

var log = logrus.WithField("component", "journal")

// Entry 一条结局流水
type Entry struct {
	CycleID   string             `json:"cycle_id"`
	Signature string             `json:"signature"`
	Kind      string             `json:"kind"`
	At        time.Time          `json:"at"`
	KindCode  domain.OutcomeKind `json:"kind_code"`
}

// Journal 基于 badger 的成交结局流水。纯观测用途：写失败只记日志，
// 不影响填单正确性。
type Journal struct {
	db *badger.DB
}

// Open 打开（或创建）流水库
func Open(dir string) (*Journal, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal at %s", dir)
	}
	return &Journal{db: db}, nil
}

// Close 关闭流水库
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordOutcome 追加一条结局记录，键按时间有序便于尾部扫描
func (j *Journal) RecordOutcome(cycleID, signature string, kind domain.OutcomeKind, at time.Time) error {
	entry := Entry{
		CycleID:   cycleID,
		Signature: signature,
		Kind:      kind.String(),
		KindCode:  kind,
		At:        at,
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshal journal entry")
	}

	key := fmt.Sprintf("outcome/%020d/%s/%s", at.UnixNano(), cycleID, signature)
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), val)
	})
}

// Tail 返回最近的 n 条结局记录（新到旧）
func (j *Journal) Tail(n int) ([]Entry, error) {
	out := make([]Entry, 0, n)
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// 反向迭代需要从前缀区间的上界开始
		seek := []byte("outcome/\xff")
		prefix := []byte("outcome/")
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < n; it.Next() {
			var entry Entry
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				log.WithError(err).Debug("skipping unreadable journal entry")
				continue
			}
			out = append(out, entry)
		}
		return nil
	})
	return out, err
}

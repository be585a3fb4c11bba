package results

import (
	"context"
	"encoding/json"
	"time"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	keyPrefixIntent       = "intent:"
	keyPrefixSolution     = "solution:"
	keyPrefixFailed       = "failed:"
	keyPrefixRankingQueue = "ranking:queue:"
	keyRankingQueueIdSeq  = "id_counter_ranking_queue"
)

// envelope wraps every TTL-bound value. Reads treat expired entries as
// absent; the sweeper deletes them lazily.
type envelope struct {
	ExpiresAt int64           `json:"expiresAt"`
	Payload   json.RawMessage `json:"payload"`
}

type LevelDBStore struct {
	db  *leveldb.DB
	ttl time.Duration

	// Overridable for TTL tests
	now func() time.Time
}

var _ Store = (*LevelDBStore)(nil)

func NewLevelDBStore(path string, ttl time.Duration) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return NewLevelDBStoreWithDB(db, ttl), nil
}

func NewLevelDBStoreWithDB(db *leveldb.DB, ttl time.Duration) *LevelDBStore {
	return &LevelDBStore{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

func (s *LevelDBStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *LevelDBStore) StoreIntent(ctx context.Context, intentID string, intent types.Intent) error {
	return s.putWithTTL(intentKey(intentID), intent)
}

func (s *LevelDBStore) Intent(ctx context.Context, intentID string) (types.Intent, bool, error) {
	var intent types.Intent
	found, err := s.getLive(intentKey(intentID), &intent)
	return intent, found, err
}

func (s *LevelDBStore) StoreSolutionResult(ctx context.Context, intentID, solutionID string, record PassedRecord) error {
	return s.putWithTTL(solutionKey(intentID, solutionID), record)
}

func (s *LevelDBStore) SolutionResult(ctx context.Context, intentID, solutionID string) (PassedRecord, bool, error) {
	var record PassedRecord
	found, err := s.getLive(solutionKey(intentID, solutionID), &record)
	return record, found, err
}

func (s *LevelDBStore) StoreFailedSolution(ctx context.Context, intentID, solutionID string, record FailedRecord) error {
	return s.putWithTTL(failedKey(intentID, solutionID), record)
}

func (s *LevelDBStore) FailedSolution(ctx context.Context, intentID, solutionID string) (FailedRecord, bool, error) {
	var record FailedRecord
	found, err := s.getLive(failedKey(intentID, solutionID), &record)
	return record, found, err
}

// SendToRankingService appends the task to the durable outbound queue under a
// monotonically increasing binary key, so dequeue order matches append order.
func (s *LevelDBStore) SendToRankingService(ctx context.Context, task RankingTask) error {
	encoded, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return s.withTransaction(func(tx *leveldb.Transaction) error {
		id, err := nextQueueId(tx)
		if err != nil {
			return err
		}

		if err := tx.Put([]byte(keyRankingQueueIdSeq), id[:], nil); err != nil {
			return err
		}

		key := append([]byte(keyPrefixRankingQueue), id[:]...)
		return tx.Put(key, encoded, nil)
	})
}

func (s *LevelDBStore) DequeueRankingTasks(ctx context.Context, limit int) ([]RankingTask, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}

	var tasks []RankingTask
	err := s.withTransaction(func(tx *leveldb.Transaction) error {
		it := tx.NewIterator(util.BytesPrefix([]byte(keyPrefixRankingQueue)), nil)
		defer it.Release()

		for it.Next() && len(tasks) < limit {
			var task RankingTask
			if err := json.Unmarshal(it.Value(), &task); err != nil {
				return errors.Wrap(err, "failed to unmarshal ranking task")
			}

			key := make([]byte, len(it.Key()))
			copy(key, it.Key())
			if err := tx.Delete(key, nil); err != nil {
				return err
			}

			tasks = append(tasks, task)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (s *LevelDBStore) QueueDepth(ctx context.Context) (int, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefixRankingQueue)), nil)
	defer it.Release()

	count := 0
	for it.Next() {
		count++
	}

	return count, nil
}

// DropExpired deletes every TTL-bound entry whose expiry has passed and
// returns the number of keys removed. Queue entries carry no TTL.
func (s *LevelDBStore) DropExpired(ctx context.Context) (int, error) {
	dropped := 0
	for _, prefix := range []string{keyPrefixIntent, keyPrefixSolution, keyPrefixFailed} {
		n, err := s.dropExpiredPrefix(prefix)
		if err != nil {
			return dropped, err
		}

		dropped += n
	}

	return dropped, nil
}

func (s *LevelDBStore) dropExpiredPrefix(prefix string) (int, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	batch := new(leveldb.Batch)
	dropped := 0
	for it.Next() {
		var env envelope
		if err := json.Unmarshal(it.Value(), &env); err != nil {
			// An undecodable envelope can never be read back, drop it too
			batch.Delete(it.Key())
			dropped++
			continue
		}

		if s.now().UnixMilli() >= env.ExpiresAt {
			key := make([]byte, len(it.Key()))
			copy(key, it.Key())
			batch.Delete(key)
			dropped++
		}
	}

	if dropped == 0 {
		return 0, nil
	}

	return dropped, s.db.Write(batch, nil)
}

func (s *LevelDBStore) putWithTTL(key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(envelope{
		ExpiresAt: s.now().Add(s.ttl).UnixMilli(),
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return s.db.Put([]byte(key), encoded, nil)
}

func (s *LevelDBStore) getLive(key string, target any) (bool, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return false, errors.Wrap(err, "failed to unmarshal stored envelope")
	}

	if s.now().UnixMilli() >= env.ExpiresAt {
		return false, nil
	}

	if err := json.Unmarshal(env.Payload, target); err != nil {
		return false, err
	}

	return true, nil
}

func (s *LevelDBStore) withTransaction(f func(tx *leveldb.Transaction) error) error {
	tx, err := s.db.OpenTransaction()
	if err != nil {
		return err
	}

	defer tx.Discard()

	if err := f(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func nextQueueId(tx *leveldb.Transaction) ([16]byte, error) {
	var id [16]byte
	counterBytes, err := tx.Get([]byte(keyRankingQueueIdSeq), nil)
	if err == nil {
		if len(counterBytes) != 16 {
			return id, errors.Errorf("invalid counter length: %d", len(counterBytes))
		}

		id = [16]byte(counterBytes)
	} else if !errors.Is(err, leveldb.ErrNotFound) {
		return id, err
	}

	return nextKey(id), nil
}

func intentKey(intentID string) string {
	return keyPrefixIntent + intentID
}

func solutionKey(intentID, solutionID string) string {
	return keyPrefixSolution + intentID + ":" + solutionID
}

func failedKey(intentID, solutionID string) string {
	return keyPrefixFailed + intentID + ":" + solutionID
}

// nextKey increments the last byte that is not 255, zeroing everything after
// it, which keeps the byte ordering of successive keys strictly increasing.
func nextKey(currentKey [16]byte) [16]byte {
	var next [16]byte
	copy(next[:], currentKey[:])

	for i := len(next) - 1; i >= 0; i-- {
		if next[i] == 255 {
			for j := i; j < len(next); j++ {
				next[j] = 0
			}

			continue
		}

		next[i]++
		return next
	}

	return [16]byte{0}
}

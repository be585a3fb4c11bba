package state

import (
	"context"
	"encoding/json"

	"github.com/intenus/preranker/pkg/types"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type LevelDBStore struct {
	db *leveldb.DB
}

const keyPrefixEventCursor = "ledger:event:cursor:"

// Enforce interface constraints at compile time
var _ Store = (*LevelDBStore)(nil)

func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return &LevelDBStore{
		db: db,
	}, nil
}

// NewLevelDBStoreWithDB wraps an already-open handle, so the cursors can share
// a database with the result store.
func NewLevelDBStoreWithDB(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{
		db: db,
	}
}

func (s *LevelDBStore) Close(ctx context.Context) error {
	return s.db.Close()
}

// Cursor returns nil when the named stream has no persisted cursor yet,
// meaning the poller should consume it from the beginning.
func (s *LevelDBStore) Cursor(ctx context.Context, stream string) (*types.EventCursor, error) {
	value, err := s.db.Get([]byte(cursorKey(stream)), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	var cursor types.EventCursor
	if err := json.Unmarshal(value, &cursor); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal stored cursor")
	}

	return &cursor, nil
}

func (s *LevelDBStore) SetCursor(ctx context.Context, stream string, cursor types.EventCursor) error {
	encoded, err := json.Marshal(cursor)
	if err != nil {
		return err
	}

	return s.db.Put([]byte(cursorKey(stream)), encoded, nil)
}

// Cursors returns every persisted stream cursor keyed by stream name.
func (s *LevelDBStore) Cursors(ctx context.Context) (map[string]types.EventCursor, error) {
	cursors := make(map[string]types.EventCursor)

	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefixEventCursor)), nil)
	defer iter.Release()

	for iter.Next() {
		stream := string(iter.Key())[len(keyPrefixEventCursor):]

		var cursor types.EventCursor
		if err := json.Unmarshal(iter.Value(), &cursor); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal stored cursor for stream %s", stream)
		}

		cursors[stream] = cursor
	}

	return cursors, iter.Error()
}

func cursorKey(stream string) string {
	return keyPrefixEventCursor + stream
}

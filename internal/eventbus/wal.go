// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsclust

package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrWALClosed is returned by WAL operations after Close has been called.
var ErrWALClosed = errors.New("eventbus: wal is closed")

// ErrEntryNotFound is returned by Confirm for an entry id that was never
// written, or was already confirmed and swept.
var ErrEntryNotFound = errors.New("eventbus: wal entry not found")

const walKeyPrefix = "pending:"

// WAL is a durable write-ahead log placed in front of NATS publish. An
// event is written here before the publish attempt and confirmed (deleted)
// once NATS acknowledges it, so a crash between the two leaves the event
// recoverable from disk on the next startup rather than silently dropped.
// This trades a BadgerDB fsync per publish for that guarantee, so it is
// opt-in (config.EventBusConfig.WALDir) rather than always-on: the
// embedded/dev-mode event bus runs without it.
type WAL struct {
	db *badger.DB
}

// OpenWAL opens (or creates) a BadgerDB-backed WAL at dir.
func OpenWAL(dir string) (*WAL, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("eventbus: open wal: %w", err)
	}
	return &WAL{db: db}, nil
}

// Write durably persists event, keyed by its ID, before the publish
// attempt. Writing the same ID twice overwrites the earlier entry.
func (w *WAL) Write(event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: marshal wal entry: %w", err)
	}
	key := []byte(walKeyPrefix + event.ID)
	return w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Confirm deletes event's WAL entry once NATS has accepted the publish.
func (w *WAL) Confirm(eventID string) error {
	key := []byte(walKeyPrefix + eventID)
	err := w.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrEntryNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return err
}

// Pending returns every event still awaiting confirmation, for replay at
// startup after an unclean shutdown.
func (w *WAL) Pending() ([]*Event, error) {
	var events []*Event
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(walKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var event Event
				if err := json.Unmarshal(val, &event); err != nil {
					return fmt.Errorf("eventbus: unmarshal wal entry %s: %w", item.Key(), err)
				}
				events = append(events, &event)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return events, err
}

// Close runs BadgerDB's value-log garbage collection once, then closes the
// database.
func (w *WAL) Close() error {
	_ = w.db.RunValueLogGC(0.5)
	return w.db.Close()
}

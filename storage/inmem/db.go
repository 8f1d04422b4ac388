package inmemdb

import (
	"sync"
	"sync/atomic"

	"github.com/devnest/devnest/core/registration"
)

type (
	// DB keeps every collection in memory. It is meant for tests and local development.
	DB struct {
		mu          sync.Mutex
		collections map[string]*collection
		reads       int64
	}

	collection struct {
		sync.RWMutex
		records []registration.Record
	}
)

func Open() *DB {
	return &DB{collections: make(map[string]*collection)}
}

func (db *DB) collection(name string) *collection {
	db.mu.Lock()
	defer db.mu.Unlock()

	c, ok := db.collections[name]
	if !ok {
		c = new(collection)
		db.collections[name] = c
	}
	return c
}

// Reads counts the collection scans served so far.
func (db *DB) Reads() int {
	return int(atomic.LoadInt64(&db.reads))
}

func (db *DB) read() {
	atomic.AddInt64(&db.reads, 1)
}

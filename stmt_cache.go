package ygggo_mysqlx

import (
	"container/list"
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
)

// stmtCache is a per-Conn LRU of driver statements keyed by positional query.
// Statements handed out from it are shared, so Stmt.Close leaves them open.
type stmtCache struct {
	cap    int
	mu     sync.Mutex
	ll     *list.List               // front = most recently used
	m      map[string]*list.Element // positional query -> element
	hits   uint64
	misses uint64
}

type stmtEntry struct {
	key  string
	stmt *sql.Stmt
}

func newStmtCache(capacity int) *stmtCache {
	if capacity < 0 {
		capacity = 0
	}
	return &stmtCache{cap: capacity, ll: list.New(), m: make(map[string]*list.Element)}
}

// EnableStmtCache keeps up to capacity prepared driver statements for reuse by
// later Prepare calls with the same query. A capacity of 0 disables caching.
// An evicted statement is closed even if a Stmt still refers to it, so size
// the cache to the working set of live statements.
func (c *Conn) EnableStmtCache(capacity int) {
	if c == nil {
		return
	}
	if c.cache != nil {
		c.cache.closeAll()
	}
	c.cache = newStmtCache(capacity)
}

// StmtCacheStats reports cache hits, misses and the current number of entries.
func (c *Conn) StmtCacheStats() (hits, misses uint64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	return c.cache.stats()
}

// getOrPrepare returns a driver statement for query. cached reports whether
// the statement is owned by the cache.
func (c *stmtCache) getOrPrepare(ctx context.Context, h Handle, query string) (st *sql.Stmt, cached bool, err error) {
	if c == nil || c.cap == 0 {
		st, err := h.PrepareContext(ctx, query)
		return st, false, err
	}
	c.mu.Lock()
	if ele, ok := c.m[query]; ok {
		c.ll.MoveToFront(ele)
		atomic.AddUint64(&c.hits, 1)
		st := ele.Value.(*stmtEntry).stmt
		c.mu.Unlock()
		return st, true, nil
	}
	c.mu.Unlock()
	// prepare outside the lock so a slow server does not block stats readers
	st, err = h.PrepareContext(ctx, query)
	if err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[query]; ok {
		_ = st.Close()
		c.ll.MoveToFront(ele)
		atomic.AddUint64(&c.hits, 1)
		return ele.Value.(*stmtEntry).stmt, true, nil
	}
	atomic.AddUint64(&c.misses, 1)
	ele := c.ll.PushFront(&stmtEntry{key: query, stmt: st})
	c.m[query] = ele
	if c.ll.Len() > c.cap {
		c.evictLRU()
	}
	return st, true, nil
}

func (c *stmtCache) evictLRU() {
	back := c.ll.Back()
	if back == nil {
		return
	}
	c.ll.Remove(back)
	e := back.Value.(*stmtEntry)
	delete(c.m, e.key)
	_ = e.stmt.Close()
}

func (c *stmtCache) closeAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for e := c.ll.Front(); e != nil; e = e.Next() {
		_ = e.Value.(*stmtEntry).stmt.Close()
	}
	c.ll.Init()
	for k := range c.m {
		delete(c.m, k)
	}
}

func (c *stmtCache) stats() (hits, misses uint64, size int) {
	if c == nil {
		return 0, 0, 0
	}
	hits = atomic.LoadUint64(&c.hits)
	misses = atomic.LoadUint64(&c.misses)
	c.mu.Lock()
	size = c.ll.Len()
	c.mu.Unlock()
	return
}

package blogform

import (
	"database/sql"
	"errors"
	"sync"
	"time"
)

// Workspace keeps one Console per browser session and persists each
// console's form draft to the Store.
type Workspace struct {
	api   BlogAPI
	log   Logger
	store *Store // nil disables draft persistence

	mu       sync.Mutex
	consoles map[string]*workspaceEntry
	idle     time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type workspaceEntry struct {
	console *Console
	seen    time.Time
}

// NewWorkspace creates a Workspace that drops consoles unused for idle.
func NewWorkspace(client BlogAPI, store *Store, logger Logger, idle time.Duration) *Workspace {
	if idle <= 0 {
		idle = 12 * time.Hour
	}
	w := &Workspace{
		api:      client,
		log:      logger,
		store:    store,
		consoles: make(map[string]*workspaceEntry),
		idle:     idle,
		stop:     make(chan struct{}),
	}
	go w.cleanup()
	return w
}

func (w *Workspace) cleanup() {
	ticker := time.NewTicker(w.idle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.evict(time.Now())
		case <-w.stop:
			return
		}
	}
}

// evict forgets consoles idle since before now-idle and purges their
// stale drafts.
func (w *Workspace) evict(now time.Time) {
	cutoff := now.Add(-w.idle)
	w.mu.Lock()
	for sid, e := range w.consoles {
		if e.seen.Before(cutoff) {
			delete(w.consoles, sid)
		}
	}
	w.mu.Unlock()

	if w.store == nil {
		return
	}
	if n, err := w.store.PurgeDrafts(cutoff); err != nil {
		w.log.Errorf("purge drafts: %v", err)
	} else if n > 0 {
		w.log.Infof("purged %d stale drafts", n)
	}
}

// Console returns the session's console, creating it on first use. A new
// console starts from the session's saved draft when there is one.
func (w *Workspace) Console(sessionID string) *Console {
	w.mu.Lock()
	defer w.mu.Unlock()

	if e, ok := w.consoles[sessionID]; ok {
		e.seen = time.Now()
		return e.console
	}
	c := NewConsole(w.api, w.log)
	if w.store != nil {
		draft, err := w.store.GetDraft(sessionID)
		switch {
		case err == nil:
			c.Restore(draft)
		case !errors.Is(err, sql.ErrNoRows):
			w.log.Errorf("load draft: %v", err)
		}
	}
	w.consoles[sessionID] = &workspaceEntry{console: c, seen: time.Now()}
	return c
}

// Persist saves the console's draft, or deletes it once the form is empty.
// Failures are logged; the in-memory state stays authoritative.
func (w *Workspace) Persist(sessionID string, c *Console) {
	if w.store == nil {
		return
	}
	draft := c.Form()
	var err error
	if draft.IsEmpty() {
		err = w.store.DeleteDraft(sessionID)
	} else {
		err = w.store.SaveDraft(sessionID, draft)
	}
	if err != nil {
		w.log.Errorf("persist draft: %v", err)
	}
}

// Len returns the number of live consoles.
func (w *Workspace) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.consoles)
}

// Close stops the cleanup goroutine.
func (w *Workspace) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
}

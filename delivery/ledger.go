package delivery

import (
	"container/list"
	"sync"

	"github.com/lam0glia/marketplace-relay/domain"
)

const (
	DefaultMaxThreads           = 4096
	DefaultMaxMessagesPerThread = 256
)

type thread struct {
	id    string
	marks map[string]domain.CheckMark
	order []string
	read  bool
}

// Ledger remembers the check mark of recently relayed messages per
// conversation. Marks only move up: once a conversation is marked read every
// message recorded before that point stays double_blue.
type Ledger struct {
	mu          sync.Mutex
	threads     map[string]*list.Element
	lru         *list.List
	maxThreads  int
	maxMessages int
}

func NewLedger(maxThreads, maxMessagesPerThread int) *Ledger {
	if maxThreads <= 0 {
		maxThreads = DefaultMaxThreads
	}
	if maxMessagesPerThread <= 0 {
		maxMessagesPerThread = DefaultMaxMessagesPerThread
	}

	return &Ledger{
		threads:     make(map[string]*list.Element),
		lru:         list.New(),
		maxThreads:  maxThreads,
		maxMessages: maxMessagesPerThread,
	}
}

// Record stores mark for messageID and returns the effective mark, which is
// never lower than a mark recorded earlier for the same message.
func (l *Ledger) Record(conversationID, messageID string, mark domain.CheckMark) domain.CheckMark {
	if conversationID == "" || messageID == "" {
		return mark
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.threadLocked(conversationID)

	current, seen := t.marks[messageID]
	if seen && current.Rank() >= mark.Rank() {
		return current
	}

	if !seen {
		t.order = append(t.order, messageID)
		if len(t.order) > l.maxMessages {
			delete(t.marks, t.order[0])
			t.order = t.order[1:]
		}
	}
	t.marks[messageID] = mark

	return mark
}

// MarkRead escalates every message recorded for conversationID to double_blue
// and returns how many were escalated.
func (l *Ledger) MarkRead(conversationID string) int {
	if conversationID == "" {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.threadLocked(conversationID)
	t.read = true

	escalated := 0
	for id, mark := range t.marks {
		if mark != domain.CheckMarkDoubleBlue {
			t.marks[id] = domain.CheckMarkDoubleBlue
			escalated++
		}
	}

	return escalated
}

// Status returns the recorded marks of messageIDs in conversationID. Unknown
// messages are omitted.
func (l *Ledger) Status(conversationID string, messageIDs []string) map[string]domain.CheckMark {
	l.mu.Lock()
	defer l.mu.Unlock()

	statuses := make(map[string]domain.CheckMark, len(messageIDs))

	el, ok := l.threads[conversationID]
	if !ok {
		return statuses
	}

	t := el.Value.(*thread)
	for _, id := range messageIDs {
		if mark, ok := t.marks[id]; ok {
			statuses[id] = mark
		}
	}

	return statuses
}

// Read reports whether conversationID has received a read receipt.
func (l *Ledger) Read(conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	el, ok := l.threads[conversationID]

	return ok && el.Value.(*thread).read
}

func (l *Ledger) threadLocked(conversationID string) *thread {
	if el, ok := l.threads[conversationID]; ok {
		l.lru.MoveToFront(el)
		return el.Value.(*thread)
	}

	t := &thread{
		id:    conversationID,
		marks: make(map[string]domain.CheckMark),
	}
	l.threads[conversationID] = l.lru.PushFront(t)

	if l.lru.Len() > l.maxThreads {
		oldest := l.lru.Back()
		l.lru.Remove(oldest)
		delete(l.threads, oldest.Value.(*thread).id)
	}

	return t
}

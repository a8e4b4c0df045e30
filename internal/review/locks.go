package review

import (
	"hash/fnv"
	"sync"
)

// cardLocks serializes concurrent attempts on the same card with a fixed
// set of striped mutexes. Two cards may share a stripe; that only costs a
// little parallelism, never correctness.
type cardLocks struct {
	stripes [64]sync.Mutex
}

func (l *cardLocks) lock(cardID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(cardID))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m
}

package trips

import (
	"hash/fnv"
	"sync"
)

// keyedMutex serializes operations sharing a key. Striped so the lock table
// stays bounded no matter how many (user, trip) pairs pass through.
type keyedMutex struct {
	stripes [64]sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	h := fnv.New32a()
	h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}

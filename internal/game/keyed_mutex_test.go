package game

import (
	"sync"
	"testing"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := km.Lock("ABC123")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 serialized increments, got %d", counter)
	}
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("AAA111")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("BBB222")
		unlockB()
		close(done)
	}()
	// A held lock on one key must not block another key.
	<-done
	unlockA()
}

func TestKeyedMutexEvictsIdleEntries(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock("ABC123")
	km.mu.Lock()
	if len(km.locks) != 1 {
		km.mu.Unlock()
		t.Fatalf("expected one live entry, got %d", len(km.locks))
	}
	km.mu.Unlock()
	unlock()

	var wg sync.WaitGroup
	for _, key := range []string{"AAA111", "BBB222", "CCC333"} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(key string) {
				defer wg.Done()
				u := km.Lock(key)
				u()
			}(key)
		}
	}
	wg.Wait()

	km.mu.Lock()
	defer km.mu.Unlock()
	if len(km.locks) != 0 {
		t.Fatalf("expected all entries reclaimed, %d remain", len(km.locks))
	}
}

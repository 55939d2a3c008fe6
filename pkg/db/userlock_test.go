package db

import (
	"sync"
	"testing"
)

func TestLockRegistrySerializesSameUser(t *testing.T) {
	registry := NewLockRegistry()

	const iterations = 500
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				registry.Lock(42)
				counter++
				registry.Unlock(42)
			}
		}()
	}
	wg.Wait()

	if counter != 4*iterations {
		t.Fatalf("expected %d increments, got %d", 4*iterations, counter)
	}
}

func TestLockRegistryIndependentUsers(t *testing.T) {
	registry := NewLockRegistry()

	registry.Lock(1)
	done := make(chan struct{})
	go func() {
		registry.Lock(2)
		registry.Unlock(2)
		close(done)
	}()
	<-done
	registry.Unlock(1)
}

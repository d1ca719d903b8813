package keylock

import (
	"sync"
	"testing"
)

func TestLocker_SerializesPerKey(t *testing.T) {
	t.Parallel()

	l := New()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("req-1")
			defer unlock()
			v := counter
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
	if l.size() != 0 {
		t.Fatalf("expected released keys to be forgotten, %d left", l.size())
	}
}

func TestLocker_IndependentKeys(t *testing.T) {
	t.Parallel()

	l := New()
	unlockA := l.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := l.Lock("b")
		unlock()
		close(done)
	}()
	<-done
	unlockA()
}

package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/loganszeto/recordkv/internal/record"
)

func TestSetGet(t *testing.T) {
	st := NewMemTable()
	st.Set("name", record.Str("john doe"))
	got, ok := st.Get("name")
	if !ok || !got.Equal(record.Str("john doe")) {
		t.Fatalf("expected john doe, got %v %v", got, ok)
	}
}

func TestLastWriteWins(t *testing.T) {
	st := NewMemTable()
	st.Set("x", record.Str("1"))
	st.Set("x", record.List(record.Str("a")))
	st.Set("x", record.Str("2"))
	got, ok := st.Get("x")
	if !ok || !got.Equal(record.Str("2")) {
		t.Fatalf("expected 2, got %v %v", got, ok)
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 key, got %d", st.Len())
	}
}

func TestGetMissing(t *testing.T) {
	st := NewMemTable()
	got, ok := st.Get("nope")
	if ok {
		t.Fatalf("expected miss, got %v", got)
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	st := NewMemTable()
	st.Set("l", record.List(record.Str("a"), record.List(record.Str("b"))))

	first, _ := st.Get("l")
	items := first.Items()
	items[0] = record.Str("changed")

	second, _ := st.Get("l")
	want := record.List(record.Str("a"), record.List(record.Str("b")))
	if !second.Equal(want) {
		t.Fatalf("stored record changed through a returned copy: %v", second)
	}
}

func TestConcurrentGets(t *testing.T) {
	st := NewMemTable()
	st.Set("k", record.Str("v"))

	const readers = 64
	var wg sync.WaitGroup
	errCh := make(chan error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got, ok := st.Get("k")
				if !ok || !got.Equal(record.Str("v")) {
					errCh <- fmt.Errorf("unexpected %v %v", got, ok)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatal(err)
	}
}

func TestConcurrentSetObservedAtomically(t *testing.T) {
	st := NewMemTable()
	a := record.List(record.Str("a"), record.Str("a"), record.Str("a"))
	b := record.List(record.Str("b"), record.Str("b"), record.Str("b"))
	st.Set("k", a)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				st.Set("k", b)
			} else {
				st.Set("k", a)
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		got, _ := st.Get("k")
		if !got.Equal(a) && !got.Equal(b) {
			close(stop)
			wg.Wait()
			t.Fatalf("observed partial write: %v", got)
		}
	}
	close(stop)
	wg.Wait()
}

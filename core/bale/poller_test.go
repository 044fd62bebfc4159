package bale

import (
	"errors"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"
)

func collect(t *testing.T, p *CursorPoller, batches [][]tele.Update, want int) []tele.Update {
	t.Helper()

	calls := 0
	p.Fetch = func(offset int, timeout time.Duration) ([]tele.Update, error) {
		if calls >= len(batches) {
			// Block the poll loop on an empty fetch until stopped.
			time.Sleep(5 * time.Millisecond)
			return nil, nil
		}
		batch := batches[calls]
		calls++
		return batch, nil
	}
	p.RetryDelay = time.Millisecond

	dest := make(chan tele.Update, 16)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.Poll(nil, dest, stop)
		close(done)
	}()

	var got []tele.Update
	deadline := time.After(2 * time.Second)
	for len(got) < want {
		select {
		case upd := <-dest:
			got = append(got, upd)
		case <-deadline:
			t.Fatalf("timed out waiting for updates, got %d of %d", len(got), want)
		}
	}

	close(stop)
	<-done
	return got
}

func TestCursorPollerAdvancesPastBatch(t *testing.T) {
	p := &CursorPoller{}
	got := collect(t, p, [][]tele.Update{
		{{ID: 1}, {ID: 2}, {ID: 3}},
	}, 3)

	for i, upd := range got {
		if upd.ID != i+1 {
			t.Fatalf("update %d: got id %d, want %d", i, upd.ID, i+1)
		}
	}
	if p.Offset() != 4 {
		t.Fatalf("offset after batch: got %d, want 4", p.Offset())
	}
}

func TestCursorPollerDropsRedeliveredUpdates(t *testing.T) {
	p := &CursorPoller{}
	got := collect(t, p, [][]tele.Update{
		{{ID: 1}, {ID: 2}, {ID: 3}},
		{{ID: 2}, {ID: 3}, {ID: 4}},
	}, 4)

	// Ids 2 and 3 from the second batch are behind the cursor and must
	// not be dispatched twice.
	want := []int{1, 2, 3, 4}
	for i, upd := range got {
		if upd.ID != want[i] {
			t.Fatalf("update %d: got id %d, want %d", i, upd.ID, want[i])
		}
	}
	if p.Offset() != 5 {
		t.Fatalf("offset after redelivery: got %d, want 5", p.Offset())
	}
}

func TestCursorPollerKeepsCursorOnFetchError(t *testing.T) {
	p := &CursorPoller{RetryDelay: time.Millisecond}

	var offsets []int
	calls := 0
	p.Fetch = func(offset int, timeout time.Duration) ([]tele.Update, error) {
		offsets = append(offsets, offset)
		calls++
		switch calls {
		case 1:
			return []tele.Update{{ID: 7}}, nil
		case 2:
			return nil, errors.New("connection reset")
		default:
			time.Sleep(5 * time.Millisecond)
			return nil, nil
		}
	}

	dest := make(chan tele.Update, 1)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.Poll(nil, dest, stop)
		close(done)
	}()

	select {
	case upd := <-dest:
		if upd.ID != 7 {
			t.Fatalf("got update id %d, want 7", upd.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}

	// Give the loop time to hit the failing fetch and retry.
	time.Sleep(50 * time.Millisecond)
	close(stop)
	<-done

	if p.Offset() != 8 {
		t.Fatalf("offset after error: got %d, want 8", p.Offset())
	}
	if len(offsets) < 3 {
		t.Fatalf("expected at least 3 fetches, got %d", len(offsets))
	}
	// The failed fetch and the retry after it must both use the same cursor.
	if offsets[1] != 8 || offsets[2] != 8 {
		t.Fatalf("retry offsets: got %v, want cursor held at 8", offsets[1:3])
	}
}

func TestCursorPollerStopsWithoutDispatch(t *testing.T) {
	p := &CursorPoller{RetryDelay: time.Millisecond}
	p.Fetch = func(offset int, timeout time.Duration) ([]tele.Update, error) {
		return nil, nil
	}

	dest := make(chan tele.Update)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		p.Poll(nil, dest, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	if p.Offset() != 0 {
		t.Fatalf("offset moved without updates: %d", p.Offset())
	}
}

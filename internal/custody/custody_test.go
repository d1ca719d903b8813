package custody

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"camwatch/internal/domain"
	"camwatch/internal/storage/memory"
	"camwatch/pkg/clock"
	"camwatch/pkg/e"
)

func newTestManager() (*Manager, *clock.Manual) {
	clk := clock.NewManual(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(memory.New().Custody, clk, log), clk
}

func buildChain(t *testing.T, m *Manager, clk *clock.Manual, id uuid.UUID, n int) []domain.CustodyEntry {
	t.Helper()

	ctx := context.Background()
	actions := []domain.CustodyAction{domain.CustodyUploaded, domain.CustodyVerified, domain.CustodyAccessed, domain.CustodyTransferred, domain.CustodyExported}
	var out []domain.CustodyEntry
	for i := 0; i < n; i++ {
		clk.Advance(time.Minute)
		en, err := m.RecordEvent(ctx, id, fmt.Sprintf("actor-%d", i), actions[i%len(actions)], strings.NewReader(fmt.Sprintf("payload-%d", i)))
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		out = append(out, en)
	}
	return out
}

func TestRecordEvent_LinksEntries(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager()
	id := uuid.New()
	chain := buildChain(t, m, clk, id, 4)

	if chain[0].PreviousEntryHash != GenesisHash {
		t.Fatalf("first entry must link to genesis")
	}
	for i := 1; i < len(chain); i++ {
		if chain[i].PreviousEntryHash != chain[i-1].EntryHash {
			t.Fatalf("entry %d does not link to entry %d", i, i-1)
		}
		if chain[i].Index != i {
			t.Fatalf("expected index %d, got %d", i, chain[i].Index)
		}
	}

	want, _, _ := HashContent(strings.NewReader("payload-2"))
	if chain[2].ContentHash != want {
		t.Fatalf("content hash is not the payload digest")
	}
}

func TestVerifyChain_Untouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, clk := newTestManager()

	empty, err := m.VerifyChain(ctx, uuid.New())
	if err != nil || !empty.Valid || empty.Length != 0 {
		t.Fatalf("empty chain must be valid, got %+v %v", empty, err)
	}

	id := uuid.New()
	buildChain(t, m, clk, id, 10)
	res, err := m.VerifyChain(ctx, id)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.Valid || res.BrokenAtIndex != nil || res.Length != 10 {
		t.Fatalf("expected valid chain of 10, got %+v", res)
	}
	if err := m.EnsureIntact(ctx, id); err != nil {
		t.Fatalf("ensure intact: %v", err)
	}
}

func TestVerify_DetectsTampering(t *testing.T) {
	t.Parallel()

	m, clk := newTestManager()
	id := uuid.New()
	chain := buildChain(t, m, clk, id, 8)

	for k := range chain {
		k := k
		t.Run(fmt.Sprintf("entry_%d", k), func(t *testing.T) {
			t.Parallel()
			sum, _, _ := HashContent(strings.NewReader("forged"))

			swapped := append([]domain.CustodyEntry(nil), chain...)
			swapped[k].ContentHash = sum
			res := Verify(swapped)
			if res.Valid || res.BrokenAtIndex == nil || *res.BrokenAtIndex != k {
				t.Fatalf("swapped payload at %d not detected there, got %+v", k, res)
			}

			if k == len(chain)-1 {
				return
			}
			// Rehashing the forged entry moves the break to its successor.
			rehashed := append([]domain.CustodyEntry(nil), chain...)
			rehashed[k].ContentHash = sum
			rehashed[k].EntryHash = HashEntry(rehashed[k])
			res = Verify(rehashed)
			if res.Valid || res.BrokenAtIndex == nil || *res.BrokenAtIndex < k {
				t.Fatalf("rehashed forgery at %d not detected at or after it, got %+v", k, res)
			}
		})
	}

	naive := append([]domain.CustodyEntry(nil), chain...)
	naive[3].ActorID = "someone-else"
	if res := Verify(naive); res.Valid || *res.BrokenAtIndex != 3 {
		t.Fatalf("in-place edit should break at 3, got %+v", res)
	}
}

func TestRecordCorrection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, clk := newTestManager()
	id := uuid.New()
	chain := buildChain(t, m, clk, id, 3)

	fix, err := m.RecordCorrection(ctx, id, "auditor", 1, "wrong actor recorded", nil)
	if err != nil {
		t.Fatalf("correction: %v", err)
	}
	if fix.Action != domain.CustodyCorrected || fix.CorrectsIndex == nil || *fix.CorrectsIndex != 1 {
		t.Fatalf("unexpected correction entry %+v", fix)
	}
	if fix.ContentHash != chain[2].ContentHash {
		t.Fatalf("correction without payload should carry the content hash forward")
	}

	stored, _ := m.Chain(ctx, id)
	if stored[1] != chain[1] {
		t.Fatalf("original entry was modified")
	}

	if _, err := m.RecordCorrection(ctx, id, "auditor", 9, "nope", nil); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected validation error for unknown index, got %v", err)
	}
	if _, err := m.RecordCorrection(ctx, id, "auditor", 0, " ", nil); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("expected validation error for missing note, got %v", err)
	}
	if _, err := m.RecordEvent(ctx, id, "auditor", domain.CustodyCorrected, nil); !errors.Is(err, e.ErrValidation) {
		t.Fatalf("corrections must go through RecordCorrection")
	}

	res, _ := m.VerifyChain(ctx, id)
	if !res.Valid || res.Length != 4 {
		t.Fatalf("chain with correction should verify, got %+v", res)
	}
}

func TestRecordEvent_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager()

	cases := []struct {
		name    string
		id      uuid.UUID
		actor   string
		action  domain.CustodyAction
		payload io.Reader
	}{
		{"nil_evidence", uuid.Nil, "a", domain.CustodyUploaded, strings.NewReader("x")},
		{"missing_actor", uuid.New(), "", domain.CustodyUploaded, strings.NewReader("x")},
		{"unknown_action", uuid.New(), "a", "shredded", strings.NewReader("x")},
		{"first_without_payload", uuid.New(), "a", domain.CustodyUploaded, nil},
	}
	for _, c := range cases {
		if _, err := m.RecordEvent(ctx, c.id, c.actor, c.action, c.payload); !errors.Is(err, e.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}
}

func TestRecordEvent_NoAppendAfterDisposal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager()
	id := uuid.New()

	if _, err := m.RecordEvent(ctx, id, "owner", domain.CustodyUploaded, strings.NewReader("clip")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := m.RecordEvent(ctx, id, "admin", domain.CustodyDisposed, nil); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	_, err := m.RecordEvent(ctx, id, "police", domain.CustodyAccessed, nil)
	if !errors.Is(err, e.ErrInvalidStateTransition) {
		t.Fatalf("expected invalid state transition, got %v", err)
	}
}

func TestRecordEvent_ConcurrentAppendsStayOrdered(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager()
	id := uuid.New()
	if _, err := m.RecordEvent(ctx, id, "owner", domain.CustodyUploaded, strings.NewReader("clip")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.RecordEvent(ctx, id, fmt.Sprintf("viewer-%d", i), domain.CustodyAccessed, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent append failed: %v", err)
		}
	}

	res, err := m.VerifyChain(ctx, id)
	if err != nil || !res.Valid || res.Length != 21 {
		t.Fatalf("expected valid chain of 21, got %+v %v", res, err)
	}
}

func TestVerifyContent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager()
	id := uuid.New()
	clip := []byte("original footage bytes")

	if _, err := m.RecordEvent(ctx, id, "owner", domain.CustodyUploaded, bytes.NewReader(clip)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := m.RecordEvent(ctx, id, "police", domain.CustodyAccessed, nil); err != nil {
		t.Fatalf("access: %v", err)
	}

	ok, err := m.VerifyContent(ctx, id, bytes.NewReader(clip))
	if err != nil || !ok {
		t.Fatalf("expected matching content, got %v %v", ok, err)
	}
	ok, err = m.VerifyContent(ctx, id, strings.NewReader("edited footage"))
	if err != nil || ok {
		t.Fatalf("expected mismatch for altered content, got %v %v", ok, err)
	}
	if _, err := m.VerifyContent(ctx, uuid.New(), bytes.NewReader(clip)); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordDigest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, _ := newTestManager()
	id := uuid.New()
	clip := []byte("streamed footage")

	sum, _, err := HashContent(bytes.NewReader(clip))
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	en, err := m.RecordDigest(ctx, id, "owner", domain.CustodyUploaded, sum)
	if err != nil {
		t.Fatalf("record digest: %v", err)
	}
	if en.ContentHash != sum || en.PreviousEntryHash != GenesisHash {
		t.Fatalf("unexpected entry %+v", en)
	}
	ok, err := m.VerifyContent(ctx, id, bytes.NewReader(clip))
	if err != nil || !ok {
		t.Fatalf("expected content to match recorded digest, got %v %v", ok, err)
	}

	for _, bad := range []string{"", "abc", strings.ToUpper(sum), strings.Repeat("g", 64)} {
		if _, err := m.RecordDigest(ctx, id, "owner", domain.CustodyAccessed, bad); !errors.Is(err, e.ErrInvalidInput) {
			t.Fatalf("digest %q: expected validation error, got %v", bad, err)
		}
	}
	if _, err := m.RecordDigest(ctx, id, "owner", domain.CustodyCorrected, sum); !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected corrections to be rejected, got %v", err)
	}
}

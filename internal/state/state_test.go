package state

import (
	"context"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []State{
		Idle{},
		AwaitingName{},
		CreatingSimpleQuiz{},
		CreatingTimedQuiz{TimeLimitMin: 30},
		CreatingMultiAttemptQuiz{MaxAttempts: 5},
		SolvingQuiz{},
		AwaitingBroadcast{},
	}
	for _, s := range cases {
		tag, payload, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%T): %v", s, err)
		}
		got, err := Decode(tag, payload)
		if err != nil {
			t.Fatalf("Decode(%q, %q): %v", tag, payload, err)
		}
		if got != s {
			t.Errorf("round trip %T: got %#v, want %#v", s, got, s)
		}
	}
}

func TestDecodeUnknownTagFallsBackToIdle(t *testing.T) {
	got, err := Decode("some_removed_state", `{"x":1}`)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(Idle); !ok {
		t.Errorf("Decode(unknown) = %#v, want Idle", got)
	}
}

func TestMemoryStoreOverwriteAndClear(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	got, err := s.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.(Idle); !ok {
		t.Fatalf("fresh user state = %#v, want Idle", got)
	}

	if err := s.Set(ctx, 7, CreatingTimedQuiz{TimeLimitMin: 15}); err != nil {
		t.Fatal(err)
	}
	// Full overwrite: the previous payload is gone, not merged.
	if err := s.Set(ctx, 7, SolvingQuiz{}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, 7)
	if _, ok := got.(SolvingQuiz); !ok {
		t.Fatalf("state after overwrite = %#v, want SolvingQuiz", got)
	}

	if err := s.Set(ctx, 7, Idle{}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, 7)
	if _, ok := got.(Idle); !ok {
		t.Errorf("state after clear = %#v, want Idle", got)
	}
}

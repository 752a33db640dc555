package field

import (
	"errors"
	"testing"
)

func TestMemo_RecomputesOnlyOnRevisionChange(t *testing.T) {
	memo := NewMemo()
	loads := 0
	load := func() []Descriptor {
		loads++
		return []Descriptor{{ID: "title", Type: TypeText}}
	}

	for i := 0; i < 3; i++ {
		fields, err := memo.Fields("r1", load)
		if err != nil {
			t.Fatalf("fields: %v", err)
		}
		if len(fields) != 1 {
			t.Fatalf("expected one field, got %d", len(fields))
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load for a stable revision, got %d", loads)
	}

	if _, err := memo.Fields("r2", load); err != nil {
		t.Fatalf("fields: %v", err)
	}
	if loads != 2 {
		t.Fatalf("expected reload on revision change, got %d", loads)
	}

	memo.Invalidate()
	if _, err := memo.Fields("r2", load); err != nil {
		t.Fatalf("fields: %v", err)
	}
	if loads != 3 {
		t.Fatalf("expected reload after invalidate, got %d", loads)
	}
}

func TestMemo_CachesErrors(t *testing.T) {
	memo := NewMemo()
	loads := 0
	load := func() []Descriptor {
		loads++
		return []Descriptor{{ID: "title"}}
	}
	for i := 0; i < 2; i++ {
		if _, err := memo.Fields("broken", load); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
		}
	}
	if loads != 1 {
		t.Fatalf("expected cached error, loads=%d", loads)
	}
}

func TestMemo_ReturnsIndependentSlices(t *testing.T) {
	memo := NewMemo()
	load := func() []Descriptor { return []Descriptor{{ID: "title", Type: TypeText}} }
	first, _ := memo.Fields("r1", load)
	first[0] = Field{ID: "mutated"}
	second, _ := memo.Fields("r1", load)
	if second[0].ID != "title" {
		t.Fatalf("cached fields were mutated through a returned slice")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]Descriptor{{ID: "title", Type: TypeText}})
	b := Fingerprint([]Descriptor{{ID: "title", Type: TypeText, GetValue: func(Item) any { return nil }}})
	c := Fingerprint([]Descriptor{{ID: "title", Type: TypeInteger}})
	if a == "" || a != b {
		t.Fatalf("expected function members to be ignored: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("expected type change to alter the fingerprint")
	}
}

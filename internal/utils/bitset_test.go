package utils

import "testing"

func TestBitSet_AddHasRemove(t *testing.T) {
	b := NewBitSet(32)

	if b.Has(3) {
		t.Error("Expected bit 3 to be unset initially")
	}
	if b.Add(3) {
		t.Error("Add on an unset bit must return false")
	}
	if !b.Has(3) {
		t.Error("Expected bit 3 to be set")
	}
	if !b.Add(3) {
		t.Error("Add on a set bit must return true")
	}
	if !b.Remove(3) {
		t.Error("Remove on a set bit must return true")
	}
	if b.Has(3) {
		t.Error("Expected bit 3 to be unset after Remove")
	}
}

func TestBitSet_OutOfRange(t *testing.T) {
	b := NewBitSet(8)

	if b.Add(-1) || b.Add(8) {
		t.Error("Out-of-range Add must report false")
	}
	if b.Has(-1) || b.Has(8) {
		t.Error("Out-of-range Has must report false")
	}
}

func TestBitSet_NextClear(t *testing.T) {
	b := NewBitSet(3)

	if got := b.NextClear(); got != 0 {
		t.Errorf("Expected next clear 0, got %d", got)
	}

	b.Add(0)
	b.Add(1)
	if got := b.NextClear(); got != 2 {
		t.Errorf("Expected next clear 2, got %d", got)
	}

	b.Add(2)
	if got := b.NextClear(); got != -1 {
		t.Errorf("Expected -1 when full, got %d", got)
	}

	b.Remove(1)
	if got := b.NextClear(); got != 1 {
		t.Errorf("Expected next clear 1 after Remove, got %d", got)
	}
}

func TestBitSet_CountAndClear(t *testing.T) {
	b := NewBitSet(100)
	b.Add(0)
	b.Add(64)
	b.Add(99)

	if got := b.Count(); got != 3 {
		t.Errorf("Expected count 3, got %d", got)
	}
	if got := b.Len(); got != 100 {
		t.Errorf("Expected len 100, got %d", got)
	}

	b.Clear()
	if got := b.Count(); got != 0 {
		t.Errorf("Expected count 0 after Clear, got %d", got)
	}
}

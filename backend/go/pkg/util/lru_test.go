package util

import "testing"

func TestNewLRU_InvalidCapacity(t *testing.T) {
	if _, err := NewLRU[string, int](0, nil); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c, err := NewLRU[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })
	if err != nil {
		t.Fatalf("NewLRU() error = %v", err)
	}

	c.Put("a", 1)
	c.Put("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("unexpected evictions: %v", evicted)
	}
	if c.Len() != 2 {
		t.Errorf("expected len 2, got %d", c.Len())
	}
}

func TestLRU_UpdateKeepsSize(t *testing.T) {
	c, _ := NewLRU[string, int](2, nil)
	c.Put("a", 1)
	c.Put("a", 5)
	if v, _ := c.Get("a"); v != 5 {
		t.Errorf("expected updated value 5, got %d", v)
	}
	if c.Len() != 1 {
		t.Errorf("expected len 1, got %d", c.Len())
	}
}

package sim

import "testing"

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("Expected identical sequences for equal seeds, diverged at draw %d: %v vs %v", i, va, vb)
		}
	}
}

func TestRNGSeedsDiffer(t *testing.T) {
	a := NewRNG(1)
	b := NewRNG(2)

	same := true
	for i := 0; i < 10; i++ {
		if a.Next() != b.Next() {
			same = false
			break
		}
	}
	if same {
		t.Error("Expected different seeds to produce different sequences")
	}
}

func TestRNGBounds(t *testing.T) {
	r := NewRNG(7)
	for i := 0; i < 10000; i++ {
		v := r.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("Expected Next in [0,1), got %v at draw %d", v, i)
		}
	}
}

func TestRNGIntn(t *testing.T) {
	r := NewRNG(99)
	for i := 0; i < 1000; i++ {
		v := r.Intn(8)
		if v < 0 || v >= 8 {
			t.Fatalf("Expected Intn(8) in [0,8), got %d", v)
		}
	}
}

func TestRNGNextInt(t *testing.T) {
	r := NewRNG(5)
	for i := 0; i < 1000; i++ {
		v := r.NextInt(3, 6)
		if v < 3 || v > 6 {
			t.Fatalf("Expected NextInt(3,6) in [3,6], got %d", v)
		}
	}
}

func TestRNGChanceExtremes(t *testing.T) {
	r := NewRNG(11)
	for i := 0; i < 100; i++ {
		if r.Chance(0) {
			t.Fatal("Expected Chance(0) to never fire")
		}
		if !r.Chance(1) {
			t.Fatal("Expected Chance(1) to always fire")
		}
	}
}

func TestPick(t *testing.T) {
	r := NewRNG(3)
	items := []string{"a", "b", "c"}
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		v := Pick(r, items)
		if v != "a" && v != "b" && v != "c" {
			t.Fatalf("Expected Pick to return a member, got %q", v)
		}
		seen[v] = true
	}
	if len(seen) < 2 {
		t.Errorf("Expected Pick to hit multiple members over 100 draws, saw %d", len(seen))
	}
}

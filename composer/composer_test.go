package composer

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// failingSource fails after n successful draws.
type failingSource struct {
	n   int
	err error
}

func (s *failingSource) IntN(n int) (int, error) {
	if s.n <= 0 {
		return 0, s.err
	}
	s.n--
	return 0, nil
}

func assertValidResult(t *testing.T, req Request, res Result) {
	t.Helper()

	classes, err := Validate(req)
	if err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	if len(res.Password) != req.Length {
		t.Errorf("password length = %d, want %d", len(res.Password), req.Length)
	}
	if len(res.Counts) != len(classes) {
		t.Errorf("counts has %d classes, want %d", len(res.Counts), len(classes))
	}

	sum := 0
	for _, c := range classes {
		n, ok := res.Counts[c]
		if !ok {
			t.Errorf("counts missing class %v", c)
			continue
		}
		if n < 1 {
			t.Errorf("counts[%v] = %d, want >= 1", c, n)
		}
		sum += n
	}
	if sum != req.Length {
		t.Errorf("sum of counts = %d, want %d", sum, req.Length)
	}

	for i := 0; i < len(res.Password); i++ {
		c, ok := ClassOf(res.Password[i])
		if !ok {
			t.Errorf("character %q at %d belongs to no class", res.Password[i], i)
			continue
		}
		if _, enabled := res.Counts[c]; !enabled {
			t.Errorf("character %q at %d belongs to disabled class %v", res.Password[i], i, c)
		}
	}
}

func TestCompose(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"all classes length 8", Request{Length: 8, Classes: AllClasses()}},
		{"all classes length 64", Request{Length: 64, Classes: AllClasses()}},
		{"digits only", Request{Length: 10, Classes: []Class{Digit}}},
		{"upper and lower", Request{Length: 12, Classes: []Class{Upper, Lower}}},
		{"symbols only length 1", Request{Length: 1, Classes: []Class{Symbol}}},
		{"digit and symbol", Request{Length: 2, Classes: []Class{Symbol, Digit}}},
		{"duplicates collapse", Request{Length: 3, Classes: []Class{Lower, Lower, Digit, Lower, Upper}}},
		{"long password", Request{Length: 1000, Classes: AllClasses()}},
	}

	src := NewSeededSource(1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 50 {
				res, err := Compose(src, tt.req)
				if err != nil {
					t.Fatalf("Compose() unexpected error: %v", err)
				}
				assertValidResult(t, tt.req, res)
			}
		})
	}
}

func TestCompose_InvalidRequests(t *testing.T) {
	tests := []struct {
		name       string
		req        Request
		wantReason string
	}{
		{
			name:       "zero length",
			req:        Request{Length: 0, Classes: AllClasses()},
			wantReason: "length must be a positive integer",
		},
		{
			name:       "negative length",
			req:        Request{Length: -3, Classes: []Class{Digit}},
			wantReason: "length must be a positive integer",
		},
		{
			name:       "no classes",
			req:        Request{Length: 8},
			wantReason: "at least one character class",
		},
		{
			name:       "empty class slice",
			req:        Request{Length: 8, Classes: []Class{}},
			wantReason: "at least one character class",
		},
		{
			name:       "length shorter than class count",
			req:        Request{Length: 2, Classes: []Class{Digit, Upper, Lower}},
			wantReason: "too short",
		},
		{
			name:       "unknown class",
			req:        Request{Length: 8, Classes: []Class{Digit, Class(42)}},
			wantReason: "unknown character class",
		},
		{
			name:       "zero class value",
			req:        Request{Length: 8, Classes: []Class{0}},
			wantReason: "unknown character class",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(NewSeededSource(7), tt.req)
			if err == nil {
				t.Fatal("Compose() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("errors.Is(err, ErrInvalidRequest) = false for %v", err)
			}
			if !strings.Contains(Reason(err), tt.wantReason) {
				t.Errorf("Reason() = %q, want it to contain %q", Reason(err), tt.wantReason)
			}
		})
	}
}

func TestCompose_InvalidRequestConsumesNoRandomness(t *testing.T) {
	src := &failingSource{err: errors.New("should not be called")}

	_, err := Compose(src, Request{Length: 2, Classes: AllClasses()})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("Compose() error = %v, want ErrInvalidRequest", err)
	}
}

func TestCompose_LengthEqualsClassCount(t *testing.T) {
	src := NewSeededSource(99)
	req := Request{Length: 4, Classes: AllClasses()}

	orders := make(map[string]bool)
	for range 200 {
		res, err := Compose(src, req)
		if err != nil {
			t.Fatalf("Compose() unexpected error: %v", err)
		}
		assertValidResult(t, req, res)

		var order strings.Builder
		for _, c := range AllClasses() {
			if res.Counts[c] != 1 {
				t.Fatalf("counts[%v] = %d, want exactly 1 (password %q)", c, res.Counts[c], res.Password)
			}
		}
		for i := 0; i < len(res.Password); i++ {
			c, _ := ClassOf(res.Password[i])
			order.WriteString(c.String()[:1])
		}
		orders[order.String()] = true
	}

	// 24 possible orders, 200 draws: seeing only a handful would mean the
	// shuffle is not running.
	if len(orders) < 12 {
		t.Errorf("observed %d distinct class orders, want a spread across the 24 permutations", len(orders))
	}
}

func TestCompose_SourceFailure(t *testing.T) {
	boom := errors.New("entropy exhausted")

	tests := []struct {
		name  string
		draws int
	}{
		{"fails on mandatory draw", 0},
		{"fails on fill draw", 4},
		{"fails during shuffle", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compose(&failingSource{n: tt.draws, err: boom}, Request{Length: 8, Classes: AllClasses()})
			if err == nil {
				t.Fatal("Compose() expected error, got nil")
			}
			if !errors.Is(err, boom) {
				t.Errorf("error = %v, want it to wrap %v", err, boom)
			}
			if errors.Is(err, ErrInvalidRequest) {
				t.Error("source failure must not be reported as ErrInvalidRequest")
			}
		})
	}
}

func TestCompose_SeededIsReproducible(t *testing.T) {
	req := Request{Length: 32, Classes: AllClasses()}

	a, err := Compose(NewSeededSource(2024), req)
	if err != nil {
		t.Fatalf("Compose() unexpected error: %v", err)
	}
	b, err := Compose(NewSeededSource(2024), req)
	if err != nil {
		t.Fatalf("Compose() unexpected error: %v", err)
	}
	if a.Password != b.Password {
		t.Errorf("same seed produced %q and %q", a.Password, b.Password)
	}
}

func TestNew(t *testing.T) {
	t.Run("nil source defaults to crypto", func(t *testing.T) {
		gen := New(nil)
		res, err := gen.Compose(Request{Length: 16, Classes: AllClasses()})
		if err != nil {
			t.Fatalf("Compose() unexpected error: %v", err)
		}
		assertValidResult(t, Request{Length: 16, Classes: AllClasses()}, res)
	})

	t.Run("crypto generator produces varied output", func(t *testing.T) {
		gen := New(NewCryptoSource())
		seen := make(map[string]bool)
		for range 100 {
			res, err := gen.Compose(Request{Length: 16, Classes: AllClasses()})
			if err != nil {
				t.Fatalf("Compose() unexpected error: %v", err)
			}
			seen[res.Password] = true
		}
		if len(seen) != 100 {
			t.Errorf("expected 100 unique passwords, got %d", len(seen))
		}
	})

	t.Run("concurrent composition is safe", func(t *testing.T) {
		gen := New(NewSeededSource(5))
		req := Request{Length: 12, Classes: AllClasses()}

		const goroutines = 20
		const iterations = 50

		var wg sync.WaitGroup
		results := make(chan Result, goroutines*iterations)
		errChan := make(chan error, goroutines*iterations)

		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range iterations {
					res, err := gen.Compose(req)
					if err != nil {
						errChan <- err
						return
					}
					results <- res
				}
			}()
		}

		wg.Wait()
		close(results)
		close(errChan)

		for err := range errChan {
			t.Errorf("concurrent Compose() error: %v", err)
		}
		count := 0
		for res := range results {
			count++
			assertValidResult(t, req, res)
		}
		if count != goroutines*iterations {
			t.Errorf("expected %d results, got %d", goroutines*iterations, count)
		}
	})
}

func TestCount(t *testing.T) {
	got := Count("aB3$xY", []Class{Upper, Digit})

	if len(got) != 2 {
		t.Fatalf("Count() returned %d classes, want 2", len(got))
	}
	if got[Upper] != 2 {
		t.Errorf("Count()[Upper] = %d, want 2", got[Upper])
	}
	if got[Digit] != 1 {
		t.Errorf("Count()[Digit] = %d, want 1", got[Digit])
	}
	if _, ok := got[Lower]; ok {
		t.Error("Count() included a class that was not requested")
	}

	zero := Count([]byte("abc"), []Class{Symbol})
	if n, ok := zero[Symbol]; !ok || n != 0 {
		t.Errorf("Count()[Symbol] = %d, %v; want 0, true", n, ok)
	}
}

func BenchmarkCompose(b *testing.B) {
	gen := New(NewCryptoSource())
	req := Request{Length: 16, Classes: AllClasses()}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := gen.Compose(req); err != nil {
			b.Fatalf("Compose() error: %v", err)
		}
	}
}

func BenchmarkCompose_Parallel(b *testing.B) {
	gen := New(NewCryptoSource())
	req := Request{Length: 16, Classes: AllClasses()}
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := gen.Compose(req); err != nil {
				b.Fatalf("Compose() error: %v", err)
			}
		}
	})
}

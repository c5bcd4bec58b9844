package validation

import (
	"context"
	"testing"
)

// BenchmarkValidate_Sequential runs the full default harness one industry
// at a time.
func BenchmarkValidate_Sequential(b *testing.B) {
	benchmarkValidate(b, 1)
}

// BenchmarkValidate_Parallel runs the full default harness eight industries
// at a time.
func BenchmarkValidate_Parallel(b *testing.B) {
	benchmarkValidate(b, 8)
}

func benchmarkValidate(b *testing.B, parallelism int) {
	b.Helper()
	b.ReportAllocs()
	r := newRunner(b, DefaultPolicy(), WithParallelism(parallelism))
	fx := defaultFixtures(b)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Validate(ctx, nil, fx); err != nil {
			b.Fatal(err)
		}
	}
}

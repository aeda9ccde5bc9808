package sql

import (
	"context"
	"testing"
)

func BenchmarkBuildInsert_Small(b *testing.B) {
	ctx := context.Background()
	t := Table("public", "users")
	columns := []string{"id", "age", "first_name", "last_name", "nickname", "created_at"}
	values := []any{1, 30, "Ariel", "O'Brien", nil, "2009-11-10 23:00:00"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildInsert(ctx, t, columns, values)
	}
}

func BenchmarkBuildUpdate_Pretty(b *testing.B) {
	ctx := context.Background()
	t := Table("public", "users")
	columns := []string{"age", "first_name", "last_name"}
	values := []any{30, "Ariel", "n/a"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildUpdate(ctx, t, "id", 1, columns, values, Pretty())
	}
}

func BenchmarkBuildDelete_In(b *testing.B) {
	t := Table("public", "users")
	ids := []int{1, 2, 3, 4, 5, 6, 7, 8}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BuildDelete(t, "id", ids)
	}
}

func BenchmarkIsNullSentinel(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		IsNullSentinel("N/A")
	}
}

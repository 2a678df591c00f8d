package service_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agency-cms-api/internal/mocks"
	"github.com/agency-cms-api/internal/models"
	"github.com/agency-cms-api/internal/validation"
)

const benchRows = 1000

func benchFixture(b *testing.B) *mocks.Fixture {
	b.Helper()
	f := mocks.NewFixture()
	ctx := context.Background()
	for i := 0; i < benchRows; i++ {
		sub := &models.Subscriber{
			Email:              fmt.Sprintf("user%06d@example.com", i),
			Firstname:          "Bench",
			SubscriptionSource: "website",
		}
		if err := f.Newsletter.Create(ctx, sub); err != nil {
			b.Fatal(err)
		}
	}
	return f
}

// BenchmarkStreamSubscribers measures export throughput per format
func BenchmarkStreamSubscribers(b *testing.B) {
	for _, format := range []string{"csv", "ndjson", "json"} {
		b.Run(format, func(b *testing.B) {
			svc := benchFixture(b).Services()
			ctx := context.Background()

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				rec := httptest.NewRecorder()
				if err := svc.Export.StreamSubscribers(ctx, rec, format, ""); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportMetric(float64(benchRows*b.N)/b.Elapsed().Seconds(), "rows/sec")
		})
	}
}

// BenchmarkSanitizeHTML measures the cost of cleaning a typical article body
func BenchmarkSanitizeHTML(b *testing.B) {
	s := validation.NewSanitizer()
	body := strings.Repeat(`<p>Intro with <a href="https://agency.fr" onclick="x()">link</a><script>alert(1)</script></p>`, 50)

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(body)))

	for i := 0; i < b.N; i++ {
		_ = s.SanitizeHTML(body)
	}
}

// BenchmarkSanitizeHTMLParallel checks the shared policy under concurrent handlers
func BenchmarkSanitizeHTMLParallel(b *testing.B) {
	s := validation.NewSanitizer()
	body := `<h2>Title</h2><p>Some <strong>bold</strong> text<img src=x onerror=alert(1)></p>`

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = s.SanitizeHTML(body)
		}
	})
}

package advice

import "testing"

func BenchmarkQuickFilter(b *testing.B) {
	filter := NewQuickFilter()
	texts := []string{
		"Add a serving of leafy greens to boost fiber and magnesium.",
		"Try replacing white rice with quinoa for extra protein.",
		"You should stop eating entirely for a week to reset your metabolism.",
		"Drink a glass of water before each meal.",
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		filter.Check(texts[i%len(texts)])
	}
}

package s_test

import (
	"testing"

	"github.com/diskrescue/preview-cache/pkg/s"
)

func TestScanSourceValid(t *testing.T) {
	tests := []struct {
		name   string
		source s.ScanSource
		want   bool
	}{
		{"fast scan", s.FastScan, true},
		{"deep scan", s.DeepScan, true},
		{"unknown tag", "quickScan", false},
		{"empty", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.source.Valid(); got != test.want {
				t.Errorf("Valid() = %v for %q, want %v", got, test.source, test.want)
			}
		})
	}
}

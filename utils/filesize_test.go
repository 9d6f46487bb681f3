package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero", 0, "0 Bytes"},
		{"negative", -5, "0 Bytes"},
		{"bytes", 512, "512 Bytes"},
		{"exact kilobyte", 1024, "1 KB"},
		{"fractional kilobyte", 1536, "1.5 KB"},
		{"rounded", 1234, "1.21 KB"},
		{"exact megabyte", 1024 * 1024, "1 MB"},
		{"exact gigabyte", 1024 * 1024 * 1024, "1 GB"},
		{"terabyte", 1024 * 1024 * 1024 * 1024, "1 TB"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatFileSize(tc.bytes))
		})
	}
}

package utils

import "testing"

func TestFormatSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0.00 MB"},
		{10, "0.00 MB"},
		{1048576, "1.00 MB"},
		{1572864, "1.50 MB"},
		{1024*1024*5 + 100, "5.00 MB"},
		{1024 * 1024 * 1024, "1024.00 MB"},
		{-5, "0.00 MB"},
	}
	for _, c := range cases {
		got := FormatSize(c.in)
		if got != c.want {
			t.Fatalf("FormatSize(%d) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestHumanizeBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{10, "10 B"},
		{1024, "1.0 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{-1, "0 B"},
	}
	for _, c := range cases {
		got := HumanizeBytes(c.in)
		if got != c.want {
			t.Fatalf("HumanizeBytes(%d) = %q; want %q", c.in, got, c.want)
		}
	}
}

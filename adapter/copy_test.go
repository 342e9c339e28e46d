package adapter

import (
	"testing"

	"github.com/sergev/uft/ddcore"
)

func TestHashAlgosFromNames(t *testing.T) {
	got := hashAlgosFromNames([]string{"md5", "sha256"})
	want := ddcore.HashMD5 | ddcore.HashSHA256
	if got != want {
		t.Fatalf("hashAlgosFromNames = %v, want %v", got, want)
	}
}

func TestHashAlgosFromNamesDefaultsToMD5(t *testing.T) {
	if got := hashAlgosFromNames(nil); got != ddcore.HashMD5 {
		t.Fatalf("hashAlgosFromNames(nil) = %v, want HashMD5", got)
	}
}

func TestWipePatternFromName(t *testing.T) {
	cases := map[string]ddcore.FillPattern{
		"zero":    ddcore.FillZero,
		"one":     ddcore.FillOne,
		"random":  ddcore.FillRandom,
		"dod3":    ddcore.FillDoD3Pass,
		"dod7":    ddcore.FillDoD7Pass,
		"gutmann": ddcore.FillGutmann35Pass,
		"bogus":   ddcore.FillZero,
	}
	for name, want := range cases {
		if got := wipePatternFromName(name); got != want {
			t.Fatalf("wipePatternFromName(%q) = %v, want %v", name, got, want)
		}
	}
}

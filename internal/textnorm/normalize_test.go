// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"lowercases", "Deep Learning", "deep learning"},
		{"strips accents", "Élodie Dupont", "elodie dupont"},
		{"strips apostrophes", "O'Brien and O’Connor", "obrien oconnor"},
		{"collapses punctuation", "Attention: Is All -- You Need!", "attention is all you need"},
		{"drops stopwords", "The Origin of the Species and More", "origin of species more"},
		{"keeps stopword substrings", "Android Theater", "android theater"},
		{"collapses whitespace", "  a \t b \n c  ", "a b c"},
		{"umlaut", "Über die Grenzen", "uber die grenzen"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeDOI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.1000/ABC.123", "10.1000/abc.123"},
		{"https://doi.org/10.1000/abc.123", "10.1000/abc.123"},
		{"http://dx.doi.org/10.1000/abc.123", "10.1000/abc.123"},
		{"doi:10.1000/abc.123", "10.1000/abc.123"},
		{"  10.1000/abc.123  ", "10.1000/abc.123"},
		{"", ""},
		{"null", ""},
	}
	for _, tt := range tests {
		if got := NormalizeDOI(tt.in); got != tt.want {
			t.Errorf("NormalizeDOI(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLooksLikeDOI(t *testing.T) {
	if !LooksLikeDOI("https://doi.org/10.1145/3292500.3330701") {
		t.Error("resolver URL should look like a DOI")
	}
	if LooksLikeDOI("not a doi") {
		t.Error("free text should not look like a DOI")
	}
}

func TestSignificantTokens(t *testing.T) {
	got := SignificantTokens("The Origin of Species, 2nd ed.")
	want := []string{"origin", "species"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SignificantTokens = %v, want %v", got, want)
	}
}

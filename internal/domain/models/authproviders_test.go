package models

import "testing"

func TestParseAuthProvider(t *testing.T) {
	tests := []struct {
		input  string
		want   AuthProvider
		wantOK bool
	}{
		{"local", ProviderLocal, true},
		{"  Google ", ProviderGoogle, true},
		{"APPLE", ProviderApple, true},
		{"github", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAuthProvider(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseAuthProvider(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAuthProvider_IsSocial(t *testing.T) {
	if ProviderLocal.IsSocial() {
		t.Error("local should not be social")
	}
	if !ProviderGoogle.IsSocial() || !ProviderApple.IsSocial() {
		t.Error("google and apple should be social")
	}
}

package main

import "testing"

func TestParseLoginFlags(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantRemember bool
		wantSSO      bool
	}{
		{"no flags", nil, false, false},
		{"remember long", []string{"--remember"}, true, false},
		{"remember short", []string{"-r"}, true, false},
		{"sso", []string{"--sso"}, false, true},
		{"both", []string{"--sso", "--remember"}, true, true},
		{"unknown ignored", []string{"--verbose"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remember, sso := parseLoginFlags(tt.args)
			if remember != tt.wantRemember || sso != tt.wantSSO {
				t.Errorf("parseLoginFlags(%v) = (%v, %v), want (%v, %v)",
					tt.args, remember, sso, tt.wantRemember, tt.wantSSO)
			}
		})
	}
}

func TestDashboardBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		apiURL string
		want   string
	}{
		{"strips api prefix", "https://api.fleetdeck.io", "https://fleetdeck.io"},
		{"no prefix unchanged", "https://fleetdeck.io", "https://fleetdeck.io"},
		{"keeps port", "http://api.localhost:8080", "http://localhost:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dashboardBaseURL(tt.apiURL); got != tt.want {
				t.Errorf("dashboardBaseURL(%q) = %q, want %q", tt.apiURL, got, tt.want)
			}
		})
	}

	t.Run("env override wins", func(t *testing.T) {
		t.Setenv("FLEETDECK_BASE_URL", "https://dash.example.com")
		if got := dashboardBaseURL("https://api.fleetdeck.io"); got != "https://dash.example.com" {
			t.Errorf("dashboardBaseURL() = %q, want env override", got)
		}
	})
}

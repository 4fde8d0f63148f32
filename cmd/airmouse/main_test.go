package main

import "testing"

func TestDashboardURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://127.0.0.1:8080/"},
		{"127.0.0.1:9000", "http://127.0.0.1:9000/"},
		{"localhost:8080", "http://localhost:8080/"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := dashboardURL(tt.addr); got != tt.want {
				t.Errorf("dashboardURL(%q) = %q, want %q", tt.addr, got, tt.want)
			}
		})
	}
}

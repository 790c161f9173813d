package utils

import "testing"

func TestIsAllowedOriginLocalNetwork(t *testing.T) {
	allowed := []string{
		"http://localhost:8480",
		"https://localhost",
		"http://127.0.0.1:8480",
		"http://192.168.0.42:8480",
		"http://10.1.2.3",
		"http://172.20.0.5:3000",
		"http://169.254.10.10",
		"http://[::1]:8480",
		"http://[fe80::1]",
		"http://[fd00::42]:8480",
		"http://livingroom.local",
		"http://livingroom.local:8480",
		"http://htpc:8480",
	}
	for _, origin := range allowed {
		if !IsAllowedOrigin(origin) {
			t.Errorf("IsAllowedOrigin(%q) = false, want true", origin)
		}
	}
}

func TestIsAllowedOriginRejectsPublic(t *testing.T) {
	blocked := []string{
		"http://example.com",
		"https://player.example.com:8480",
		"http://htpc.local.example.com",
		"http://8.8.8.8",
		"http://203.0.113.7:8480",
		"http://[2001:db8::1]",
		"",
		"not-a-url",
	}
	for _, origin := range blocked {
		if IsAllowedOrigin(origin) {
			t.Errorf("IsAllowedOrigin(%q) = true, want false", origin)
		}
	}
}

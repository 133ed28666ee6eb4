package main

import (
	"testing"
)

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		waitTime int
		tabs     int
		mode     string
		wantErr  bool
	}{
		{"有效参数", "https://example.com/docs", 3, 4, "browser", false},
		{"HTTP模式", "https://example.com/docs", 0, 1, "http", false},
		{"空URL允许", "", 3, 4, "browser", false},
		{"无效URL", "ftp://example.com", 3, 4, "browser", true},
		{"等待时间为负", "https://example.com", -1, 4, "browser", true},
		{"等待时间过大", "https://example.com", 61, 4, "browser", true},
		{"标签页数为零", "https://example.com", 3, 0, "browser", true},
		{"标签页数过大", "https://example.com", 3, 21, "browser", true},
		{"无效模式", "https://example.com", 3, 4, "playwright", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlags(tt.url, tt.waitTime, tt.tabs, tt.mode)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"已有协议保持不变", "https://example.com/docs", "https://example.com/docs", false},
		{"HTTP协议保持不变", "http://example.com", "http://example.com", false},
		{"无协议补全https", "example.com/docs", "https://example.com/docs", false},
		{"裸域名补全https", "example.com", "https://example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

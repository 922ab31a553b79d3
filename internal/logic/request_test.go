package logic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickwarner/admatcher/internal/geoip"
	"github.com/patrickwarner/admatcher/internal/models"
)

func TestBrowserFromUA(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "Windows Chrome",
			ua:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/100.0.4896.75 Safari/537.36",
			want: "chrome",
		},
		{
			name: "Mac Safari",
			ua:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Safari/605.1.15",
			want: "safari",
		},
		{
			name: "Firefox",
			ua:   "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
			want: "firefox",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BrowserFromUA(tt.ua)
			if !strings.Contains(got, tt.want) {
				t.Errorf("expected browser containing %q, got %q", tt.want, got)
			}
			if got != strings.ToLower(got) {
				t.Errorf("expected lower-case browser, got %q", got)
			}
		})
	}
	if got := BrowserFromUA(""); got != "" {
		t.Errorf("empty UA should give empty browser, got %q", got)
	}
}

func TestTimeBuckets(t *testing.T) {
	// 2025-05-24 is a Saturday
	ampm, hour, wov := TimeBuckets(time.Date(2025, 5, 24, 15, 4, 0, 0, time.UTC))
	if ampm != models.PM || hour != "15" || wov != models.Vacation {
		t.Errorf("unexpected buckets %s %s %s", ampm, hour, wov)
	}
	ampm, hour, wov = TimeBuckets(time.Date(2025, 5, 26, 0, 30, 0, 0, time.UTC))
	if ampm != models.AM || hour != "0" || wov != models.Work {
		t.Errorf("unexpected buckets %s %s %s", ampm, hour, wov)
	}
}

func TestResolveRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranges.json")
	if err := os.WriteFile(path, []byte(`[{"net":"10.0.0.0/8","nation":"DE"}]`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	g, err := geoip.Init(path)
	if err != nil {
		t.Fatalf("geoip: %v", err)
	}
	now := time.Date(2025, 5, 26, 9, 0, 0, 0, time.UTC)

	req := ResolveRequest(g, models.RequestFeatures{
		UID:       "u1",
		IP:        "10.2.3.4",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0",
		Hour:      "23",
	}, now)

	if req.Nation != "de" {
		t.Errorf("expected nation from geoip, got %q", req.Nation)
	}
	if req.ReqID == "" {
		t.Error("expected generated request id")
	}
	if !strings.Contains(req.Browser, "firefox") {
		t.Errorf("expected firefox, got %q", req.Browser)
	}
	if req.AMPM != models.AM || req.WorkOrVacation != models.Work {
		t.Errorf("unexpected time buckets %+v", req)
	}
	if req.Hour != "23" {
		t.Errorf("hour sent by caller must be kept, got %q", req.Hour)
	}

	kept := ResolveRequest(nil, models.RequestFeatures{Nation: "US", Browser: "edge", ReqID: "r1"}, now)
	if kept.Nation != "us" || kept.Browser != "edge" || kept.ReqID != "r1" {
		t.Errorf("caller fields not kept: %+v", kept)
	}
}

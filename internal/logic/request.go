package logic

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/google/uuid"

	"github.com/patrickwarner/admatcher/internal/geoip"
	"github.com/patrickwarner/admatcher/internal/models"
)

// BrowserFromUA parses a raw User-Agent string into a lower-case browser
// family name such as "chrome" or "safari". Unknown agents yield "unknown".
func BrowserFromUA(ua string) string {
	if ua == "" {
		return ""
	}
	u := uasurfer.Parse(ua)
	name := strings.TrimPrefix(u.Browser.Name.String(), "Browser")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(name)
}

// TimeBuckets returns the am/pm bucket, the hour and the work/vacation flag for t.
func TimeBuckets(t time.Time) (ampm, hour, workOrVacation string) {
	ampm = models.AM
	if t.Hour() >= 12 {
		ampm = models.PM
	}
	workOrVacation = models.Work
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		workOrVacation = models.Vacation
	}
	return ampm, strconv.Itoa(t.Hour()), workOrVacation
}

// ResolveRequest fills the request fields the caller left empty: the browser
// from the User-Agent, the nation from the IP, the time buckets from now and a
// fresh request id. Fields already set are kept as sent.
func ResolveRequest(g *geoip.GeoIP, req models.RequestFeatures, now time.Time) models.RequestFeatures {
	if req.ReqID == "" {
		req.ReqID = uuid.NewString()
	}
	if req.Browser == "" {
		req.Browser = BrowserFromUA(req.UserAgent)
	}
	if req.Nation == "" {
		if ip := net.ParseIP(req.IP); ip != nil {
			req.Nation = g.Nation(ip)
		}
	}
	req.Nation = strings.ToLower(req.Nation)

	ampm, hour, wov := TimeBuckets(now)
	if req.AMPM == "" {
		req.AMPM = ampm
	}
	if req.Hour == "" {
		req.Hour = hour
	}
	if req.WorkOrVacation == "" {
		req.WorkOrVacation = wov
	}
	return req
}

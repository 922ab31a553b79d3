package geoip

import (
	"encoding/json"
	"net"
	"os"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// GeoIP resolves the market ("nation") of a client IP using a MaxMind
// country database, or a JSON list of CIDR ranges when the file is not an
// mmdb database.
type GeoIP struct {
	db     *geoip2.Reader
	ranges []nationRange
}

type nationRange struct {
	net    *net.IPNet
	nation string
}

// Init opens the database at path. A JSON fallback file has the form
// [{"net": "10.0.0.0/8", "nation": "us"}].
func Init(path string) (*GeoIP, error) {
	db, err := geoip2.Open(path)
	if err == nil {
		return &GeoIP{db: db}, nil
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		return nil, err
	}
	var entries []struct {
		Net    string `json:"net"`
		Nation string `json:"nation"`
	}
	if jerr := json.Unmarshal(data, &entries); jerr != nil {
		return nil, err
	}
	g := &GeoIP{}
	for _, e := range entries {
		if _, n, perr := net.ParseCIDR(e.Net); perr == nil {
			g.ranges = append(g.ranges, nationRange{net: n, nation: strings.ToLower(e.Nation)})
		}
	}
	return g, nil
}

// Nation returns the lower-case ISO country code for ip, or "" when unknown.
// Feature keys are stored under lower-case nation codes.
func (g *GeoIP) Nation(ip net.IP) string {
	if g == nil || ip == nil {
		return ""
	}
	if g.db != nil {
		if rec, err := g.db.Country(ip); err == nil && rec.Country.IsoCode != "" {
			return strings.ToLower(rec.Country.IsoCode)
		}
	}
	for _, r := range g.ranges {
		if r.net.Contains(ip) {
			return r.nation
		}
	}
	return ""
}

// Close releases resources associated with the database.
func (g *GeoIP) Close() error {
	if g != nil && g.db != nil {
		return g.db.Close()
	}
	return nil
}

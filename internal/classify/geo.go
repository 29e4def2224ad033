// Package classify derives click metadata (geography, device, referrer
// source) from raw request attributes. Every classifier degrades to
// unknown values instead of failing; a click is never lost to a bad
// user-agent or an unresolvable IP.
package classify

import (
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// Geo holds the resolved location of an IP address. Nil fields mean the
// address could not be resolved.
type Geo struct {
	Country *string
	City    *string
}

// GeoClassifier resolves IPs against a local MaxMind City database. A
// classifier built without a database is valid and resolves nothing.
type GeoClassifier struct {
	reader *geoip2.Reader
	logger *zap.Logger
}

// NewGeoClassifier opens the mmdb file at path. An empty path disables
// lookups; an unreadable file is logged and likewise disables lookups
// rather than preventing startup.
func NewGeoClassifier(path string, logger *zap.Logger) *GeoClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &GeoClassifier{logger: logger}
	if path == "" {
		return g
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		logger.Warn("geoip database unavailable, geo enrichment disabled",
			zap.String("path", path), zap.Error(err))
		return g
	}
	g.reader = reader
	return g
}

// Classify maps an IP string to country and city names. Unknown, private
// or malformed addresses yield empty results, never an error.
func (g *GeoClassifier) Classify(ipAddress string) Geo {
	if g.reader == nil || ipAddress == "" {
		return Geo{}
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Geo{}
	}

	record, err := g.reader.City(ip)
	if err != nil {
		g.logger.Debug("geoip lookup failed", zap.String("ip", ipAddress), zap.Error(err))
		return Geo{}
	}

	var result Geo
	if name := record.Country.Names["en"]; name != "" {
		result.Country = &name
	}
	if name := record.City.Names["en"]; name != "" {
		result.City = &name
	}
	return result
}

// Close releases the underlying database handle.
func (g *GeoClassifier) Close() error {
	if g.reader == nil {
		return nil
	}
	return g.reader.Close()
}

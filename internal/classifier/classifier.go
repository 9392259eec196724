// Package classifier turns raw request metadata (user-agent string, client
// IP) into the device and location shapes stored on click events. It is a
// best-effort heuristic: unrecognized agents fall back to "unknown" buckets
// and a missing geolocation source yields an empty location, never an error.
package classifier

import "strings"

// Device is the parsed device shape attached to a click event.
type Device struct {
	Type    string `json:"type"` // mobile, desktop or tablet
	OS      string `json:"os"`
	Browser string `json:"browser"`
}

// Location is a best-effort geolocation result. The zero value is valid and
// means "no geolocation source configured".
type Location struct {
	Country   string  `json:"country,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// GeoResolver maps a source IP to a location. Implementations wrap whatever
// geolocation database is deployed; the service runs fine without one.
type GeoResolver interface {
	Locate(ip string) Location
}

// NoopGeoResolver is the default GeoResolver: every lookup returns the empty
// location.
type NoopGeoResolver struct{}

func (NoopGeoResolver) Locate(string) Location { return Location{} }

// Tablet signatures are checked before mobile ones: most tablet agents also
// carry a mobile token.
var tabletSignatures = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

var mobileSignatures = []string{
	"mobile", "iphone", "ipod", "android", "blackberry",
	"windows phone", "opera mini", "webos",
}

// Ordered first-match-wins tables. More specific tokens come before the
// umbrella family they would otherwise be swallowed by (edg/ before chrome,
// chrome before safari).
var osPatterns = []struct{ token, name string }{
	{"windows phone", "Windows Phone"},
	{"windows nt", "Windows"},
	{"android", "Android"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"mac os x", "macOS"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
}

var browserPatterns = []struct{ token, name string }{
	{"edg/", "Edge"},
	{"edge/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser", "Samsung Internet"},
	{"firefox", "Firefox"},
	{"fxios", "Firefox"},
	{"crios", "Chrome"},
	{"chrome", "Chrome"},
	{"safari", "Safari"},
	{"msie", "Internet Explorer"},
	{"trident", "Internet Explorer"},
}

// ClassifyDevice parses a raw user-agent string into a device category, OS
// and browser. It never fails: anything unrecognized is reported as a
// desktop running an unknown OS/browser.
func ClassifyDevice(userAgent string) Device {
	ua := strings.ToLower(userAgent)

	device := Device{Type: "desktop", OS: "unknown", Browser: "unknown"}
	if ua == "" {
		return device
	}

	for _, sig := range tabletSignatures {
		if strings.Contains(ua, sig) {
			device.Type = "tablet"
			break
		}
	}
	if device.Type == "desktop" {
		for _, sig := range mobileSignatures {
			if strings.Contains(ua, sig) {
				device.Type = "mobile"
				break
			}
		}
	}

	for _, p := range osPatterns {
		if strings.Contains(ua, p.token) {
			device.OS = p.name
			break
		}
	}

	for _, p := range browserPatterns {
		if strings.Contains(ua, p.token) {
			device.Browser = p.name
			break
		}
	}

	return device
}

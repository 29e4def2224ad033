package classify

import (
	"strings"

	"github.com/mileusna/useragent"
)

// Device types attached to click events.
const (
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceDesktop = "Desktop"
)

// Device holds what could be derived from a user-agent string. DeviceType
// is always one of the three known classes; Browser and OS stay nil when
// the user-agent gives nothing to work with.
type Device struct {
	DeviceType string
	Browser    *string
	OS         *string
}

// ClassifyDevice parses a raw user-agent string. Tablets are checked
// before phones: tablet user-agents usually carry mobile markers too, and
// the generic mobile check would swallow them.
func ClassifyDevice(rawUA string) Device {
	result := Device{DeviceType: DeviceDesktop}
	if strings.TrimSpace(rawUA) == "" {
		return result
	}

	ua := useragent.Parse(rawUA)

	switch {
	case ua.Tablet:
		result.DeviceType = DeviceTablet
	case ua.Mobile:
		result.DeviceType = DeviceMobile
	default:
		result.DeviceType = DeviceDesktop
	}

	if ua.Name != "" {
		name := ua.Name
		result.Browser = &name
	}
	if ua.OS != "" {
		os := ua.OS
		result.OS = &os
	}
	return result
}

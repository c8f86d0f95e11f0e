package device

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
)

// Information about a system's compute platform and supported devices.
type PlatformInfo struct {
	Profile    string
	Version    string
	Name       string
	Vendor     string
	Extensions string
	Devices    []*Device
}

func (pl PlatformInfo) String() string {
	var buf bytes.Buffer

	buf.WriteString(
		fmt.Sprintf(
			"Version:    %s\nName:       %s\nVendor:     %s\nExtensions: %s\nDevices:\n",
			pl.Version,
			pl.Name,
			pl.Vendor,
			pl.Extensions,
		),
	)

	for dIdx, d := range pl.Devices {
		buf.WriteString(fmt.Sprintf("  Device %02d:\n", dIdx))
		buf.WriteString(indentRegex.ReplaceAllString(d.String(), "    "))
		buf.WriteString("\n\n")
	}

	return buf.String()
}

// Get information about the supported platforms and devices. The host
// platform exposes a parallel CPU device that uses one worker per available
// CPU and a serial CPU device that evaluates work groups one at a time.
func GetPlatformInfo() ([]PlatformInfo, error) {
	host := PlatformInfo{
		Profile:    "FULL_PROFILE",
		Version:    runtime.Version(),
		Name:       "Host",
		Vendor:     runtime.Compiler,
		Extensions: fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		Devices: []*Device{
			{
				Name:    fmt.Sprintf("Parallel CPU (%s)", runtime.GOARCH),
				Type:    CpuDevice,
				Workers: runtime.GOMAXPROCS(0),
			},
			{
				Name:    fmt.Sprintf("Serial CPU (%s)", runtime.GOARCH),
				Type:    CpuDevice,
				Workers: 1,
			},
		},
	}

	// Enumerate speed for all platform devices
	for _, dev := range host.Devices {
		dev.detectSpeed()
	}

	return []PlatformInfo{host}, nil
}

// Scan all available platforms and select devices that match the given query.
func SelectDevices(typeMask DeviceType, matchName string) ([]*Device, error) {
	platforms, err := GetPlatformInfo()
	if err != nil {
		return nil, err
	}
	list := make([]*Device, 0)
	for _, p := range platforms {
		for _, d := range p.Devices {
			// Match type
			if d.Type&typeMask != d.Type {
				continue
			}

			// Match name
			if matchName != "" && !strings.Contains(d.Name, matchName) {
				continue
			}

			list = append(list, d)
		}
	}
	return list, nil
}

package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/octree/device"
	"github.com/urfave/cli"
)

// List available compute devices.
func ListDevices(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	var storage []byte
	buf := bytes.NewBuffer(storage)

	platforms, err := device.GetPlatformInfo()
	if err != nil {
		return err
	}
	buf.WriteString(fmt.Sprintf("\nSystem provides %d compute platform(s):\n\n", len(platforms)))
	for pIdx, platformInfo := range platforms {
		buf.WriteString(fmt.Sprintf("[Platform %02d]\n  Name    %s\n  Version %s\n  Profile %s\n  Devices %d\n\n", pIdx, platformInfo.Name, platformInfo.Version, platformInfo.Profile, len(platformInfo.Devices)))
		for dIdx, dev := range platformInfo.Devices {
			buf.WriteString(fmt.Sprintf("  [Device %02d]\n    Name    %s\n    Type    %s\n    Workers %d\n    Speed   %d\n\n", dIdx, dev.Name, dev.Type, dev.Workers, dev.Speed))
		}
	}

	logger.Notice(buf.String())
	return nil
}

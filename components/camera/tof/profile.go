package tof

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"go.viam.com/tofviewer/logging"
	"go.viam.com/tofviewer/rimage"
)

const (
	// DefaultDepthWidth is the nominal depth width when no override matches.
	DefaultDepthWidth = 240
	// DefaultDepthHeight is the nominal depth height when no override matches.
	DefaultDepthHeight = 180
	// DefaultCameraID is used when enumeration fails.
	DefaultCameraID = "0"
)

// ResolutionOverride pins the depth resolution of every device model starting with Prefix.
type ResolutionOverride struct {
	Prefix   string
	Width    int
	Height   int
	Sampling rimage.SamplingPolicy
}

// resolutionOverrides is evaluated in order; the first matching prefix wins.
var resolutionOverrides = []ResolutionOverride{
	// Galaxy Note 10 / Note 10 5G
	{Prefix: "D1", Width: 320, Height: 240, Sampling: rimage.RowHalving},
	// Galaxy Note 10+ / Note 10+ 5G
	{Prefix: "D2", Width: 320, Height: 240, Sampling: rimage.RowHalving},
	{Prefix: "SC-01M", Width: 320, Height: 240, Sampling: rimage.RowHalving},
	{Prefix: "SCV45", Width: 320, Height: 240, Sampling: rimage.RowHalving},
}

// ResolutionOverrides returns a copy of the static override table.
func ResolutionOverrides() []ResolutionOverride {
	return append([]ResolutionOverride(nil), resolutionOverrides...)
}

// NominalResolution returns the depth resolution and sampling policy for a device model. Prefixes
// match case-insensitively.
func NominalResolution(model string) (int, int, rimage.SamplingPolicy) {
	upper := strings.ToUpper(model)
	override, ok := lo.Find(resolutionOverrides, func(o ResolutionOverride) bool {
		return strings.HasPrefix(upper, o.Prefix)
	})
	if !ok {
		return DefaultDepthWidth, DefaultDepthHeight, rimage.RowHalving
	}
	return override.Width, override.Height, override.Sampling
}

// DeviceProfile is resolved once at startup.
type DeviceProfile struct {
	Model    string
	Width    int
	Height   int
	Sampling rimage.SamplingPolicy
	CameraID string
}

// ResolveProfile computes the profile for model, choosing the depth camera through manager. If no
// camera can be chosen the failure is logged and DefaultCameraID is kept.
func ResolveProfile(ctx context.Context, model string, manager CameraManager, logger logging.Logger) DeviceProfile {
	width, height, sampling := NominalResolution(model)
	profile := DeviceProfile{
		Model:    model,
		Width:    width,
		Height:   height,
		Sampling: sampling,
		CameraID: DefaultCameraID,
	}

	if manager != nil {
		id, err := SelectDepthCamera(ctx, manager)
		if err != nil {
			logger.Warnw("could not select depth camera, using default", "camera_id", DefaultCameraID, "error", err)
		} else {
			profile.CameraID = id
		}
	}

	logger.Infow("resolved device profile",
		"model", model,
		"width", profile.Width,
		"height", profile.Height,
		"sampling", profile.Sampling.String(),
		"camera_id", profile.CameraID,
	)
	return profile
}

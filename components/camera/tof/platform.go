package tof

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// DeviceModelProperty names the system property holding the device model code.
const DeviceModelProperty = "ro.product.device"

// PropertyReader reads one system property.
type PropertyReader func(ctx context.Context, name string) (string, error)

// GetProp reads a property with the platform getprop tool.
func GetProp(ctx context.Context, name string) (string, error) {
	out, err := exec.CommandContext(ctx, "getprop", name).Output()
	if err != nil {
		return "", errors.Wrapf(err, "getprop %s", name)
	}
	return strings.TrimSpace(string(out)), nil
}

// DeviceModel returns the device model code, e.g. "d1q".
func DeviceModel(ctx context.Context, read PropertyReader) (string, error) {
	if read == nil {
		read = GetProp
	}
	model, err := read(ctx, DeviceModelProperty)
	if err != nil {
		return "", err
	}
	if model == "" {
		return "", errors.Errorf("%s is empty", DeviceModelProperty)
	}
	return model, nil
}

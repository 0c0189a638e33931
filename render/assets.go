package render

import (
	"io"
	"io/fs"

	"github.com/pkg/errors"
	"golang.org/x/mobile/asset"
)

const (
	// VertexShaderAsset is the logical path of the point cloud vertex shader.
	VertexShaderAsset = "shaders/depthmap.vert"
	// FragmentShaderAsset is the logical path of the color passthrough fragment shader.
	FragmentShaderAsset = "shaders/depthmap.frag"
)

// AssetOpener opens a named asset.
type AssetOpener func(name string) (io.ReadCloser, error)

// MobileAssets opens assets bundled with the app (the assets directory next to the main package).
func MobileAssets(name string) (io.ReadCloser, error) {
	return asset.Open(name)
}

// FSAssets opens assets from fsys.
func FSAssets(fsys fs.FS) AssetOpener {
	return func(name string) (io.ReadCloser, error) {
		return fsys.Open(name)
	}
}

func loadAsset(open AssetOpener, name string) (string, error) {
	rc, err := open(name)
	if err != nil {
		return "", errors.Wrapf(ErrShaderAssetMissing, "%s: %v", name, err)
	}
	defer func() {
		// nothing useful to do with a close error on a read-only asset
		_ = rc.Close()
	}()

	src, err := io.ReadAll(rc)
	if err != nil {
		return "", errors.Wrapf(ErrShaderAssetMissing, "%s: %v", name, err)
	}
	return string(src), nil
}

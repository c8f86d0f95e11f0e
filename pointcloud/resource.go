package pointcloud

import (
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/achilleasa/octree/types"
)

// A Resource is a streamable point cloud file which may be stored locally or
// fetched over http/https.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a point cloud resource. Paths with an http or https scheme are fetched
// using the net/http package; everything else is treated as a local file.
// The caller must close the returned resource.
func OpenResource(pathToResource string) (*Resource, error) {
	// Replace backslashes with forward slashes and try parsing as a URL
	resURL, err := url.Parse(strings.ReplaceAll(pathToResource, `\`, `/`))
	if err != nil {
		return nil, errors.Wrapf(err, "resource: invalid path %q", pathToResource)
	}

	var reader io.ReadCloser
	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, errors.Wrap(err, "resource")
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, errors.Wrapf(err, "resource: could not fetch '%s'", resURL)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("resource: could not fetch '%s': status %d", resURL, resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, errors.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}

// Load reads a PCD point cloud from a local file or http/https URL.
func Load(pathToResource string) (points []types.Vec4, err error) {
	res, err := OpenResource(pathToResource)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, errors.Wrapf(res.Close(), "resource: could not close '%s'", res.Path()))
	}()

	points, err = ReadPCD(res)
	if err != nil {
		return nil, errors.Wrapf(err, "resource: could not parse '%s'", res.Path())
	}
	return points, nil
}

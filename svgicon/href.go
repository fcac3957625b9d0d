package svgicon

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

var errRemoteHref = errors.New("remote image reference")

// resolveHref fills the Path or Data field of `img`
// from its Href.
func (c *docCursor) resolveHref(img *ImageRef) error {
	href := img.Href
	if strings.HasPrefix(href, "data:") {
		data, err := decodeDataURI(href)
		if err != nil {
			return err
		}
		img.Data = data
		return nil
	}

	if filepath.VolumeName(href) != "" { // windows absolute path
		img.Path = filepath.Clean(href)
		return nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("invalid image reference: %s", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "":
		path := filepath.FromSlash(u.Path)
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.doc.BaseDir, path)
		}
		img.Path = path
	case "file":
		img.Path = filepath.FromSlash(u.Path)
	default:
		return errRemoteHref
	}
	return nil
}

// decodeDataURI returns the content of a data: URI,
// whose media type is ignored.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errors.New("invalid data URI: missing ','")
	}
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		payload = strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// some encoders omit the padding
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid data URI: %s", err)
		}
		return data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid data URI: %s", err)
	}
	return []byte(data), nil
}

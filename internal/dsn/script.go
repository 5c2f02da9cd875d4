// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net/url"
	"strings"
)

// ScriptResolver handles script web app URLs.
type ScriptResolver struct{}

// Parse validates an https web app URL. The cache-busting t parameter is
// dropped; the store adds its own.
func (ScriptResolver) Parse(endpoint string) (*Info, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, NewParseError(endpoint, "malformed URL", "copy the web app URL from the deployment dialog")
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return nil, NewParseError(endpoint, "script endpoints must use https", "")
	}
	if u.Hostname() == "" {
		return nil, NewParseError(endpoint, "missing host", "copy the web app URL from the deployment dialog")
	}
	info := &Info{
		Kind:     KindScript,
		Host:     u.Hostname(),
		Port:     u.Port(),
		Path:     strings.TrimRight(u.Path, "/"),
		Secure:   true,
		Params:   make(map[string]string),
		Original: endpoint,
	}
	for k, v := range u.Query() {
		if k != "t" && len(v) > 0 {
			info.Params[k] = v[0]
		}
	}
	return info, nil
}

// Normalize rebuilds the URL without a trailing slash or cache buster.
func (ScriptResolver) Normalize(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil endpoint info", "")
	}
	host := info.Host
	if info.Port != "" {
		host += ":" + info.Port
	}
	u := url.URL{Scheme: "https", Host: host, Path: info.Path}
	if len(info.Params) > 0 {
		q := url.Values{}
		for k, v := range info.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

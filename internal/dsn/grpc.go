// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"net"
	"strings"
)

// GRPCResolver handles grpc://host:port and grpcs://host[:port] endpoints.
type GRPCResolver struct{}

// Parse splits the address. grpcs uses TLS and defaults to port 443; plain
// grpc requires an explicit port.
func (GRPCResolver) Parse(endpoint string) (*Info, error) {
	info := &Info{Kind: KindGRPC, Params: map[string]string{}, Original: endpoint}
	var addr string
	switch lower := strings.ToLower(endpoint); {
	case strings.HasPrefix(lower, "grpcs://"):
		info.Secure = true
		addr = endpoint[len("grpcs://"):]
	case strings.HasPrefix(lower, "grpc://"):
		addr = endpoint[len("grpc://"):]
	default:
		return nil, NewParseError(endpoint, "missing or invalid scheme", "use grpc://host:port or grpcs://host")
	}
	addr = strings.TrimRight(addr, "/")

	host, port, err := net.SplitHostPort(addr)
	switch {
	case err == nil:
		info.Host, info.Port = host, port
	case info.Secure:
		info.Host, info.Port = addr, "443"
	default:
		return nil, NewParseError(endpoint, "missing port", "use grpc://host:port, for example grpc://localhost:7070")
	}
	if info.Host == "" {
		return nil, NewParseError(endpoint, "missing host", "use grpc://host:port")
	}
	if !numeric(info.Port) {
		return nil, NewParseError(endpoint, "invalid port number: "+info.Port, "port must be numeric")
	}
	return info, nil
}

// Normalize returns the scheme with host:port.
func (GRPCResolver) Normalize(info *Info) (string, error) {
	if info == nil {
		return "", NewParseError("", "nil endpoint info", "")
	}
	scheme := "grpc://"
	if info.Secure {
		scheme = "grpcs://"
	}
	return scheme + net.JoinHostPort(info.Host, info.Port), nil
}

// Address returns host:port for dialing.
func (i *Info) Address() string {
	return net.JoinHostPort(i.Host, i.Port)
}

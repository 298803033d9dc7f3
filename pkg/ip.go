package pkg

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

var (
	localDockerIpRegex = regexp.MustCompile(`^172\.\d{1,3}\.0\.1:\d{1,5}`)
)

func IPIsLocal(ipAddr string) bool {
	// used in local development ?
	if strings.HasPrefix(ipAddr, "127.0.0.1:") || strings.HasPrefix(ipAddr, "[::1]:") {
		return true
	}

	// user within docker container ?
	return localDockerIpRegex.MatchString(ipAddr)
}

// ReadUserIP prefers the headers set by the reverse proxy over the remote addr.
func ReadUserIP(r *http.Request) (string, error) {
	ipAddr := r.Header.Get("X-Real-Ip")
	if ipAddr == "" {
		// first entry is the client, the rest are proxies
		ipAddr, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		ipAddr = strings.TrimSpace(ipAddr)
	}
	if ipAddr == "" {
		ipAddr = r.RemoteAddr
	}

	if IPIsLocal(ipAddr) {
		return "localhost", nil
	}

	if host, _, err := net.SplitHostPort(ipAddr); err == nil {
		ipAddr = host
	}
	if net.ParseIP(ipAddr) == nil {
		return "", fmt.Errorf("ip addr %s is invalid", ipAddr)
	}

	return ipAddr, nil
}

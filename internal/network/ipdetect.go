package network

import (
	"fmt"
	"net"
	"regexp"
)

// IPv4Addresses returns the IPv4 addresses of all up, non-loopback interfaces.
func IPv4Addresses() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() || ip.To4() == nil {
				continue
			}
			ips = append(ips, ip.String())
		}
	}
	return ips, nil
}

// PreferredIP picks the first address matching pattern, or the first address
// when pattern is empty or nothing matches. It returns "" for an empty list.
func PreferredIP(addrs []string, pattern string) (string, error) {
	var re *regexp.Regexp
	if pattern != "" {
		var err error
		if re, err = regexp.Compile(pattern); err != nil {
			return "", fmt.Errorf("invalid IP pattern %q: %w", pattern, err)
		}
	}
	if len(addrs) == 0 {
		return "", nil
	}
	if re == nil {
		return addrs[0], nil
	}
	for _, ip := range addrs {
		if re.MatchString(ip) {
			return ip, nil
		}
	}
	return addrs[0], nil
}

package device

import (
	"net"
	"strings"
)

// ResolveDeviceID returns the first IPv4 address assigned to the named
// network interface, or the fallback when the interface is missing or has no
// usable address. By convention the device identifies itself by its IP.
func ResolveDeviceID(interfaceName, fallback string) string {
	fallback = strings.TrimSpace(fallback)
	if fallback == "" {
		fallback = "Unknown"
	}

	ifi, err := net.InterfaceByName(strings.TrimSpace(interfaceName))
	if err != nil {
		return fallback
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return fallback
	}
	return firstIPv4(addrs, fallback)
}

func firstIPv4(addrs []net.Addr, fallback string) string {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() {
			continue
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return fallback
}

package nets

import "net"

type IsLocalAddr func(addr string) bool

func (Module) IsLocalAddr() IsLocalAddr {
	return func(addr string) bool {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			// no port
			host = addr
		}
		if ip := net.ParseIP(host); ip != nil {
			return isLocalIP(ip)
		}
		ips, err := net.LookupIP(host)
		if err != nil {
			// unknown hosts go through the proxy
			return false
		}
		for _, ip := range ips {
			if isLocalIP(ip) {
				return true
			}
		}
		return false
	}
}

func isLocalIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

package risk

import "net"

// Countries under sanctions or with outsized fraud chargeback ratios.
// ISO 3166-1 alpha-2.
var highRiskCountries = map[string]bool{
	"CN": true,
	"RU": true,
	"KP": true,
	"IR": true,
	"SY": true,
	"CU": true,
	"MM": true,
}

// Known anonymizing infrastructure. Datacenter egress ranges catch most
// commercial VPN exits; the proxy ranges cover documented Tor exit blocks.
var anonymizedCIDRs = []string{
	// datacenter egress
	"34.0.0.0/8",
	"35.0.0.0/8",
	"52.0.0.0/8",
	"54.0.0.0/8",
	// proxy / Tor exits
	"185.220.100.0/22",
	"199.87.154.0/24",
}

var privateCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
}

var (
	anonymizedNets []*net.IPNet
	privateNets    []*net.IPNet
)

func init() {
	anonymizedNets = parseCIDRs(anonymizedCIDRs)
	privateNets = parseCIDRs(privateCIDRs)
}

func parseCIDRs(blocks []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, network, err := net.ParseCIDR(block)
		if err != nil {
			continue
		}
		nets = append(nets, network)
	}
	return nets
}

func isHighRiskCountry(country string) bool {
	return highRiskCountries[country]
}

// isAnonymizedIP reports whether the address sits in a known VPN, proxy or
// datacenter range. Empty, unparseable and private addresses contribute
// nothing.
func isAnonymizedIP(ip string) bool {
	if ip == "" {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range privateNets {
		if network.Contains(parsed) {
			return false
		}
	}
	for _, network := range anonymizedNets {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

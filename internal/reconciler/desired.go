package reconciler

import (
	"fmt"
	"strings"

	"github.com/caimel/mediacore/internal/models"
)

// sshHelperName returns the reserved, always-unproxied helper hostname
// for base, using the fixed "ssh-3afb6505" prefix.
func sshHelperName(base string) string {
	return strings.ToLower(fmt.Sprintf("ssh-3afb6505.%s", base))
}

// shouldProxy reports whether hostname should have Cloudflare's proxy
// flag set: unproxied iff the hostname is the reserved helper name or
// ends with "-d.<base>"; proxied otherwise. The root record is handled
// separately and is always proxied.
func shouldProxy(hostname, base string) bool {
	if hostname == sshHelperName(base) {
		return false
	}
	if strings.HasSuffix(hostname, "-d."+strings.ToLower(base)) {
		return false
	}
	return true
}

// DesiredState builds the desired (hostname -> DNSRecord) set from the
// extracted hostname list plus the fixed reserved set.
func DesiredState(extracted []string, base, ip string) map[string]models.DNSRecord {
	base = strings.ToLower(base)
	helper := sshHelperName(base)

	desired := map[string]models.DNSRecord{
		base: {Name: base, Content: ip, Proxied: true},
		helper: {
			Name:    helper,
			Content: ip,
			Proxied: false,
		},
	}

	for _, h := range extracted {
		h = strings.ToLower(h)
		if h == helper {
			continue
		}
		desired[h] = models.DNSRecord{Name: h, Content: ip, Proxied: shouldProxy(h, base)}
	}

	return desired
}

package reconciler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
)

// ipv4Pattern validates a dotted-quad response body.
var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

const ipEchoTimeout = 5 * time.Second

// IPEchoResolver resolves the current external IPv4 address by falling
// through a prioritized list of IP-echo services, accepting the first
// valid dotted-quad response.
type IPEchoResolver struct {
	services   []string
	httpClient *http.Client
	logger     *common.Logger
}

// NewIPEchoResolver builds a resolver trying services in order.
func NewIPEchoResolver(services []string, logger *common.Logger) *IPEchoResolver {
	return &IPEchoResolver{
		services:   services,
		httpClient: &http.Client{Timeout: ipEchoTimeout},
		logger:     logger,
	}
}

// ResolveIPv4 tries each configured service in turn, per-service timeout
// of 5s, returning the first valid response.
func (r *IPEchoResolver) ResolveIPv4(ctx context.Context) (string, error) {
	for _, service := range r.services {
		ip, err := r.fetch(ctx, service)
		if err != nil {
			r.logger.Warn().Str("service", service).Err(err).Msg("ip-echo service failed")
			continue
		}
		if ip != "" {
			return ip, nil
		}
	}
	return "", fmt.Errorf("reconciler: failed to resolve external IP from any configured service")
}

func (r *IPEchoResolver) fetch(ctx context.Context, service string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, ipEchoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, service, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if !ipv4Pattern.MatchString(ip) {
		return "", fmt.Errorf("invalid IPv4 response %q", ip)
	}
	return ip, nil
}

var _ interfaces.IPResolver = (*IPEchoResolver)(nil)

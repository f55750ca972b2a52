package reconciler

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/interfaces"
)

// probeTimeout bounds the cheap TCP liveness probe the throttled tick
// uses in place of a full pass.
const probeTimeout = 5 * time.Second

// Config holds reconciler tuning parameters.
type Config struct {
	DomainBase        string
	TraefikConfigPath string
	FingerprintPath   string
	HealthPath        string
}

// Reconciler orchestrates full convergence passes and the throttled
// liveness tick that decides when a full pass is actually needed.
type Reconciler struct {
	cfg      Config
	provider interfaces.DNSProvider
	ip       interfaces.IPResolver
	logger   *common.Logger
}

// New builds a Reconciler.
func New(cfg Config, provider interfaces.DNSProvider, ip interfaces.IPResolver, logger *common.Logger) *Reconciler {
	return &Reconciler{cfg: cfg, provider: provider, ip: ip, logger: logger}
}

// Tick runs the throttled liveness check: if the source fingerprint has
// drifted, run a full pass; otherwise probe the helper hostname and run
// a full pass only if the probe fails. Either successful branch touches
// the health-timestamp file.
func (r *Reconciler) Tick(ctx context.Context) error {
	current, err := Fingerprint(r.cfg.TraefikConfigPath)
	if err != nil {
		return err
	}
	persisted, err := readFingerprint(r.cfg.FingerprintPath)
	if err != nil {
		return err
	}

	if persisted == "" || current != persisted {
		r.logger.Info().Msg("reconciler: source fingerprint changed, running full pass")
		if err := r.FullPass(ctx); err != nil {
			return err
		}
		return touchHealth(r.cfg.HealthPath)
	}

	if r.probeHelper(ctx) {
		r.logger.Debug().Msg("reconciler: liveness probe passed, skipping full pass")
		return touchHealth(r.cfg.HealthPath)
	}

	r.logger.Warn().Msg("reconciler: liveness probe failed, running full pass")
	if err := r.FullPass(ctx); err != nil {
		return err
	}
	return touchHealth(r.cfg.HealthPath)
}

// probeHelper performs a cheap TCP connect to the reserved helper
// hostname on port 22.
func (r *Reconciler) probeHelper(ctx context.Context) bool {
	host := sshHelperName(r.cfg.DomainBase)
	d := net.Dialer{Timeout: probeTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, "22"))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// FullPass runs the complete convergence algorithm: resolve IP, resolve
// zone, list records, diff against desired state, create/update/prune,
// then advance the persisted fingerprint.
func (r *Reconciler) FullPass(ctx context.Context) error {
	extracted, err := ExtractHostnames(r.cfg.TraefikConfigPath)
	if err != nil {
		return err
	}
	if len(extracted) == 0 {
		r.logger.Warn().Msg("reconciler: no hostnames found in source; static entries only, pruning skipped")
	}

	ip, err := r.ip.ResolveIPv4(ctx)
	if err != nil {
		return err
	}

	zoneID, err := r.provider.ZoneID(ctx, r.cfg.DomainBase)
	if err != nil {
		return err
	}

	existing, err := r.provider.ListRecords(ctx, zoneID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]string, len(existing)) // name -> record id
	existingContent := make(map[string]string, len(existing))
	existingProxied := make(map[string]bool, len(existing))
	for _, rec := range existing {
		name := strings.ToLower(rec.Name)
		existingByName[name] = rec.ID
		existingContent[name] = rec.Content
		existingProxied[name] = rec.Proxied
	}

	desired := DesiredState(extracted, r.cfg.DomainBase, ip)

	failures := 0
	for name, want := range desired {
		if id, ok := existingByName[name]; ok {
			if existingContent[name] != want.Content || existingProxied[name] != want.Proxied {
				if err := r.provider.UpdateRecord(ctx, zoneID, id, want); err != nil {
					r.logger.Warn().Str("hostname", name).Err(err).Msg("reconciler: update failed")
					failures++
					continue
				}
				r.logger.Info().Str("hostname", name).Str("ip", ip).Msg("reconciler: updated record")
			}
		} else {
			if err := r.provider.CreateRecord(ctx, zoneID, want); err != nil {
				r.logger.Warn().Str("hostname", name).Err(err).Msg("reconciler: create failed")
				failures++
				continue
			}
			r.logger.Info().Str("hostname", name).Str("ip", ip).Msg("reconciler: created record")
		}
	}

	if len(extracted) > 0 {
		base := strings.ToLower(r.cfg.DomainBase)
		for _, rec := range existing {
			name := strings.ToLower(rec.Name)
			if _, wanted := desired[name]; wanted {
				continue
			}
			if !strings.HasSuffix(name, "."+base) {
				continue
			}
			if err := r.provider.DeleteRecord(ctx, zoneID, rec.ID); err != nil {
				r.logger.Warn().Str("hostname", name).Err(err).Msg("reconciler: delete failed")
				failures++
				continue
			}
			r.logger.Info().Str("hostname", name).Msg("reconciler: removed orphaned record")
		}
	}

	if failures > 0 {
		return fmt.Errorf("reconciler: full pass completed with %d record failures", failures)
	}

	newFingerprint, err := Fingerprint(r.cfg.TraefikConfigPath)
	if err != nil {
		return err
	}
	return writeFingerprint(r.cfg.FingerprintPath, newFingerprint)
}

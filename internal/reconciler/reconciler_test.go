package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/models"
)

type fakeProvider struct {
	zoneID     string
	records    []models.DNSRecord
	created    []models.DNSRecord
	updated    []models.DNSRecord
	deletedIDs []string
}

func (f *fakeProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	return f.zoneID, nil
}

func (f *fakeProvider) ListRecords(ctx context.Context, zoneID string) ([]models.DNSRecord, error) {
	return f.records, nil
}

func (f *fakeProvider) CreateRecord(ctx context.Context, zoneID string, rec models.DNSRecord) error {
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeProvider) UpdateRecord(ctx context.Context, zoneID, recordID string, rec models.DNSRecord) error {
	f.updated = append(f.updated, rec)
	return nil
}

func (f *fakeProvider) DeleteRecord(ctx context.Context, zoneID, recordID string) error {
	f.deletedIDs = append(f.deletedIDs, recordID)
	return nil
}

type fakeIPResolver struct{ ip string }

func (f *fakeIPResolver) ResolveIPv4(ctx context.Context) (string, error) {
	return f.ip, nil
}

func TestFullPass_CreatesMissingAndPrunesOrphans(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "traefik.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleTraefikConfig), 0644))

	provider := &fakeProvider{
		zoneID: "zone-1",
		records: []models.DNSRecord{
			{ID: "rec-orphan", Name: "stale.example.com", Content: "9.9.9.9", Proxied: true},
		},
	}
	ip := &fakeIPResolver{ip: "1.2.3.4"}

	r := New(Config{
		DomainBase:        "example.com",
		TraefikConfigPath: configPath,
		FingerprintPath:   filepath.Join(tmp, "fingerprint"),
		HealthPath:        filepath.Join(tmp, "health"),
	}, provider, ip, common.NewSilentLogger())

	err := r.FullPass(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, provider.created)
	assert.Contains(t, provider.deletedIDs, "rec-orphan")

	fp, err := os.ReadFile(filepath.Join(tmp, "fingerprint"))
	require.NoError(t, err)
	assert.NotEmpty(t, fp)
}

func TestFullPass_SkipsPruneWhenNoHostnamesExtracted(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "traefik.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("http:\n  routers: {}\n"), 0644))

	provider := &fakeProvider{
		zoneID: "zone-1",
		records: []models.DNSRecord{
			{ID: "rec-static", Name: "static.example.com", Content: "9.9.9.9", Proxied: true},
		},
	}
	ip := &fakeIPResolver{ip: "1.2.3.4"}

	r := New(Config{
		DomainBase:        "example.com",
		TraefikConfigPath: configPath,
		FingerprintPath:   filepath.Join(tmp, "fingerprint"),
		HealthPath:        filepath.Join(tmp, "health"),
	}, provider, ip, common.NewSilentLogger())

	err := r.FullPass(context.Background())
	require.NoError(t, err)
	assert.Empty(t, provider.deletedIDs, "pruning must be skipped when the source has no hostnames")
}

func TestTick_RunsFullPassOnFingerprintDrift(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "traefik.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(sampleTraefikConfig), 0644))
	healthPath := filepath.Join(tmp, "health")
	fingerprintPath := filepath.Join(tmp, "fingerprint")

	provider := &fakeProvider{zoneID: "zone-1"}
	ip := &fakeIPResolver{ip: "1.2.3.4"}

	r := New(Config{
		DomainBase:        "example.com",
		TraefikConfigPath: configPath,
		FingerprintPath:   fingerprintPath,
		HealthPath:        healthPath,
	}, provider, ip, common.NewSilentLogger())

	require.NoError(t, r.Tick(context.Background()))
	assert.NotEmpty(t, provider.created)

	_, err := os.Stat(healthPath)
	assert.NoError(t, err)
}

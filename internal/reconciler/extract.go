package reconciler

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// hostPattern matches every Host(`...`) occurrence inside a router rule,
// translated directly from the Python sync script's
// re.findall(r'Host\(`([^`]+)`\)', rule).
var hostPattern = regexp.MustCompile("Host\\(`([^`]+)`\\)")

// traefikConfig is the minimal shape of the declarative source document
// this reconciler reads — only the router rules matter.
type traefikConfig struct {
	HTTP struct {
		Routers map[string]struct {
			Rule string `yaml:"rule"`
		} `yaml:"routers"`
	} `yaml:"http"`
}

// ExtractHostnames parses the Traefik-style YAML at path and returns
// every hostname named in a Host(`...`) router rule, lower-cased.
// Duplicates are tolerated — callers dedupe via the desired-state set.
func ExtractHostnames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reconciler: read %s: %w", path, err)
	}

	var cfg traefikConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("reconciler: parse %s: %w", path, err)
	}

	var hostnames []string
	for _, router := range cfg.HTTP.Routers {
		for _, match := range hostPattern.FindAllStringSubmatch(router.Rule, -1) {
			hostnames = append(hostnames, strings.ToLower(match[1]))
		}
	}
	return hostnames, nil
}

// Fingerprint returns a stable fingerprint of the raw config bytes, used
// to detect source drift without re-extracting hostnames.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reconciler: read %s: %w", path, err)
	}
	return fingerprintBytes(data), nil
}

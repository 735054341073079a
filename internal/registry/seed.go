package registry

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk format of a registry seed:
//
//	services:
//	  bus-service: http://bus-service:8002
type SeedFile struct {
	Services map[string]string `yaml:"services"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) (map[string]string, error) {
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for name, raw := range seed.Services {
		if name == "" {
			return nil, fmt.Errorf("seed file contains an empty service name")
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid url for service %q: %q", name, raw)
		}
	}

	if seed.Services == nil {
		seed.Services = map[string]string{}
	}
	return seed.Services, nil
}

// Apply registers every entry of seed. Existing entries not present in seed are kept.
func (r *Registry) Apply(seed map[string]string) {
	for name, url := range seed {
		r.Register(name, url)
	}
}

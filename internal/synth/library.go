package synth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type profileManifest struct {
	Profiles []Profile `json:"profiles"`
}

// Library is a read-only set of voice profiles loaded from a JSON manifest.
type Library struct {
	manifestPath string
	profiles     []Profile
	byID         map[string]Profile
}

func NewLibrary(manifestPath string) (*Library, error) {
	if manifestPath == "" {
		return nil, errors.New("manifest path is required")
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("read profile manifest: %w", err)
	}

	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, err
	}

	lib.manifestPath = manifestPath

	return lib, nil
}

// ParseLibrary decodes a manifest of the form {"profiles": [...]}.
func ParseLibrary(data []byte) (*Library, error) {
	var manifest profileManifest

	err := json.Unmarshal(data, &manifest)
	if err != nil {
		return nil, fmt.Errorf("decode profile manifest: %w", err)
	}

	lib := &Library{
		profiles: append([]Profile(nil), manifest.Profiles...),
		byID:     make(map[string]Profile, len(manifest.Profiles)),
	}

	for _, p := range manifest.Profiles {
		if p.ID == "" {
			return nil, errors.New("profile manifest contains empty id")
		}

		if p.Name == "" {
			return nil, fmt.Errorf("profile %q has empty name", p.ID)
		}

		if _, exists := lib.byID[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile id %q", p.ID)
		}

		lib.byID[p.ID] = p
	}

	return lib, nil
}

func (l *Library) List() []Profile {
	return append([]Profile(nil), l.profiles...)
}

func (l *Library) Get(id string) (Profile, error) {
	p, ok := l.byID[id]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile id %q", id)
	}

	return p, nil
}

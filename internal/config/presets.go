package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.lost.host/meutraa/encore/internal/engine/guitar"
)

var ErrUnknownPreset = errors.New("unknown preset")

// DefaultPresets ship with the binary. Fields a preset leaves out keep their
// default value.
const DefaultPresets = `
default: {}
precision:
  hitWindow:
    front: 50ms
    back: 50ms
  hopoLeniency: 60ms
  strumLeniency: 40ms
casual:
  hitWindow:
    front: 100ms
    back: 100ms
  hopoLeniency: 100ms
  strumLeniency: 70ms
  infiniteFrontEnd: true
`

// Presets are named engine parameter sets.
type Presets map[string]guitar.Parameters

// LoadPresets decodes a YAML mapping of preset name to parameters over the
// defaults.
func LoadPresets(r io.Reader) (Presets, error) {
	var nodes map[string]yaml.Node
	if err := yaml.NewDecoder(r).Decode(&nodes); nil != err && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to decode presets: %w", err)
	}
	presets := Presets{}
	for name, node := range nodes {
		p := guitar.DefaultParameters()
		if err := node.Decode(&p); nil != err {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		presets[name] = p
	}
	return presets, nil
}

// LoadPresetsFile merges the presets of a file over the built in ones. An
// empty path returns the built in presets.
func LoadPresetsFile(path string) (Presets, error) {
	presets, err := LoadPresets(strings.NewReader(DefaultPresets))
	if nil != err {
		return nil, err
	}
	if path == "" {
		return presets, nil
	}
	f, err := os.Open(path)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	custom, err := LoadPresets(f)
	if nil != err {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for name, p := range custom {
		presets[name] = p
	}
	return presets, nil
}

func (p Presets) Get(name string) (guitar.Parameters, error) {
	params, ok := p[name]
	if !ok {
		return guitar.Parameters{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return params, nil
}

func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

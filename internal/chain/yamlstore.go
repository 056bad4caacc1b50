package chain

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// chainFile is the root of the operator-authored YAML rule file.
type chainFile struct {
	Chains []Chain `yaml:"chains"`
}

// LoadFile reads the YAML chain rule file at path and returns the validated
// chain set.
func LoadFile(path string) ([]Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chains: open %q: %w", path, err)
	}
	defer f.Close()

	chains, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("chains: parse %q: %w", path, err)
	}
	return chains, nil
}

// LoadFromReader decodes a YAML chain set from r and validates the result.
// Useful in tests where rule files are constructed from string literals.
func LoadFromReader(r io.Reader) ([]Chain, error) {
	var file chainFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validateChains(file.Chains); err != nil {
		return nil, err
	}
	return file.Chains, nil
}

// validateChains checks structural coherence of the chain set. Returns a
// joined error listing all failures found.
func validateChains(chains []Chain) error {
	var errs []error
	seen := make(map[string]bool, len(chains))

	for _, c := range chains {
		if c.Name == "" {
			errs = append(errs, errors.New("chain with empty name"))
			continue
		}
		if seen[c.Name] {
			errs = append(errs, fmt.Errorf("chain %q declared twice", c.Name))
		}
		seen[c.Name] = true

		for si, s := range c.Steps {
			where := fmt.Sprintf("chain %q step %d", c.Name, si)
			if s.SourceTool == "" {
				errs = append(errs, fmt.Errorf("%s: source_tool is required", where))
			}
			if !s.Operator.IsValid() {
				errs = append(errs, fmt.Errorf("%s: condition_operator %q is invalid", where, s.Operator))
			}
			if len(s.Targets) == 0 {
				errs = append(errs, fmt.Errorf("%s: at least one target is required", where))
			}
			for ti, t := range s.Targets {
				if t.TargetTool == "" {
					errs = append(errs, fmt.Errorf("%s target %d: target_tool is required", where, ti))
				}
				if t.Mode != "" && t.Mode != ModeSequential && t.Mode != ModeParallel {
					errs = append(errs, fmt.Errorf("%s target %d: execution_mode %q is invalid", where, ti, t.Mode))
				}
			}
		}
	}

	return errors.Join(errs...)
}

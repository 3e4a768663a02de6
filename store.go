package chendai

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefinitionSet is the immutable mapping from instrument id to DNA record,
// loaded once at engine start and shared read-only by all synthesis calls.
type DefinitionSet map[string]InstrumentDefinition

// definitionFile is the on-disk shape of a DNA record set.
type definitionFile struct {
	Instruments []InstrumentDefinition `yaml:"instruments"`
}

// LoadDefinitions reads and validates a YAML DNA record set. Any schema
// violation fails the whole load with a *DefinitionError; there is no
// partially loaded store.
func LoadDefinitions(r io.Reader) (DefinitionSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DefinitionError{Err: fmt.Errorf("reading record set: %w", err)}
	}
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &DefinitionError{Err: fmt.Errorf("parsing record set: %w", err)}
	}
	if len(file.Instruments) == 0 {
		return nil, &DefinitionError{Err: errors.New("record set declares no instruments")}
	}
	set := make(DefinitionSet, len(file.Instruments))
	for _, def := range file.Instruments {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set[def.ID]; dup {
			return nil, &DefinitionError{ID: def.ID, Err: errors.New("duplicate instrument id")}
		}
		set[def.ID] = def
	}
	return set, nil
}

// LoadDefinitionFile loads a DNA record set from disk.
func LoadDefinitionFile(path string) (DefinitionSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DefinitionError{Err: fmt.Errorf("opening %v: %w", path, err)}
	}
	defer f.Close()
	return LoadDefinitions(f)
}

// Get resolves an instrument id.
func (s DefinitionSet) Get(id string) (InstrumentDefinition, bool) {
	def, ok := s[id]
	return def, ok
}

// IDs returns all instrument ids in sorted order, for deterministic
// iteration and stem naming.
func (s DefinitionSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

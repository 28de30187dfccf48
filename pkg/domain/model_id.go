package domain

import (
	"fmt"
	"strings"
)

// ModelType identifies a model family sharing one training pipeline and one
// validation threshold table. This is a domain primitive that enforces
// validity at parse time.
type ModelType string

// Supported model types.
const (
	ModelTypeFraud ModelType = "fraud"
	ModelTypeChurn ModelType = "churn"
)

var knownModelTypes = map[ModelType]struct{}{
	ModelTypeFraud: {},
	ModelTypeChurn: {},
}

// ParseModelType validates and returns a ModelType.
// Returns an error if the type is unknown.
func ParseModelType(s string) (ModelType, error) {
	t := ModelType(s)
	if _, ok := knownModelTypes[t]; !ok {
		return "", fmt.Errorf("unknown model type: %s", s)
	}
	return t, nil
}

// String returns the string representation of the model type.
func (t ModelType) String() string {
	return string(t)
}

// IsValid reports whether the model type is one of the known types.
func (t ModelType) IsValid() bool {
	_, ok := knownModelTypes[t]
	return ok
}

// SupportedModelTypes returns all currently supported model types.
func SupportedModelTypes() []ModelType {
	return []ModelType{ModelTypeFraud, ModelTypeChurn}
}

// ModelID identifies one deployed model: type, version, and an optional
// tenant scope. It is the join key across every pipeline subsystem -
// calibration sets, drift windows, safeguard state, and activation records
// are all keyed by it.
type ModelID struct {
	Type    ModelType
	Version string
	Scope   string // optional tenant scope; empty for global models
}

// NewModelID constructs a ModelID without a tenant scope.
func NewModelID(t ModelType, version string) ModelID {
	return ModelID{Type: t, Version: version}
}

// NewScopedModelID constructs a ModelID scoped to a tenant.
func NewScopedModelID(t ModelType, version, scope string) ModelID {
	return ModelID{Type: t, Version: version, Scope: scope}
}

// ParseModelID parses "type:version" or "type:version:scope".
func ParseModelID(s string) (ModelID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return ModelID{}, fmt.Errorf("malformed model id: %s", s)
	}
	t, err := ParseModelType(parts[0])
	if err != nil {
		return ModelID{}, err
	}
	if parts[1] == "" {
		return ModelID{}, fmt.Errorf("model id requires a version: %s", s)
	}
	id := ModelID{Type: t, Version: parts[1]}
	if len(parts) == 3 {
		id.Scope = parts[2]
	}
	return id, nil
}

// String renders the canonical "type:version[:scope]" form.
func (m ModelID) String() string {
	if m.Scope == "" {
		return string(m.Type) + ":" + m.Version
	}
	return string(m.Type) + ":" + m.Version + ":" + m.Scope
}

// Key returns the canonical form for use as a store key.
func (m ModelID) Key() string {
	return m.String()
}

// IsNil reports whether the ID is empty.
func (m ModelID) IsNil() bool {
	return m.Type == "" && m.Version == "" && m.Scope == ""
}

// Family returns the ModelID stripped of its version. Two IDs with the same
// family compete for the same active slot; activation and rollback operate
// at family granularity.
func (m ModelID) Family() string {
	if m.Scope == "" {
		return string(m.Type)
	}
	return string(m.Type) + ":" + m.Scope
}

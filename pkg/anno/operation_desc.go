package anno

// OperationDescription identifies a specific instance of an operation. UID
// is the identity used by provenance; Name is a human readable name and
// Config holds the parameters the operation was created with.
type OperationDescription struct {
	UID    string
	Name   string
	Config map[string]any
}

// ToDict serializes the description to a data dict.
func (d OperationDescription) ToDict() map[string]any {
	return map[string]any{
		"uid":    d.UID,
		"name":   d.Name,
		"config": d.Config,
	}
}

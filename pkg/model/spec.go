package model

import "encoding/json"

// BackendSpec describes which remote simulator or hardware backend the
// platform should instantiate for a workflow step. It is embedded into step
// inputs as a serialized JSON string.
type BackendSpec struct {
	ModuleName   string `json:"module_name"`
	FunctionName string `json:"function_name"`
	DeviceName   string `json:"device_name,omitempty"`
	// NSamples is omitted entirely in exact (analytic) mode.
	NSamples int    `json:"n_samples,omitempty"`
	APIToken string `json:"api_token,omitempty"`
}

// JSON serializes the backend spec to its wire form.
func (s BackendSpec) JSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

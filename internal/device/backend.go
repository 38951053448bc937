package device

import (
	"fmt"
	"os"

	"github.com/me/goqe/internal/workflow"
	"github.com/me/goqe/pkg/model"
)

// Backend describes a remote simulator or hardware target: the platform
// component providing it plus the module and function the platform
// instantiates. The supported set is closed; constructors below are the only
// way to obtain one.
type Backend struct {
	// Name is the short client-side identifier, e.g. "orquestra.qiskit".
	Name         string
	Component    workflow.Component
	ModuleName   string
	FunctionName string
	// DeviceName selects among several backends offered by one component.
	// Empty for components with a single backend.
	DeviceName string
	// APIToken authenticates against external hardware providers.
	APIToken string
	// SamplingOnly marks backends that cannot compute analytically.
	SamplingOnly bool
	// DefaultShots is used when the caller does not set a shot count.
	DefaultShots int
}

// QiskitSimulator targets a Qiskit simulator run by the qe-qiskit component,
// e.g. "qasm_simulator" or "statevector_simulator". The qasm simulator is
// sampling-based.
func QiskitSimulator(backendName string) Backend {
	if backendName == "" {
		backendName = "qasm_simulator"
	}
	return Backend{
		Name:         "orquestra.qiskit",
		Component:    workflow.ComponentQiskit,
		ModuleName:   "qeqiskit.simulator",
		FunctionName: "QiskitSimulator",
		DeviceName:   backendName,
		SamplingOnly: backendName == "qasm_simulator",
		DefaultShots: 10000,
	}
}

// IBMQBackend targets IBM Q hardware or hosted simulators through the
// qe-qiskit component. The authentication token comes from the argument or
// the IBMQX_TOKEN environment variable; hardware runs are always
// sampling-based.
func IBMQBackend(backendName, token string) (Backend, error) {
	if backendName == "" {
		backendName = "ibmq_qasm_simulator"
	}
	if token == "" {
		token = os.Getenv("IBMQX_TOKEN")
	}
	if token == "" {
		return Backend{}, fmt.Errorf("an IBMQX token is required: pass one or set the IBMQX_TOKEN environment variable")
	}
	return Backend{
		Name:         "orquestra.ibmq",
		Component:    workflow.ComponentQiskit,
		ModuleName:   "qeqiskit.backend",
		FunctionName: "QiskitBackend",
		DeviceName:   backendName,
		APIToken:     token,
		SamplingOnly: true,
		DefaultShots: 8192,
	}, nil
}

// ForestSimulator targets a Rigetti Forest simulator run by the qe-forest
// component, e.g. "wavefunction-simulator" or a QVM variant.
func ForestSimulator(backendName string) Backend {
	if backendName == "" {
		backendName = "wavefunction-simulator"
	}
	return Backend{
		Name:         "orquestra.forest",
		Component:    workflow.ComponentForest,
		ModuleName:   "qeforest.simulator",
		FunctionName: "ForestSimulator",
		DeviceName:   backendName,
		DefaultShots: 1024,
	}
}

// QulacsSimulator targets the Qulacs simulator run by the qe-qulacs
// component. It offers a single backend, so no device name is emitted.
func QulacsSimulator() Backend {
	return Backend{
		Name:         "orquestra.qulacs",
		Component:    workflow.ComponentQulacs,
		ModuleName:   "qequlacs.simulator",
		FunctionName: "QulacsSimulator",
		DefaultShots: 1024,
	}
}

// spec builds the backend specification embedded into workflow steps.
// NSamples is set only in sampling mode: its absence tells the platform to
// compute exactly.
func (b Backend) spec(analytic bool, shots int) model.BackendSpec {
	s := model.BackendSpec{
		ModuleName:   b.ModuleName,
		FunctionName: b.FunctionName,
		DeviceName:   b.DeviceName,
		APIToken:     b.APIToken,
	}
	if !analytic {
		s.NSamples = shots
	}
	return s
}

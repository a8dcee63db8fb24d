package domain

import "errors"

var (
	// ErrNetworkDetection means the active network could not be determined.
	ErrNetworkDetection = errors.New("network detection failed")

	// ErrAccountResolution means the four role accounts could not be produced for the network.
	ErrAccountResolution = errors.New("account resolution failed")

	// ErrDeploymentTransaction means the contract creation transaction failed.
	ErrDeploymentTransaction = errors.New("deployment transaction failed")

	// ErrConfigurationTransaction means the post-deployment sale configuration call failed.
	ErrConfigurationTransaction = errors.New("configuration transaction failed")

	// ErrUnexpectedFailure means a collaborator panicked during the run.
	ErrUnexpectedFailure = errors.New("unexpected failure")

	// ErrNetworkNotConfigured means no endpoint definition exists for the network.
	ErrNetworkNotConfigured = errors.New("network not configured")

	// ErrChainIDMismatch means the endpoint reports a chain ID other than the configured one.
	ErrChainIDMismatch = errors.New("chain id mismatch")

	// ErrArtifactInvalid means the compiled contract artifact could not be used.
	ErrArtifactInvalid = errors.New("invalid contract artifact")
)

/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

// Package gcp detects the Google Cloud runtime environment and resolves project
// information from the environment or the metadata server.
package gcp

import (
	"os"

	"cloud.google.com/go/compute/metadata"
	"k8s.io/client-go/rest"
)

// Environment is the Google Cloud runtime the process is running on
type Environment int

// Supported runtime environments
const (
	Unknown Environment = iota
	ComputeEngine
	KubernetesEngine
	AppEngineFlexible
	AppEngineStandard
	CloudRun
	CloudFunctions
)

// Environment variables set by the serverless runtimes
const (
	EnvGAEInstance    = "GAE_INSTANCE"
	EnvGAEEnv         = "GAE_ENV"
	EnvKService       = "K_SERVICE"
	EnvFunctionName   = "FUNCTION_NAME"
	EnvFunctionTarget = "FUNCTION_TARGET"
)

func (e Environment) String() string {
	switch e {
	case ComputeEngine:
		return "ComputeEngine"
	case KubernetesEngine:
		return "KubernetesEngine"
	case AppEngineFlexible:
		return "AppEngineFlexible"
	case AppEngineStandard:
		return "AppEngineStandard"
	case CloudRun:
		return "CloudRun"
	case CloudFunctions:
		return "CloudFunctions"
	default:
		return "Unknown"
	}
}

// IsAppEngine reports whether e is one of the App Engine environments
func (e Environment) IsAppEngine() bool {
	return e == AppEngineFlexible || e == AppEngineStandard
}

// EnvironmentProvider reports the current runtime environment
type EnvironmentProvider interface {
	CurrentEnvironment() Environment
}

// EnvironmentProviderFunc adapts a function to EnvironmentProvider
type EnvironmentProviderFunc func() Environment

// CurrentEnvironment calls f
func (f EnvironmentProviderFunc) CurrentEnvironment() Environment {
	return f()
}

// DefaultEnvironmentProvider detects the environment from runtime environment variables,
// the Kubernetes service account mount and finally the metadata server
type DefaultEnvironmentProvider struct {
	getenv    func(string) string
	inCluster func() bool
	onGCE     func() bool
}

// NewDefaultEnvironmentProvider creates a DefaultEnvironmentProvider for the running process
func NewDefaultEnvironmentProvider() *DefaultEnvironmentProvider {
	return &DefaultEnvironmentProvider{
		getenv:    os.Getenv,
		inCluster: runningInCluster,
		onGCE:     metadata.OnGCE,
	}
}

// CurrentEnvironment returns the detected environment
func (p *DefaultEnvironmentProvider) CurrentEnvironment() Environment {
	if p.getenv(EnvGAEInstance) != "" {
		if p.getenv(EnvGAEEnv) == "standard" {
			return AppEngineStandard
		}
		return AppEngineFlexible
	}
	if p.getenv(EnvFunctionName) != "" || p.getenv(EnvFunctionTarget) != "" {
		return CloudFunctions
	}
	if p.getenv(EnvKService) != "" {
		return CloudRun
	}
	if !p.onGCE() {
		return Unknown
	}
	if p.inCluster() {
		return KubernetesEngine
	}
	return ComputeEngine
}

func runningInCluster() bool {
	_, err := rest.InClusterConfig()
	return err == nil
}

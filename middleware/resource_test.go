package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectServiceInfo(t *testing.T) {
	tests := []struct {
		name          string
		env           map[string]string
		wantService   string
		wantNamespace string
	}{
		{
			name:          "explicit service name and namespace",
			env:           map[string]string{"OTEL_SERVICE_NAME": "portfolio", "OTEL_RESOURCE_ATTRIBUTES": "service.namespace=prod"},
			wantService:   "portfolio",
			wantNamespace: "prod",
		},
		{
			name:          "pod name hashes stripped",
			env:           map[string]string{"POD_NAME": "portfolio-service-75c98b4b9c-kdv2n", "POD_NAMESPACE": "invest"},
			wantService:   "portfolio-service",
			wantNamespace: "invest",
		},
		{
			name:        "non pod hostname is ignored",
			env:         map[string]string{"POD_NAME": "laptop"},
			wantService: unknownService,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"OTEL_SERVICE_NAME", "OTEL_RESOURCE_ATTRIBUTES", "POD_NAME", "POD_NAMESPACE"} {
				t.Setenv(key, tt.env[key])
			}

			service, namespace := detectServiceInfo()
			assert.Equal(t, tt.wantService, service)
			if tt.wantNamespace != "" {
				assert.Equal(t, tt.wantNamespace, namespace)
			}
		})
	}
}

func TestCreateResource_FallbackName(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("POD_NAME", "laptop")

	res, _ := CreateResource(context.Background(), "portfolio-service")
	require.NotNil(t, res)
	assert.Equal(t, "portfolio-service", GetServiceName(res))
}

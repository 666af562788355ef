package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClusterService is one service entry returned by the control plane.
type ClusterService struct {
	Name        string
	Labels      map[string]string
	Annotations map[string]string
	Ports       []int
}

// ControlPlaneClient queries the cluster control plane for services. It is
// strictly read-only.
type ControlPlaneClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewControlPlaneClient constructs a client targeting the configured control plane.
func NewControlPlaneClient(baseURL string, timeout time.Duration) *ControlPlaneClient {
	return &ControlPlaneClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListServices returns the services in a namespace matching the label selector.
func (c *ControlPlaneClient) ListServices(ctx context.Context, namespace, labelSelector string) ([]ClusterService, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("control plane base URL not configured")
	}

	endpoint := fmt.Sprintf("%s/api/v1/namespaces/%s/services", c.baseURL, url.PathEscape(namespace))
	if labelSelector != "" {
		endpoint += "?labelSelector=" + url.QueryEscape(labelSelector)
	}

	var response struct {
		Items []struct {
			Metadata struct {
				Name        string            `json:"name"`
				Labels      map[string]string `json:"labels"`
				Annotations map[string]string `json:"annotations"`
			} `json:"metadata"`
			Spec struct {
				Ports []struct {
					Port int `json:"port"`
				} `json:"ports"`
			} `json:"spec"`
		} `json:"items"`
	}

	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return nil, fmt.Errorf("control plane service list failed: %w", err)
	}

	services := make([]ClusterService, 0, len(response.Items))
	for _, item := range response.Items {
		svc := ClusterService{
			Name:        item.Metadata.Name,
			Labels:      item.Metadata.Labels,
			Annotations: item.Metadata.Annotations,
		}
		for _, p := range item.Spec.Ports {
			if p.Port > 0 {
				svc.Ports = append(svc.Ports, p.Port)
			}
		}
		services = append(services, svc)
	}
	return services, nil
}

func (c *ControlPlaneClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control plane returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package ndr

import (
	"context"

	"github.com/pkg/errors"
)

const featureFlagsEndpoint = "/FeatureFlags"

// featureFlagService implements the FeatureFlagService interface
type featureFlagService struct {
	client *Client
}

// List returns every feature flag
func (s *featureFlagService) List(ctx context.Context) (map[string]bool, error) {
	flags := map[string]bool{}
	if err := s.client.getJSON(ctx, featureFlagsEndpoint, nil, &flags); err != nil {
		return nil, errors.Wrap(err, "failed to get feature flags")
	}
	return flags, nil
}

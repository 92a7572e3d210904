package ndr

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const lloydGeorgeStitchEndpoint = "/LloydGeorgeStitch"

// lloydGeorgeService implements the LloydGeorgeService interface
type lloydGeorgeService struct {
	client *Client
}

// Stitch returns the stitched Lloyd George record for a patient
func (s *lloydGeorgeService) Stitch(ctx context.Context, nhsNumber string) (*LloydGeorgeRecord, error) {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return nil, err
	}

	var record LloydGeorgeRecord
	query := url.Values{"patientId": []string{nhsNumber}}
	if err := s.client.getJSON(ctx, lloydGeorgeStitchEndpoint, query, &record); err != nil {
		return nil, errors.Wrap(err, "failed to get Lloyd George record")
	}

	return &record, nil
}

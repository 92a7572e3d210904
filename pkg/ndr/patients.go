package ndr

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
)

const searchPatientEndpoint = "/SearchPatient"

// patientService implements the PatientService interface
type patientService struct {
	client *Client
}

// Search looks up a patient by NHS number
func (s *patientService) Search(ctx context.Context, nhsNumber string) (*PatientDetails, error) {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return nil, err
	}

	var patient PatientDetails
	query := url.Values{"patientId": []string{nhsNumber}}
	if err := s.client.getJSON(ctx, searchPatientEndpoint, query, &patient); err != nil {
		return nil, errors.Wrap(err, "failed to search patient")
	}

	return &patient, nil
}

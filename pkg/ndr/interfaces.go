package ndr

import (
	"context"
)

// AuthService handles login and logout against the repository API
type AuthService interface {
	// Login exchanges a CIS2 authorisation code and state for a session
	Login(ctx context.Context, code, state string) error

	// Logout ends the session on the server and clears it locally
	Logout(ctx context.Context) error

	// Session returns the current session
	Session() Session
}

// PatientService handles patient demographics lookups
type PatientService interface {
	// Search looks up a patient by NHS number
	Search(ctx context.Context, nhsNumber string) (*PatientDetails, error)
}

// DocumentService handles document references for a patient
type DocumentService interface {
	// Search lists the documents stored for a patient
	Search(ctx context.Context, nhsNumber string) ([]*SearchResult, error)

	// Upload registers files for upload and returns a pre-signed target per file
	Upload(ctx context.Context, nhsNumber string, files []*UploadFile) ([]*UploadTarget, error)

	// Delete removes all documents of the given types for a patient
	Delete(ctx context.Context, nhsNumber string, docTypes ...DocumentType) error

	// Manifest returns a pre-signed URL for a zip of the patient's documents
	Manifest(ctx context.Context, nhsNumber string, docTypes ...DocumentType) (string, error)
}

// LloydGeorgeService handles the stitched Lloyd George record
type LloydGeorgeService interface {
	// Stitch returns the stitched record for a patient
	Stitch(ctx context.Context, nhsNumber string) (*LloydGeorgeRecord, error)
}

// FeatureFlagService reads the application's feature flags
type FeatureFlagService interface {
	// List returns every flag and whether it is enabled
	List(ctx context.Context) (map[string]bool, error)
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/NHSDigital/national-document-repository-go/pkg/ndr"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// repositoryTools holds the repository client and implements all tool handlers
type repositoryTools struct {
	client *ndr.Client
}

// PatientInput identifies a patient for every tool
type PatientInput struct {
	NHSNumber string `json:"nhsNumber" jsonschema:"10 digit NHS number; spaces and hyphens are ignored"`
}

// SearchPatient tool - looks up patient demographics
type SearchPatientOutput struct {
	NHSNumber          string   `json:"nhsNumber" jsonschema:"Normalised NHS number"`
	GivenName          []string `json:"givenName" jsonschema:"Given names"`
	FamilyName         string   `json:"familyName" jsonschema:"Family name"`
	BirthDate          string   `json:"birthDate,omitempty" jsonschema:"Date of birth in YYYY-MM-DD format"`
	PostalCode         string   `json:"postalCode,omitempty" jsonschema:"Postcode"`
	GeneralPracticeODS string   `json:"generalPracticeOds,omitempty" jsonschema:"ODS code of the registered GP practice"`
	Active             bool     `json:"active" jsonschema:"Whether the patient is registered with a practice"`
	Deceased           bool     `json:"deceased" jsonschema:"Whether the patient is deceased"`
	Restricted         bool     `json:"restricted" jsonschema:"Whether the record is restricted"`
	Superseded         bool     `json:"superseded" jsonschema:"Whether the NHS number has been superseded"`
}

func (t *repositoryTools) SearchPatient(ctx context.Context, req *mcp.CallToolRequest, input PatientInput) (*mcp.CallToolResult, SearchPatientOutput, error) {
	patient, err := t.client.Patients.Search(ctx, input.NHSNumber)
	if err != nil {
		return nil, SearchPatientOutput{}, fmt.Errorf("failed to search patient: %w", err)
	}

	out := SearchPatientOutput{
		NHSNumber:          patient.NHSNumber,
		GivenName:          patient.GivenName,
		FamilyName:         patient.FamilyName,
		PostalCode:         patient.PostalCode,
		GeneralPracticeODS: patient.GeneralPracticeODS,
		Active:             patient.Active,
		Deceased:           patient.Deceased,
		Restricted:         patient.Restricted,
		Superseded:         patient.Superseded,
	}
	if !patient.BirthDate.IsZero() {
		out.BirthDate = patient.BirthDate.Format("2006-01-02")
	}

	return nil, out, nil
}

// ListDocuments tool - lists a patient's stored documents
type DocumentEntry struct {
	ID                 string    `json:"id" jsonschema:"Document ID"`
	FileName           string    `json:"fileName" jsonschema:"File name"`
	Created            time.Time `json:"created" jsonschema:"Upload time"`
	FileSize           int64     `json:"fileSize" jsonschema:"File size in bytes"`
	VirusScannerResult string    `json:"virusScannerResult" jsonschema:"Virus scan result"`
}

type ListDocumentsOutput struct {
	Documents []DocumentEntry `json:"documents" jsonschema:"Stored documents"`
	Count     int             `json:"count" jsonschema:"Number of documents"`
}

func (t *repositoryTools) ListDocuments(ctx context.Context, req *mcp.CallToolRequest, input PatientInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	results, err := t.client.Documents.Search(ctx, input.NHSNumber)
	if err != nil {
		return nil, ListDocumentsOutput{}, fmt.Errorf("failed to list documents: %w", err)
	}

	entries := make([]DocumentEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, DocumentEntry{
			ID:                 r.ID,
			FileName:           r.FileName,
			Created:            r.Created,
			FileSize:           r.FileSize,
			VirusScannerResult: r.VirusScannerResult,
		})
	}

	return nil, ListDocumentsOutput{
		Documents: entries,
		Count:     len(entries),
	}, nil
}

// GetLloydGeorgeRecord tool - returns the stitched Lloyd George record
type GetLloydGeorgeRecordOutput struct {
	NumberOfFiles      int       `json:"numberOfFiles" jsonschema:"Number of scanned files in the record"`
	TotalFileSizeBytes int64     `json:"totalFileSizeBytes" jsonschema:"Total size of the record in bytes"`
	LastUpdated        time.Time `json:"lastUpdated" jsonschema:"When the record last changed"`
	DownloadURL        string    `json:"downloadUrl" jsonschema:"Temporary pre-signed URL of the stitched PDF"`
}

func (t *repositoryTools) GetLloydGeorgeRecord(ctx context.Context, req *mcp.CallToolRequest, input PatientInput) (*mcp.CallToolResult, GetLloydGeorgeRecordOutput, error) {
	record, err := t.client.LloydGeorge.Stitch(ctx, input.NHSNumber)
	if err != nil {
		return nil, GetLloydGeorgeRecordOutput{}, fmt.Errorf("failed to get Lloyd George record: %w", err)
	}

	return nil, GetLloydGeorgeRecordOutput{
		NumberOfFiles:      record.NumberOfFiles,
		TotalFileSizeBytes: record.TotalFileSizeBytes,
		LastUpdated:        record.LastUpdated,
		DownloadURL:        record.PresignedURL,
	}, nil
}

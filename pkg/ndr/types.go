package ndr

import (
	"time"
)

// DocumentType is the kind of record a document belongs to
type DocumentType string

const (
	DocumentTypeARF         DocumentType = "ARF"
	DocumentTypeLloydGeorge DocumentType = "LG"
)

// PatientDetails represents the demographics returned by a patient search
type PatientDetails struct {
	GivenName          []string `json:"givenName"`
	FamilyName         string   `json:"familyName"`
	BirthDate          Date     `json:"birthDate"`
	PostalCode         string   `json:"postalCode"`
	NHSNumber          string   `json:"nhsNumber"`
	Superseded         bool     `json:"superseded"`
	Restricted         bool     `json:"restricted"`
	GeneralPracticeODS string   `json:"generalPracticeOds"`
	Active             bool     `json:"active"`
	Deceased           bool     `json:"deceased"`
}

// SearchResult represents one stored document
type SearchResult struct {
	ID                 string    `json:"ID"`
	FileName           string    `json:"fileName"`
	Created            time.Time `json:"created"`
	VirusScannerResult string    `json:"virusScannerResult"`
	FileSize           int64     `json:"fileSize"`
}

// UploadFile describes a file to register for upload
type UploadFile struct {
	// ClientID identifies the file in the response; generated when empty
	ClientID    string       `json:"clientId"`
	FileName    string       `json:"fileName"`
	ContentType string       `json:"contentType"`
	DocType     DocumentType `json:"docType"`
}

// UploadTarget is a pre-signed S3 POST for one file
type UploadTarget struct {
	ClientID string            `json:"-"`
	URL      string            `json:"url"`
	Fields   map[string]string `json:"fields"`
}

// LloydGeorgeRecord represents the stitched Lloyd George record
type LloydGeorgeRecord struct {
	NumberOfFiles      int       `json:"number_of_files"`
	TotalFileSizeBytes int64     `json:"total_file_size_in_byte"`
	LastUpdated        time.Time `json:"last_updated"`
	PresignedURL       string    `json:"presign_url"`
}

package ndr

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	searchDocumentsEndpoint   = "/SearchDocumentReferences"
	documentReferenceEndpoint = "/DocumentReference"
	documentDeleteEndpoint    = "/DocumentDelete"
	documentManifestEndpoint  = "/DocumentManifest"
)

// documentService implements the DocumentService interface
type documentService struct {
	client *Client
}

// Search lists the documents stored for a patient
func (s *documentService) Search(ctx context.Context, nhsNumber string) ([]*SearchResult, error) {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return nil, err
	}

	var results []*SearchResult
	query := url.Values{"patientId": []string{nhsNumber}}
	if err := s.client.getJSON(ctx, searchDocumentsEndpoint, query, &results); err != nil {
		// No documents comes back as either 204 with no body or 404
		if errors.Is(err, ErrNotFound) {
			return []*SearchResult{}, nil
		}
		return nil, errors.Wrap(err, "failed to search documents")
	}

	if results == nil {
		results = []*SearchResult{}
	}
	return results, nil
}

// Upload registers files and returns one pre-signed upload target per file,
// in the order the files were given.
func (s *documentService) Upload(ctx context.Context, nhsNumber string, files []*UploadFile) ([]*UploadTarget, error) {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "no files to upload")
	}

	attachments := make([]map[string]interface{}, 0, len(files))
	clientIDs := make([]string, 0, len(files))
	for _, f := range files {
		if f == nil || f.FileName == "" {
			return nil, errors.Wrap(ErrInvalidRequest, "file name is required")
		}
		id := f.ClientID
		if id == "" {
			id = uuid.NewString()
		}
		docType := f.DocType
		if docType == "" {
			docType = DocumentTypeARF
		}
		clientIDs = append(clientIDs, id)
		attachments = append(attachments, map[string]interface{}{
			"fileName":    f.FileName,
			"contentType": f.ContentType,
			"docType":     docType,
			"clientId":    id,
		})
	}

	body := map[string]interface{}{
		"resourceType": "DocumentReference",
		"subject": map[string]interface{}{
			"identifier": map[string]interface{}{
				"system": "https://fhir.nhs.uk/Id/nhs-number",
				"value":  nhsNumber,
			},
		},
		"content": []map[string]interface{}{
			{"attachment": attachments},
		},
		"created": time.Now().UTC().Format(time.RFC3339),
	}

	var result map[string]*UploadTarget
	if err := s.client.doJSON(ctx, http.MethodPost, documentReferenceEndpoint, nil, body, &result); err != nil {
		return nil, errors.Wrap(err, "failed to register upload")
	}

	targets := make([]*UploadTarget, 0, len(clientIDs))
	for _, id := range clientIDs {
		target, ok := result[id]
		if !ok || target == nil {
			return nil, errors.Errorf("no upload target returned for file %s", id)
		}
		target.ClientID = id
		targets = append(targets, target)
	}

	return targets, nil
}

// Delete removes all documents of the given types for a patient
func (s *documentService) Delete(ctx context.Context, nhsNumber string, docTypes ...DocumentType) error {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return err
	}

	query := url.Values{
		"patientId": []string{nhsNumber},
		"docType":   []string{joinDocTypes(docTypes)},
	}
	if err := s.client.doJSON(ctx, http.MethodDelete, documentDeleteEndpoint, query, nil, nil); err != nil {
		return errors.Wrap(err, "failed to delete documents")
	}

	return nil
}

// Manifest returns a pre-signed URL for a zip of the patient's documents
func (s *documentService) Manifest(ctx context.Context, nhsNumber string, docTypes ...DocumentType) (string, error) {
	nhsNumber, err := NormalizeNHSNumber(nhsNumber)
	if err != nil {
		return "", err
	}

	var presignedURL string
	query := url.Values{
		"patientId": []string{nhsNumber},
		"docType":   []string{joinDocTypes(docTypes)},
	}
	if err := s.client.getJSON(ctx, documentManifestEndpoint, query, &presignedURL); err != nil {
		return "", errors.Wrap(err, "failed to get document manifest")
	}

	return presignedURL, nil
}

// joinDocTypes renders doc types for the docType query parameter.
// No types means all of them.
func joinDocTypes(docTypes []DocumentType) string {
	if len(docTypes) == 0 {
		docTypes = []DocumentType{DocumentTypeARF, DocumentTypeLloydGeorge}
	}
	parts := make([]string, len(docTypes))
	for i, t := range docTypes {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

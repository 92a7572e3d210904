package ndr

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_Search(t *testing.T) {
	// Setup
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)

	mockResponse := `[
		{
			"ID": "doc-1",
			"fileName": "1of2_Lloyd_George_Record_[Jane Smith]_[9000000009]_[31-01-1970].pdf",
			"created": "2024-03-01T10:00:00Z",
			"virusScannerResult": "Clean",
			"fileSize": 2048
		},
		{
			"ID": "doc-2",
			"fileName": "letter.pdf",
			"created": "2024-03-02T11:30:00Z",
			"virusScannerResult": "Clean",
			"fileSize": 512
		}
	]`

	mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(jsonResponse(mockResponse), nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*Request)
		assert.Equal(t, "/SearchDocumentReferences", req.Path)
		assert.Equal(t, "9000000009", req.Query.Get("patientId"))
	})

	// Execute
	results, err := client.Documents.Search(context.Background(), "9000000009")

	// Verify
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-1", results[0].ID)
	assert.Equal(t, "Clean", results[0].VirusScannerResult)
	assert.Equal(t, int64(2048), results[0].FileSize)
	assert.Equal(t, 2024, results[1].Created.Year())
}

func TestDocumentService_Search_NoDocuments(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		err  error
	}{
		{name: "not found", err: statusError(http.StatusNotFound, ErrNotFound)},
		{name: "no content", resp: &Response{StatusCode: http.StatusNoContent}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTransport := new(MockTransport)
			client := newMockClient(mockTransport)
			mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			results, err := client.Documents.Search(context.Background(), "9000000009")

			require.NoError(t, err)
			assert.NotNil(t, results)
			assert.Empty(t, results)
		})
	}
}

func TestDocumentService_Upload(t *testing.T) {
	// Setup
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)

	mockResponse := `{
		"file-b": {"url": "https://s3.test/b", "fields": {"key": "b-key"}},
		"file-a": {"url": "https://s3.test/a", "fields": {"key": "a-key"}}
	}`

	mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(jsonResponse(mockResponse), nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*Request)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/DocumentReference", req.Path)

		var body struct {
			ResourceType string `json:"resourceType"`
			Subject      struct {
				Identifier struct {
					Value string `json:"value"`
				} `json:"identifier"`
			} `json:"subject"`
			Content []struct {
				Attachment []UploadFile `json:"attachment"`
			} `json:"content"`
		}
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "DocumentReference", body.ResourceType)
		assert.Equal(t, "9000000009", body.Subject.Identifier.Value)
		require.Len(t, body.Content, 1)
		require.Len(t, body.Content[0].Attachment, 2)
		assert.Equal(t, DocumentTypeLloydGeorge, body.Content[0].Attachment[0].DocType)
		assert.Equal(t, DocumentTypeARF, body.Content[0].Attachment[1].DocType)
	})

	// Execute
	targets, err := client.Documents.Upload(context.Background(), "9000000009", []*UploadFile{
		{ClientID: "file-a", FileName: "a.pdf", ContentType: "application/pdf", DocType: DocumentTypeLloydGeorge},
		{ClientID: "file-b", FileName: "b.pdf", ContentType: "application/pdf"},
	})

	// Verify
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "file-a", targets[0].ClientID)
	assert.Equal(t, "https://s3.test/a", targets[0].URL)
	assert.Equal(t, "a-key", targets[0].Fields["key"])
	assert.Equal(t, "file-b", targets[1].ClientID)
}

func TestDocumentService_Upload_GeneratesClientIDs(t *testing.T) {
	client := newMockClient(new(MockTransport))

	var sentID string
	client.transport = transportFunc(func(ctx context.Context, req *Request, token, correlationID string) (*Response, error) {
		var body struct {
			Content []struct {
				Attachment []UploadFile `json:"attachment"`
			} `json:"content"`
		}
		if err := json.Unmarshal(req.Body, &body); err != nil {
			return nil, err
		}
		sentID = body.Content[0].Attachment[0].ClientID
		return jsonResponse(`{"` + sentID + `": {"url": "https://s3.test/x"}}`), nil
	})

	targets, err := client.Documents.Upload(context.Background(), "9000000009", []*UploadFile{
		{FileName: "x.pdf", ContentType: "application/pdf"},
	})

	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.NotEmpty(t, sentID)
	assert.Equal(t, sentID, targets[0].ClientID)
	assert.Equal(t, "https://s3.test/x", targets[0].URL)
}

func TestDocumentService_Upload_Validation(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)

	_, err := client.Documents.Upload(context.Background(), "9000000009", nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = client.Documents.Upload(context.Background(), "9000000009", []*UploadFile{{}})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = client.Documents.Upload(context.Background(), "12", []*UploadFile{{FileName: "a.pdf"}})
	assert.ErrorIs(t, err, ErrInvalidNHSNumber)

	mockTransport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_Upload_MissingTarget(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)
	mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(jsonResponse(`{}`), nil)

	_, err := client.Documents.Upload(context.Background(), "9000000009", []*UploadFile{
		{ClientID: "file-a", FileName: "a.pdf"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "file-a")
}

func TestDocumentService_Delete(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)

	mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&Response{StatusCode: http.StatusOK}, nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*Request)
		assert.Equal(t, http.MethodDelete, req.Method)
		assert.Equal(t, "/DocumentDelete", req.Path)
		assert.Equal(t, "9000000009", req.Query.Get("patientId"))
		assert.Equal(t, "LG", req.Query.Get("docType"))
	})

	err := client.Documents.Delete(context.Background(), "9000000009", DocumentTypeLloydGeorge)

	require.NoError(t, err)
	mockTransport.AssertExpectations(t)
}

func TestDocumentService_Manifest(t *testing.T) {
	mockTransport := new(MockTransport)
	client := newMockClient(mockTransport)

	mockTransport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(jsonResponse(`"https://s3.test/manifest.zip"`), nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*Request)
		assert.Equal(t, "/DocumentManifest", req.Path)
		assert.Equal(t, "ARF,LG", req.Query.Get("docType"))
	})

	url, err := client.Documents.Manifest(context.Background(), "9000000009")

	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/manifest.zip", url)
}

func TestJoinDocTypes(t *testing.T) {
	assert.Equal(t, "ARF,LG", joinDocTypes(nil))
	assert.Equal(t, "ARF", joinDocTypes([]DocumentType{DocumentTypeARF}))
	assert.Equal(t, "LG,ARF", joinDocTypes([]DocumentType{DocumentTypeLloydGeorge, DocumentTypeARF}))
}

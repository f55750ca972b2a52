package jobscheduler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caimel/mediacore/internal/models"
)

// RemoteAdapter implements StageAdapter by POSTing a job's metadata (and
// any downloaded input blob) to an external adapter process and
// returning its raw response body as the job's result. Model internals
// (ASR, diarization, TTS) live entirely behind that HTTP boundary, out
// of this repo's scope.
type RemoteAdapter struct {
	endpoint   string
	httpClient *http.Client
}

// NewRemoteAdapter builds a RemoteAdapter posting to endpoint.
func NewRemoteAdapter(endpoint string, timeout time.Duration) *RemoteAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RemoteAdapter{endpoint: endpoint, httpClient: &http.Client{Timeout: timeout}}
}

// remoteAdapterRequest is the wire envelope sent to the adapter
// endpoint: the job's decoded metadata plus its input blob, if any,
// base64-encoded so the whole call stays a single JSON POST.
type remoteAdapterRequest struct {
	InputData json.RawMessage `json:"inputData"`
	BlobData  string          `json:"blobData,omitempty"`
}

// Execute posts job.InputData and blobData (if present) to the adapter
// endpoint, reports dispatch/completion progress, and returns the
// adapter's raw response body as the job's result.
func (a *RemoteAdapter) Execute(ctx context.Context, job *models.Job, blobData []byte, progress ProgressReporter) ([]byte, error) {
	if progress != nil {
		progress.ReportProgress(ctx, job.ID, 0, "dispatched to adapter")
	}

	reqBody := remoteAdapterRequest{InputData: job.InputData}
	if len(blobData) > 0 {
		reqBody.BlobData = base64.StdEncoding.EncodeToString(blobData)
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("jobscheduler: encode adapter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jobscheduler: build adapter request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Job-Id", job.ID)
	req.Header.Set("X-Job-Type", job.Type)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jobscheduler: adapter request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jobscheduler: read adapter response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != "" {
			return nil, fmt.Errorf("jobscheduler: adapter error: %s", errBody.Error)
		}
		return nil, fmt.Errorf("jobscheduler: adapter returned status %d", resp.StatusCode)
	}

	if progress != nil {
		progress.ReportProgress(ctx, job.ID, 100, "adapter completed")
	}

	return respBody, nil
}

var _ StageAdapter = (*RemoteAdapter)(nil)

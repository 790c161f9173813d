package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"streamvault/models"
)

// Sink receives progress writes: the full summary map on flush and one
// granular record per accepted update.
type Sink interface {
	PutSummary(summary map[string]models.WatchProgressRecord) error
	PutGranular(mediaType models.ContentType, id string, rec models.WatchProgressRecord) error
}

// FileSink persists progress as JSON files in a data directory: one
// watch-progress.json summary plus a <type>-<id>.json file per title. Series
// granular files hold an episode-id keyed map, movie files hold the record
// itself.
type FileSink struct {
	fs  afero.Fs
	dir string
}

// NewFileSink creates a sink writing through fs under dir.
func NewFileSink(fs afero.Fs, dir string) *FileSink {
	return &FileSink{fs: fs, dir: dir}
}

// PutSummary writes the whole summary map to watch-progress.json.
func (s *FileSink) PutSummary(summary map[string]models.WatchProgressRecord) error {
	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return s.write(s.summaryPath(), payload)
}

// PutGranular writes one title's progress file. Series files are merged: the
// existing episode map is kept and only the incoming episode's entry changes.
func (s *FileSink) PutGranular(mediaType models.ContentType, id string, rec models.WatchProgressRecord) error {
	path := filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", mediaType, id))

	var doc any = rec
	if mediaType == models.ContentSeries {
		episodes := make(map[string]models.WatchProgressRecord)
		if existing, err := afero.ReadFile(s.fs, path); err == nil {
			// Unreadable existing content is discarded, not fatal.
			_ = json.Unmarshal(existing, &episodes)
		}
		episodes[rec.GranularID()] = rec
		doc = episodes
	}

	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal granular %s: %w", id, err)
	}
	return s.write(path, payload)
}

// Summary reads the persisted summary map, empty when the file is absent.
func (s *FileSink) Summary() (map[string]models.WatchProgressRecord, error) {
	data, err := afero.ReadFile(s.fs, s.summaryPath())
	if os.IsNotExist(err) {
		return map[string]models.WatchProgressRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	out := make(map[string]models.WatchProgressRecord)
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return out, nil
}

func (s *FileSink) summaryPath() string {
	return filepath.Join(s.dir, "watch-progress.json")
}

func (s *FileSink) write(path string, payload []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// HTTPSink posts progress to a remote endpoint: the summary to
// <base>/watch-progress, granular records to <base>/watch-progress/<type>/<id>.
type HTTPSink struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSink creates a sink posting to baseURL.
func NewHTTPSink(baseURL string) *HTTPSink {
	return &HTTPSink{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPSink) PutSummary(summary map[string]models.WatchProgressRecord) error {
	return s.post(s.baseURL+"/watch-progress", summary)
}

func (s *HTTPSink) PutGranular(mediaType models.ContentType, id string, rec models.WatchProgressRecord) error {
	return s.post(fmt.Sprintf("%s/watch-progress/%s/%s", s.baseURL, mediaType, id), rec)
}

func (s *HTTPSink) post(url string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal progress payload: %w", err)
	}
	resp, err := s.client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post progress: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("progress sink returned status %d", resp.StatusCode)
	}
	return nil
}

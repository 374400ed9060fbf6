// Package kaggle is a minimal client for the Kaggle dataset download
// API: just enough to authenticate with an API token and pull a
// dataset archive.
package kaggle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"dataprep/internal/archive"
)

const defaultBaseURL = "https://www.kaggle.com"

// Credentials is the content of a kaggle.json API token.
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key"`
}

// LoadCredentials reads the API token from $KAGGLE_CONFIG_DIR or
// ~/.kaggle, the locations the official client uses.
func LoadCredentials() (*Credentials, error) {
	dir := os.Getenv("KAGGLE_CONFIG_DIR")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".kaggle")
	}

	path := filepath.Join(dir, "kaggle.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kaggle api token: %w (create one at kaggle.com/settings and save it to %s)", err, path)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if creds.Username == "" || creds.Key == "" {
		return nil, fmt.Errorf("%s is missing username or key", path)
	}
	return &creds, nil
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	creds *Credentials
}

func NewClient(creds *Credentials) *Client {
	return &Client{
		BaseURL:    defaultBaseURL,
		HTTPClient: http.DefaultClient,
		creds:      creds,
	}
}

// DownloadDataset fetches the dataset identified by slug
// ("owner/dataset"), saves the zip under outDir/<name>, and extracts
// it in place. It returns the extraction root.
func (c *Client) DownloadDataset(ctx context.Context, slug, name, outDir string) (string, error) {
	destDir := filepath.Join(outDir, name)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/v1/datasets/download/%s", c.BaseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Key)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("kaggle download %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("kaggle download %s: unexpected status %s", slug, resp.Status)
	}

	zipPath := filepath.Join(destDir, name+".zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("save %s: %w", zipPath, err)
	}
	log.Printf("kaggle: downloaded %s (%d bytes)", slug, written)

	root, err := archive.Extract(zipPath, destDir, archive.Options{})
	if err != nil {
		return "", err
	}
	return root, nil
}

package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
)

// mimeByExtension maps importable file extensions to the media type the
// ingestion pipeline receives. Anything else in the repository is skipped.
var mimeByExtension = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
}

// FetchedFile represents a text file fetched from a GitHub repository,
// ready to be handed to the ingestion pipeline as an upload.
type FetchedFile struct {
	Path     string // Relative path within the base directory
	Content  []byte // Raw file bytes
	MimeType string // Media type derived from the file extension
}

// Fetcher lists and fetches importable text files from a GitHub repository
// directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewFetcher creates a fetcher rooted at basePath within owner/repo.
func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListFiles recursively lists all importable text files under the base path.
func (f *Fetcher) ListFiles(ctx context.Context) ([]string, error) {
	return f.listFilesRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listFilesRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var files []string

	_, dirContents, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if _, ok := mimeByExtension[strings.ToLower(path.Ext(*item.Name))]; ok {
				files = append(files, itemRelPath)
			}

		case "dir":
			itemFullPath := path.Join(fullPath, *item.Name)
			subFiles, err := f.listFilesRecursive(ctx, itemFullPath, itemRelPath)
			if err != nil {
				return nil, err
			}
			files = append(files, subFiles...)
		}
	}

	return files, nil
}

// FetchFile fetches the content of a specific file by its relative path.
func (f *Fetcher) FetchFile(ctx context.Context, relativePath string) (*FetchedFile, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(
		ctx,
		f.owner,
		f.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}

	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	mimeType := mimeByExtension[strings.ToLower(path.Ext(relativePath))]
	if mimeType == "" {
		mimeType = "text/plain"
	}

	return &FetchedFile{
		Path:     relativePath,
		Content:  content,
		MimeType: mimeType,
	}, nil
}

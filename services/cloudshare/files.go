package cloudshare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"cloudshare/api"
	"cloudshare/models"
	"cloudshare/utils"
)

// sniffLen is how much of a stream is buffered for content type detection.
const sniffLen = 3072

// UploadFile is one part of a multipart upload.
type UploadFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// OpenUploads stats and opens paths on fs, rejecting directories and files
// over MaxFileSize before anything is read. The returned func closes every
// opened file.
func OpenUploads(fs afero.Fs, paths ...string) ([]UploadFile, func(), error) {
	if len(paths) == 0 {
		return nil, func() {}, ErrNoFiles
	}

	var opened []afero.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]UploadFile, 0, len(paths))
	for _, path := range paths {
		info, err := fs.Stat(path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s is a directory", path)
		}
		if info.Size() > MaxFileSize {
			closeAll()
			return nil, func() {}, fmt.Errorf("%s: %w", filepath.Base(path), ErrFileTooLarge)
		}
		f, err := fs.Open(path)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("open %s: %w", path, err)
		}
		opened = append(opened, f)
		files = append(files, UploadFile{Name: filepath.Base(path), Size: info.Size(), Content: f})
	}
	return files, closeAll, nil
}

// Upload sends files as repeated "file" parts to /files/upload. Each upload
// costs one credit per file; a 402 is returned as ErrInsufficientCredits and
// left to the caller to report.
func (c *Client) Upload(ctx context.Context, files []UploadFile) (*models.UploadResult, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if f.Size > MaxFileSize {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrFileTooLarge)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()
	ctx = api.Claim(ctx, http.StatusPaymentRequired)

	pr, pw := io.Pipe()
	defer pr.Close()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeParts(mw, files))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rootEndpoint("files", "upload"), pr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var listing models.FileListing
	if err := c.pipeline.DoJSON(req, &listing); err != nil {
		if api.StatusCode(err) == http.StatusPaymentRequired {
			return nil, fmt.Errorf("%w: %w", ErrInsufficientCredits, err)
		}
		return nil, err
	}

	log.Printf("[cloudshare] uploaded %d file(s)", len(listing.Files))
	return &models.UploadResult{Files: listing.Files, RemainingCredits: listing.RemainingCredits}, nil
}

func writeParts(mw *multipart.Writer, files []UploadFile) error {
	for _, f := range files {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(f.Content, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		head = head[:n]

		contentType := mimetype.Detect(head).String()
		if byExt := mime.TypeByExtension(filepath.Ext(f.Name)); byExt != "" && strings.HasPrefix(contentType, "text/plain") {
			contentType = byExt
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, io.MultiReader(bytes.NewReader(head), f.Content)); err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// MyFiles lists the caller's files and remaining credits.
func (c *Client) MyFiles(ctx context.Context) (*models.FileListing, error) {
	var listing models.FileListing
	if err := c.doJSON(ctx, http.MethodGet, c.rootEndpoint("files", "my"), nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// PublicFile fetches a public file's metadata. No session is required.
func (c *Client) PublicFile(ctx context.Context, id string) (*models.FileRecord, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	var file models.FileRecord
	if err := c.doJSON(ctx, http.MethodGet, c.rootEndpoint("files", "public", id), nil, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadURL is the direct download link for a file.
func (c *Client) DownloadURL(id string) string {
	return c.rootEndpoint("files", "download", utils.FileIDFromLink(id))
}

// ShareLink is the public page for a file on the web client.
func (c *Client) ShareLink(id string) string {
	return utils.ShareLink(c.webURL, utils.FileIDFromLink(id))
}

// Download streams a file into dst. The filename comes from
// Content-Disposition; the content type is sniffed when the server sends a
// generic one.
func (c *Client) Download(ctx context.Context, id string, dst io.Writer) (*models.Download, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.pipeline.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read download: %w", err)
	}
	head = head[:n]

	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), resp.Body))
	if err != nil {
		return nil, fmt.Errorf("write download: %w", err)
	}

	result := &models.Download{
		FileID:      id,
		Filename:    dispositionFilename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
		Bytes:       written,
	}
	detected := mimetype.Detect(head)
	if base, _, _ := mime.ParseMediaType(result.ContentType); base == "" || base == "application/octet-stream" {
		result.ContentType = detected.String()
	}
	result.Extension = filepath.Ext(result.Filename)
	if result.Extension == "" {
		result.Extension = detected.Extension()
	}
	if result.Filename == "" {
		result.Filename = id + result.Extension
	}

	log.Printf("[cloudshare] downloaded %s (%d bytes)", id, written)
	return result, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	return filepath.Base(name)
}

// DeleteFile removes one of the caller's files.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if _, err := c.doText(ctx, http.MethodDelete, c.rootEndpoint("files", "delete", id)); err != nil {
		return err
	}
	log.Printf("[cloudshare] deleted file %s", id)
	return nil
}

// TogglePublic flips a file between public and private.
func (c *Client) TogglePublic(ctx context.Context, id string) (*models.FileRecord, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	var file models.FileRecord
	if err := c.doJSON(ctx, http.MethodPatch, c.rootEndpoint("files", id, "toggle-public"), struct{}{}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// Visibility filters a file listing.
type Visibility string

const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// FilterFiles keeps files whose name contains search (case-insensitive) and
// whose visibility matches. An empty visibility means all.
func FilterFiles(files []models.FileRecord, search string, visibility Visibility) []models.FileRecord {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.FileRecord, 0, len(files))
	for _, f := range files {
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			continue
		}
		switch visibility {
		case VisibilityPublic:
			if !f.IsPublic {
				continue
			}
		case VisibilityPrivate:
			if f.IsPublic {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

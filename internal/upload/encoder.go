// Package upload reads staged image files and encodes them for transport.
//
// Each accepted file is read by its own task. Tasks report back over a
// channel to the single goroutine that called Encode, which is the only
// place callbacks run. Results therefore arrive in completion order, not
// selection order.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iconidentify/exambot/internal/config"
	"github.com/iconidentify/exambot/internal/domain"
)

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// File is one user-selected file.
type File struct {
	Name string
	// ContentType is the type declared by the client. When empty it is
	// detected from the file content.
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name, contentType string, content []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// Encoder turns Files into UploadedImages.
type Encoder struct {
	maxBytes    int64
	concurrency int
	newID       func() domain.ImageID
}

// NewEncoder creates an encoder from upload limits.
func NewEncoder(cfg config.UploadConfig) *Encoder {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Encoder{
		maxBytes:    cfg.MaxFileBytes,
		concurrency: cfg.Concurrency,
		newID: func() domain.ImageID {
			return domain.ImageID(uuid.NewString())
		},
	}
}

type result struct {
	file  File
	image domain.UploadedImage
	err   error
}

// Encode validates and reads files. Files whose declared type is off the
// allow-list are rejected before any read, in selection order. Accepted
// files are read concurrently and delivered to onEncoded as each finishes;
// read failures, oversize files and files whose sniffed type is not allowed
// go to onReject. Both callbacks run on the calling goroutine.
func (e *Encoder) Encode(
	ctx context.Context,
	files []File,
	onReject func(File, error),
	onEncoded func(domain.UploadedImage),
) error {
	accepted := make([]File, 0, len(files))
	for _, f := range files {
		if f.ContentType != "" && !domain.IsAllowedImageType(f.ContentType) {
			onReject(f, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, f.ContentType))
			continue
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return nil
	}

	results := make(chan result)

	var eg errgroup.Group
	eg.SetLimit(e.concurrency)

	go func() {
		for _, f := range accepted {
			f := f
			eg.Go(func() error {
				img, err := e.read(f)
				select {
				case results <- result{file: f, image: img, err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
		eg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			onReject(r.file, r.err)
			continue
		}
		onEncoded(r.image)
	}

	return ctx.Err()
}

func (e *Encoder) read(f File) (domain.UploadedImage, error) {
	rc, err := f.Open()
	if err != nil {
		return domain.UploadedImage{}, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if e.maxBytes > 0 {
		r = io.LimitReader(rc, e.maxBytes+1)
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return domain.UploadedImage{}, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if e.maxBytes > 0 && int64(len(content)) > e.maxBytes {
		return domain.UploadedImage{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrImageTooLarge, f.Name, e.maxBytes)
	}

	contentType := f.ContentType
	if contentType == "" {
		head := content
		if len(head) > sniffLen {
			head = head[:sniffLen]
		}
		contentType = http.DetectContentType(head)
		if !domain.IsAllowedImageType(contentType) {
			return domain.UploadedImage{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedImage, contentType)
		}
	}

	return domain.NewUploadedImage(e.newID(), f.Name, contentType, content), nil
}

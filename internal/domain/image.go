package domain

import (
	"encoding/base64"
	"strings"
)

// Accepted upload content types.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEWebP = "image/webp"
)

// AllowedImageTypes is the upload allow-list.
var AllowedImageTypes = []string{MIMEJPEG, MIMEPNG, MIMEWebP}

// IsAllowedImageType reports whether contentType is on the upload allow-list.
// Parameters such as "; charset=" are ignored.
func IsAllowedImageType(contentType string) bool {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	for _, t := range AllowedImageTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// ImageID identifies a staged upload.
type ImageID string

// String returns the string representation of the ImageID.
func (id ImageID) String() string {
	return string(id)
}

// UploadedImage is a file staged in memory for generation.
type UploadedImage struct {
	ID          ImageID
	Name        string
	ContentType string
	// Preview is a data URL suitable for an <img> src.
	Preview string
	// Base64 is the transport payload without the data URL prefix.
	Base64 string
}

// NewUploadedImage encodes content into both its preview and payload forms.
func NewUploadedImage(id ImageID, name, contentType string, content []byte) UploadedImage {
	payload := base64.StdEncoding.EncodeToString(content)
	return UploadedImage{
		ID:          id,
		Name:        name,
		ContentType: contentType,
		Preview:     "data:" + contentType + ";base64," + payload,
		Base64:      payload,
	}
}

// PayloadFromDataURL returns the part of a data URL after the first comma.
func PayloadFromDataURL(dataURL string) string {
	_, payload, found := strings.Cut(dataURL, ",")
	if !found {
		return ""
	}
	return payload
}

// ImageList is the ordered set of staged uploads.
type ImageList []UploadedImage

// Append returns the list with img added at the end.
func (l ImageList) Append(img UploadedImage) ImageList {
	return append(l, img)
}

// Remove returns the list without id. Absent ids leave it unchanged.
func (l ImageList) Remove(id ImageID) ImageList {
	out := make(ImageList, 0, len(l))
	for _, img := range l {
		if img.ID != id {
			out = append(out, img)
		}
	}
	return out
}

// Find looks up an image by id.
func (l ImageList) Find(id ImageID) (UploadedImage, bool) {
	for _, img := range l {
		if img.ID == id {
			return img, true
		}
	}
	return UploadedImage{}, false
}

// Payloads returns the base64 payloads in list order.
func (l ImageList) Payloads() []string {
	out := make([]string, len(l))
	for i, img := range l {
		out[i] = img.Base64
	}
	return out
}

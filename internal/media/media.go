package media

import (
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
)

// Resizer rewrites Cloudinary product-image URLs into sized delivery URLs
// so listings ship thumbnails instead of originals. Non-Cloudinary URLs and
// a nil Resizer pass everything through untouched.
type Resizer struct {
	cld *cloudinary.Cloudinary
}

func New(cloudinaryURL string) (*Resizer, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &Resizer{cld: cld}, nil
}

const (
	thumbTransform  = "c_fill,w_400,h_400,q_auto,f_auto"
	detailTransform = "c_limit,w_1200,h_1200,q_auto,f_auto"
)

func (r *Resizer) Thumbnail(imageURL string) string {
	return r.deliver(imageURL, thumbTransform)
}

func (r *Resizer) Detail(imageURL string) string {
	return r.deliver(imageURL, detailTransform)
}

func (r *Resizer) deliver(imageURL, transform string) string {
	if r == nil || r.cld == nil {
		return imageURL
	}
	publicID := extractPublicID(imageURL)
	if publicID == "" {
		return imageURL
	}

	img, err := r.cld.Image(publicID)
	if err != nil {
		return imageURL
	}
	img.Transformation = transform

	out, err := img.String()
	if err != nil {
		return imageURL
	}
	return out
}

// extractPublicID pulls the public id out of a Cloudinary delivery URL:
// everything after the version segment that follows "upload", minus the
// file extension. Returns "" for anything that doesn't look like one.
func extractPublicID(imageURL string) string {
	parts := strings.Split(imageURL, "/")

	uploadIndex := -1
	for i, part := range parts {
		if part == "upload" {
			uploadIndex = i
			break
		}
	}
	// Need "upload", a version segment, and at least one path segment after.
	if uploadIndex == -1 || uploadIndex+2 >= len(parts) {
		return ""
	}
	if !strings.HasPrefix(parts[uploadIndex+1], "v") {
		return ""
	}

	publicID := strings.Join(parts[uploadIndex+2:], "/")
	if dot := strings.LastIndex(publicID, "."); dot > 0 {
		publicID = publicID[:dot]
	}
	return publicID
}

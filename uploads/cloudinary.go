package uploads

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"classifieds/apperr"
)

// CloudinaryStore hosts images on Cloudinary.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(url string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: "classifieds/posts"}, nil
}

func (s *CloudinaryStore) Save(ctx context.Context, r io.Reader, filename string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       uuid.NewString(),
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	})
	if err != nil {
		return "", fmt.Errorf("%w: image upload failed", apperr.ErrUpstream)
	}
	return result.SecureURL, nil
}

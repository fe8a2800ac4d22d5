package ports

import (
	"context"
	"io"
)

// MediaStore keeps uploaded post media and maps it to public URLs.
// contentType is the detected type of content; it decides the stored
// extension and so the type the file is later served with.
type MediaStore interface {
	Save(ctx context.Context, userID, filename, contentType string, content io.Reader) (mediaURL string, err error)
	Delete(ctx context.Context, mediaURL string) error
}

// MediaCleaner removes media files off the request path.
type MediaCleaner interface {
	Enqueue(mediaURL string)
}

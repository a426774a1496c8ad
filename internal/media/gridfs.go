package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS keeps uploads in a MongoDB GridFS bucket. Objects are served back
// through the service at BaseURL + "/api/media/{id}".
type GridFS struct {
	DB      *mongo.Database
	BaseURL string
}

func NewGridFS(client *mongo.Client, dbName, baseURL string) *GridFS {
	return &GridFS{DB: client.Database(dbName), BaseURL: strings.TrimRight(baseURL, "/")}
}

func (g *GridFS) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	bucket, err := gridfs.NewBucket(g.DB)
	if err != nil {
		return "", fmt.Errorf("GridFS.Put bucket: %w", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	stream, err := bucket.OpenUploadStream(name, opts)
	if err != nil {
		return "", fmt.Errorf("GridFS.Put open: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(dl)
	}
	if err := upload(stream, r); err != nil {
		return "", fmt.Errorf("GridFS.Put: %w", err)
	}

	id := stream.FileID.(primitive.ObjectID).Hex()
	return g.BaseURL + "/api/media/" + id, nil
}

// uploadStream is the part of *gridfs.UploadStream that upload drives.
type uploadStream interface {
	io.Writer
	Close() error
	Abort() error
}

// upload copies r into w. Close flushes the last chunk and writes the files
// document, so the file only exists once it returns nil.
func upload(w uploadStream, r io.Reader) error {
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Abort()
		return fmt.Errorf("copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func (g *GridFS) Open(ctx context.Context, id string) (io.ReadCloser, string, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrNotFound
	}
	bucket, err := gridfs.NewBucket(g.DB)
	if err != nil {
		return nil, "", fmt.Errorf("GridFS.Open bucket: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("GridFS.Open: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(dl)
	}

	contentType := "application/octet-stream"
	if f := stream.GetFile(); f != nil && len(f.Metadata) > 0 {
		if ct, ok := f.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return stream, contentType, nil
}

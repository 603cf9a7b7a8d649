package publishsvc

import (
	"context"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// PutObjectAPI is the part of the S3 client the uploader uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader publishes generated report files to a bucket.
type Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	return s3.NewFromConfig(cfg), nil
}

func NewUploader(client PutObjectAPI, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key is the object key of a file, relative to `baseDir`.
func (u *Uploader) Key(baseDir, file string) string {
	rel, err := filepath.Rel(baseDir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	return path.Join(u.prefix, filepath.ToSlash(rel))
}

// UploadFiles uploads every file under its key and returns the keys.
func (u *Uploader) UploadFiles(ctx context.Context, baseDir string, files ...string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key := u.Key(baseDir, file)
		if err := u.upload(ctx, file, key); err != nil {
			return keys, errors.Wrapf(err, "uploading %s", file)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (u *Uploader) upload(ctx context.Context, file, key string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	in := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	_, err = u.client.PutObject(ctx, in)
	return err
}

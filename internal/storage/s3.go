// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage keeps a mirror of downloaded dataset files in
// S3-compatible object storage. The mirror is refreshed after every
// successful download and serves pre-signed links while the catalog API
// cannot deliver a file. It wraps the AWS SDK v2 with path-style access.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// LinkTTL is how long a pre-signed mirror link stays valid.
const LinkTTL = 15 * time.Minute

// Mirror stores dataset files in one bucket.
type Mirror struct {
	s3        *s3.Client
	presigner *s3.PresignClient
	bucket    string
}

// New creates a mirror client with path-style addressing. Returns
// (nil, nil) when endpoint, credentials or bucket are empty, so the app
// starts without a mirror.
func New(endpoint, region, accessKey, secretKey, bucket string) (*Mirror, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}
	if region == "" {
		region = "us-east-1"
	}

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(strings.TrimRight(endpoint, "/")),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Mirror{
		s3:        client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}, nil
}

// DatasetKey returns the object key holding the mirrored file of a dataset.
func DatasetKey(datasetID int64) string {
	return datasetPrefix(datasetID) + "file"
}

func datasetPrefix(datasetID int64) string {
	return "datasets/" + strconv.FormatInt(datasetID, 10) + "/"
}

// Put stores a dataset file, replacing any previous copy. The download
// name is kept in the object's Content-Disposition.
func (m *Mirror) Put(ctx context.Context, datasetID int64, filename, contentType string, body io.ReadSeeker, size int64) error {
	key := DatasetKey(datasetID)
	_, err := m.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(m.bucket),
		Key:                aws.String(key),
		Body:               body,
		ContentLength:      aws.Int64(size),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(attachment(filename)),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", m.bucket, key, err)
	}
	return nil
}

// Has reports whether a mirrored copy of the dataset exists.
func (m *Mirror) Has(ctx context.Context, datasetID int64) (bool, error) {
	key := DatasetKey(datasetID)
	_, err := m.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s/%s: %w", m.bucket, key, err)
}

// Link returns a pre-signed GET URL for the mirrored copy, saved as filename.
func (m *Mirror) Link(ctx context.Context, datasetID int64, filename string) (string, error) {
	key := DatasetKey(datasetID)
	req, err := m.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(m.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(attachment(filename)),
	}, s3.WithPresignExpires(LinkTTL))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", m.bucket, key, err)
	}
	return req.URL, nil
}

// Delete removes every mirrored object of a dataset.
func (m *Mirror) Delete(ctx context.Context, datasetID int64) error {
	prefix := datasetPrefix(datasetID)
	pages := s3.NewListObjectsV2Paginator(m.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(m.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list %s/%s: %w", m.bucket, prefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}
		ids := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
		}
		_, err = m.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(m.bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3 delete %s/%s: %w", m.bucket, prefix, err)
		}
	}
	return nil
}

// attachment builds a Content-Disposition value that survives non-ASCII
// dataset names.
func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

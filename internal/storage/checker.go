// Package storage checks that the copy sources exist before a load
package storage

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"dwhload/internal/common"
	"dwhload/pkg/errors"
)

// Sources are the locations the copy phase reads
type Sources struct {
	LogData     string
	LogJSONPath string
	SongData    string
}

// SourceStatus is the outcome of checking one source
type SourceStatus struct {
	Name   string
	URI    string
	Exists bool
	// Sample is the first object key or file found below the source
	Sample string
	Err    error
}

// Checker inspects S3 prefixes and local directories
type Checker struct {
	client s3iface.S3API
}

// NewChecker creates a checker. client may be nil when every source is local.
func NewChecker(client s3iface.S3API) *Checker {
	return &Checker{client: client}
}

// NewS3Client builds an S3 client for region. anonymous skips the
// credential chain, which is enough for public buckets.
func NewS3Client(region string, anonymous bool) (s3iface.S3API, error) {
	cfg := &aws.Config{
		Region:                        aws.String(region),
		CredentialsChainVerboseErrors: aws.Bool(true),
	}
	if anonymous {
		cfg.Credentials = credentials.AnonymousCredentials
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceAccess, "Failed to create AWS session").
			WithContext("region", region)
	}
	return s3.New(sess), nil
}

// Check inspects every configured source. It returns an error when at least
// one source is missing or unreachable; the statuses are complete either way.
func (c *Checker) Check(ctx context.Context, src Sources) ([]SourceStatus, error) {
	entries := []struct {
		name   string
		uri    string
		object bool
	}{
		{"log_data", src.LogData, false},
		{"log_jsonpath", src.LogJSONPath, true},
		{"song_data", src.SongData, false},
	}

	var statuses []SourceStatus
	failed := 0
	for _, e := range entries {
		if e.uri == "" {
			continue
		}
		st := c.checkOne(ctx, e.name, e.uri, e.object)
		if !st.Exists {
			failed++
		}
		statuses = append(statuses, st)
	}

	if failed > 0 {
		first := statuses[0]
		for _, st := range statuses {
			if !st.Exists {
				first = st
				break
			}
		}
		if first.Err != nil {
			return statuses, errors.SourceError(fmt.Sprintf("%d of %d sources unavailable", failed, len(statuses)), first.URI, first.Err)
		}
		return statuses, errors.SourceError(fmt.Sprintf("%d of %d sources unavailable", failed, len(statuses)), first.URI, nil)
	}
	return statuses, nil
}

func (c *Checker) checkOne(ctx context.Context, name, uri string, object bool) SourceStatus {
	st := SourceStatus{Name: name, URI: uri}
	if !strings.HasPrefix(uri, "s3://") {
		st.Sample, st.Exists, st.Err = checkLocal(uri)
		return st
	}
	if c.client == nil {
		st.Err = errors.New(errors.ErrCodeSourceAccess, "No S3 client configured")
		return st
	}

	bucket, key, err := ParseURI(uri)
	if err != nil {
		st.Err = err
		return st
	}

	if object {
		_, err := c.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			if !isNotFound(err) {
				st.Err = err
			}
			return st
		}
		st.Exists = true
		st.Sample = key
		return st
	}

	out, err := c.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int64(1),
	})
	if err != nil {
		st.Err = err
		return st
	}
	if len(out.Contents) > 0 {
		st.Exists = true
		st.Sample = aws.StringValue(out.Contents[0].Key)
	}
	return st
}

func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}

// ParseURI splits s3://bucket/key into bucket and key
func ParseURI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("Invalid S3 URI %q", uri)).
			WithContext("uri", uri)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func checkLocal(uri string) (sample string, exists bool, err error) {
	path, err := common.CleanPath(common.StripScheme(uri))
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if !info.IsDir() {
		return path, true, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".json") {
			sample = p
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return sample, sample != "", nil
}

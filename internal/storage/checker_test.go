package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dwhload/internal/testutil"
	"dwhload/pkg/errors"
)

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]string
	listed  []string
}

func (f *fakeS3) ListObjectsV2WithContext(_ aws.Context, in *s3.ListObjectsV2Input, _ ...request.Option) (*s3.ListObjectsV2Output, error) {
	bucket := aws.StringValue(in.Bucket)
	f.listed = append(f.listed, bucket+"/"+aws.StringValue(in.Prefix))
	keys, ok := f.objects[bucket]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "The specified bucket does not exist", nil)
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		if len(k) >= len(aws.StringValue(in.Prefix)) && k[:len(aws.StringValue(in.Prefix))] == aws.StringValue(in.Prefix) {
			out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
			break
		}
	}
	return out, nil
}

func (f *fakeS3) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	for _, k := range f.objects[aws.StringValue(in.Bucket)] {
		if k == aws.StringValue(in.Key) {
			return &s3.HeadObjectOutput{ContentLength: aws.Int64(10)}, nil
		}
	}
	return nil, awserr.New("NotFound", "Not Found", nil)
}

func udacity() *fakeS3 {
	return &fakeS3{objects: map[string][]string{
		"udacity-dend": {
			"log_data/2018/11/2018-11-01-events.json",
			"log_json_path.json",
			"song_data/A/A/A/TRAAAAW128F429D538.json",
		},
	}}
}

func TestCheckS3(t *testing.T) {
	client := udacity()
	statuses, err := NewChecker(client).Check(context.Background(), Sources{
		LogData:     "s3://udacity-dend/log_data",
		LogJSONPath: "s3://udacity-dend/log_json_path.json",
		SongData:    "s3://udacity-dend/song_data",
	})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	assert.Equal(t, "log_data", statuses[0].Name)
	assert.Equal(t, "log_data/2018/11/2018-11-01-events.json", statuses[0].Sample)
	assert.True(t, statuses[1].Exists)
	assert.Equal(t, "log_json_path.json", statuses[1].Sample)
	assert.True(t, statuses[2].Exists)
	assert.Equal(t, []string{"udacity-dend/log_data", "udacity-dend/song_data"}, client.listed)
}

func TestCheckS3Missing(t *testing.T) {
	statuses, err := NewChecker(udacity()).Check(context.Background(), Sources{
		LogData:     "s3://udacity-dend/log_data",
		LogJSONPath: "s3://udacity-dend/missing.json",
		SongData:    "s3://other-bucket/song_data",
	})
	require.Error(t, err)
	require.Len(t, statuses, 3)

	assert.True(t, statuses[0].Exists)
	assert.False(t, statuses[1].Exists)
	assert.NoError(t, statuses[1].Err)
	assert.False(t, statuses[2].Exists)
	assert.Error(t, statuses[2].Err)

	uri, _ := errors.GetContext(err, "uri")
	assert.Equal(t, "s3://udacity-dend/missing.json", uri)
	assert.Equal(t, errors.ErrCodeSourceNotFound, errors.GetErrorCode(err))
}

func TestCheckLocal(t *testing.T) {
	logDir, songDir := testutil.NewTestHelper(t).SourceTree()

	statuses, err := NewChecker(nil).Check(context.Background(), Sources{LogData: logDir, SongData: songDir})
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, filepath.Join(logDir, "2018", "11", "2018-11-01-events.json"), statuses[0].Sample)

	empty := t.TempDir()
	statuses, err = NewChecker(nil).Check(context.Background(), Sources{LogData: empty})
	require.Error(t, err)
	assert.False(t, statuses[0].Exists)
}

func TestCheckS3WithoutClient(t *testing.T) {
	statuses, err := NewChecker(nil).Check(context.Background(), Sources{LogData: "s3://b/log_data"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSourceAccess, errors.GetErrorCode(err))
	assert.False(t, statuses[0].Exists)
}

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://udacity-dend/song_data/A")
	require.NoError(t, err)
	assert.Equal(t, "udacity-dend", bucket)
	assert.Equal(t, "song_data/A", key)

	_, _, err = ParseURI("https://udacity-dend/song_data")
	assert.Error(t, err)
	_, _, err = ParseURI("s3:///key")
	assert.Error(t, err)
}

func TestNewS3Client(t *testing.T) {
	client, err := NewS3Client("us-west-2", true)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

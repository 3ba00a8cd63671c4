package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mobility-synth/models"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func writeArtifact(t *testing.T) models.Artifact {
	t.Helper()
	session := filepath.Join(t.TempDir(), "berlin_20200309_120000")
	require.NoError(t, os.MkdirAll(session, 0755))
	path := filepath.Join(session, "berlin_data.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,time\n0,x\n"), 0644))
	return models.Artifact{RunID: "run-9", SessionDir: session, CSVPath: path}
}

func TestS3Sink_Store(t *testing.T) {
	putter := &fakePutter{}
	sink, err := NewS3Sink(putter, "datasets-bucket", "synthetic/", zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "s3", sink.Name())

	a := writeArtifact(t)
	require.NoError(t, sink.Store(context.Background(), a))

	require.NotNil(t, putter.input)
	assert.Equal(t, "datasets-bucket", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "synthetic/berlin_20200309_120000/berlin_data.csv", aws.ToString(putter.input.Key))
	assert.Equal(t, "text/csv", aws.ToString(putter.input.ContentType))
	assert.Equal(t, "run-9", putter.input.Metadata["run-id"])
	assert.Equal(t, "id,time\n0,x\n", string(putter.body))
}

func TestS3Sink_Errors(t *testing.T) {
	_, err := NewS3Sink(&fakePutter{}, "", "", zap.NewNop())
	assert.Error(t, err)

	uploadErr := errors.New("access denied")
	sink, err := NewS3Sink(&fakePutter{err: uploadErr}, "b", "", zap.NewNop())
	require.NoError(t, err)
	assert.ErrorIs(t, sink.Store(context.Background(), writeArtifact(t)), uploadErr)

	missing := models.Artifact{CSVPath: filepath.Join(t.TempDir(), "gone.csv")}
	assert.Error(t, sink.Store(context.Background(), missing))
}

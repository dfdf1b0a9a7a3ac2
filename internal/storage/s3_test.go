package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storedObject struct {
	body         []byte
	contentType  string
	cacheControl string
}

// fakeS3 keeps objects in memory. Only the calls S3Provider makes are implemented.
type fakeS3 struct {
	s3iface.S3API
	objects map[string]storedObject
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]storedObject{}}
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)] = storedObject{
		body:         body,
		contentType:  aws.StringValue(in.ContentType),
		cacheControl: aws.StringValue(in.CacheControl),
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	obj, ok := f.objects[aws.StringValue(in.Bucket)+"/"+aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "the specified key does not exist", nil)
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.body)),
		ContentType:   aws.String(obj.contentType),
		ContentLength: aws.Int64(int64(len(obj.body))),
	}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	prefix := aws.StringValue(in.Bucket) + "/" + aws.StringValue(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, aws.StringValue(in.Bucket)+"/"))
		}
	}
	sort.Strings(keys)

	// two pages, to exercise the pager callback
	half := len(keys) / 2
	pages := [][]string{keys[:half], keys[half:]}
	for i, page := range pages {
		out := &s3.ListObjectsV2Output{}
		for _, k := range page {
			out.Contents = append(out.Contents, &s3.Object{Key: aws.String(k)})
		}
		if !fn(out, i == len(pages)-1) {
			break
		}
	}
	return nil
}

func TestS3ProviderPublishAndList(t *testing.T) {
	api := newFakeS3()
	c := NewWithProvider(&S3Provider{api: api}, "talks")
	ctx := context.Background()

	for _, name := range []string{"a.yaml", "b.csv", "c.yaml"} {
		_, err := c.PublishExport(ctx, name, []byte(name), "text/plain")
		require.NoError(t, err)
	}
	api.objects["talks/unrelated.txt"] = storedObject{body: []byte("x")}

	keys, err := c.ListExports(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"rota/a.yaml", "rota/b.csv", "rota/c.yaml"}, keys)
	assert.Equal(t, "no-cache", api.objects["talks/rota/b.csv"].cacheControl)

	obj, err := c.DownloadExport(ctx, "rota/b.csv")
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "b.csv", string(body))
	assert.Equal(t, "text/plain", obj.ContentType)
}

func TestListExportsIsCached(t *testing.T) {
	api := newFakeS3()
	c := NewWithProvider(&S3Provider{api: api}, "talks")
	ctx := context.Background()

	_, err := c.PublishExport(ctx, "a.yaml", []byte("a"), "application/yaml")
	require.NoError(t, err)
	first, err := c.ListExports(ctx)
	require.NoError(t, err)

	// written behind the client's back: not visible until the cache expires
	api.objects["talks/rota/sneaky.yaml"] = storedObject{}
	second, err := c.ListExports(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// publishing through the client drops the cache
	_, err = c.PublishExport(ctx, "b.yaml", []byte("b"), "application/yaml")
	require.NoError(t, err)
	third, err := c.ListExports(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 3)
}

package s3

import (
	"context"
	"io"
	"os"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	DocumentBucket *oss.Bucket
	GetObjectFunc  func(string, context.Context, ...oss.Option) (io.ReadCloser, error)
	PutObjectFunc  func(string, io.Reader, context.Context, ...oss.Option) error
)

func Bootstrap() {
	var err error
	DocumentBucket, err = BuildBucketFromEnv()
	if err != nil {
		panic(err)
	}

	GetObjectFunc = GetObject
	PutObjectFunc = PutObject
}

func BuildBucketFromEnv() (*oss.Bucket, error) {
	endpoint := os.ExpandEnv(os.Getenv("OSS_ENDPOINT"))
	if endpoint == "" {
		endpoint = "dummy"
	}
	accessKey := os.Getenv("OSS_ACCESS_KEY")
	secretKey := os.Getenv("OSS_SECRET_KEY")
	bucket := os.Getenv("OSS_BUCKET")
	if bucket == "" {
		bucket = "pms-documents"
	}
	return BuildBucket(endpoint, accessKey, secretKey, bucket)
}

func BuildBucket(endpoint, accesskey, secretKey, bucketName string) (*oss.Bucket, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(endpoint, accesskey, secretKey, oss.HTTPClient(nil))
	if err != nil {
		return nil, err
	}

	bucket, err := cli.Bucket(bucketName)
	if err != nil {
		return nil, err
	}
	return bucket, nil
}

func GetObject(key string, ctx context.Context, opts ...oss.Option) (io.ReadCloser, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "oss get object")
	ext.SpanKindRPCClient.Set(span)
	defer span.Finish()

	return DocumentBucket.GetObject(key, opts...)
}

func PutObject(key string, reader io.Reader, ctx context.Context, opts ...oss.Option) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "oss put object")
	ext.SpanKindRPCClient.Set(span)
	defer span.Finish()

	return DocumentBucket.PutObject(key, reader, opts...)
}

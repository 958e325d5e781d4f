package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config 对象存储配置，Endpoint 为空时使用 AWS 默认地址
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// S3API GetObject 子集，便于测试替换
type S3API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// S3Fetcher 下载 s3://bucket/key 地址
type S3Fetcher struct {
	api S3API
}

// NewS3Fetcher 使用已有客户端创建
func NewS3Fetcher(api S3API) *S3Fetcher {
	return &S3Fetcher{api: api}
}

// NewS3FetcherFromConfig 按配置创建客户端
func NewS3FetcherFromConfig(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载 S3 配置失败: %w", err)
	}

	endpoint := cfg.Endpoint
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = !strings.Contains(endpoint, "amazonaws.com")
		}
	})
	return &S3Fetcher{api: client}, nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := f.api.GetObject(ctx, &awss3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s 失败: %w", rawURL, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", rawURL, err)
	}
	ct := ""
	if out.ContentType != nil {
		ct = *out.ContentType
	}
	return &Fetched{Data: data, ContentType: ct}, nil
}

func parseS3URL(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("解析地址失败: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("无效的 S3 地址: %s", rawURL)
	}
	return u.Host, key, nil
}

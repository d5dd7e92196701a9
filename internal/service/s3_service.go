package service

import (
	"bytes"
	"context"
	"encoding/json"
	"factory-server/config"
	"factory-server/internal/model"
	"factory-server/internal/util"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// S3Service : архив удаляемых сессий в S3 (или MinIO в локальном режиме)
type S3Service struct {
	client *s3.Client
	bucket string
	prefix string
	clock  clockwork.Clock
}

func NewS3Service(ctx context.Context, cfg *config.S3Config, clock clockwork.Clock) (*S3Service, error) {
	var client *s3.Client

	if cfg.Local {
		client = s3.New(s3.Options{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				"minioadmin",
				"minioadmin",
				"",
			),
			BaseEndpoint: aws.String(cfg.Endpoint),
			UsePathStyle: true,
		})

		if err := createBucketIfNotExists(ctx, client, cfg.Bucket); err != nil {
			return nil, err
		}
	} else {
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, util.LogError("[S3Service] ошибка загрузки AWS config", err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
		})
	}

	return &S3Service{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		clock:  clock,
	}, nil
}

// createBucketIfNotExists создает бакет если он не существует
func createBucketIfNotExists(ctx context.Context, client *s3.Client, bucket string) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return util.LogError("[S3Service] ошибка создания бакета", err)
	}

	zap.L().Info("бакет создан", zap.String("bucket", bucket))
	return nil
}

// ArchiveSessions : один JSON объект на проход очистки, ключ prefix/YYYY/MM/DD/sessions-<unixnano>.json
func (s *S3Service) ArchiveSessions(ctx context.Context, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	body, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("[S3Service] ошибка сериализации сессий: %w", err)
	}

	key := s.objectKey()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return util.LogError("[S3Service] не удалось загрузить архив сессий", err)
	}

	zap.L().Info("сессии выгружены в архив", zap.String("key", key), zap.Int("count", len(sessions)))
	return nil
}

func (s *S3Service) objectKey() string {
	now := s.clock.Now().UTC()
	return path.Join(s.prefix, now.Format("2006/01/02"), fmt.Sprintf("sessions-%d.json", now.UnixNano()))
}

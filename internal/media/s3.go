package media

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Config содержит настройки подключения к S3
type S3Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// S3 хранит аудиофайлы библиотеки в бакете S3 и отдает их
// буферизованным HTTP-потоком для воспроизведения без полной загрузки.
type S3 struct {
	uploader *s3manager.Uploader
	client   *s3.S3
	config   *S3Config
}

// размер буфера потокового чтения
const streamBufferSize = 256 * 1024

// NewS3 создает хранилище поверх бакета S3
func NewS3(config *S3Config) (*S3, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return &S3{
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
		config:   config,
	}, nil
}

// Open открывает поток аудио песни из бакета
func (s *S3) Open(ctx context.Context, songID string, lossless bool) (io.ReadCloser, string, error) {
	ext, mime := formatFor(lossless)
	key := songID + "." + ext

	// Проверяем наличие объекта до открытия потока
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case s3.ErrCodeNoSuchKey, "NotFound":
				return nil, "", fmt.Errorf("песня %q: %w", songID, ErrMediaNotFound)
			}
		}
		return nil, "", fmt.Errorf("ошибка проверки объекта S3: %w", err)
	}

	reader, err := newStreamReader(ctx, s.objectURL(key), streamBufferSize)
	if err != nil {
		return nil, "", err
	}
	return reader, mime, nil
}

// Upload загружает аудиофайл песни в бакет и возвращает его URL
func (s *S3) Upload(ctx context.Context, songID, ext string, body io.Reader) (string, error) {
	key := songID + "." + ext
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("ошибка загрузки в S3: %w", err)
	}
	return s.objectURL(key), nil
}

// Remove удаляет все файлы песни из бакета
func (s *S3) Remove(ctx context.Context, songID string) error {
	for _, ext := range []string{"mp3", "flac"} {
		_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.config.BucketName),
			Key:    aws.String(songID + "." + ext),
		})
		if err != nil {
			return fmt.Errorf("ошибка удаления файла из S3: %w", err)
		}
	}
	return nil
}

// objectURL формирует URL объекта в бакете
func (s *S3) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.config.Endpoint, s.config.BucketName, key)
}

package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/constants"
	"resume-parser-go/internal/logger"
)

// ResumeArchive 归档上传的原始简历文件
type ResumeArchive interface {
	// ArchiveOriginal 返回对象路径 bucket/key
	ArchiveOriginal(ctx context.Context, userID, parseID, filename string, data []byte, contentType string) (string, error)
}

// ResumeObjectKey 原始文件的对象键 resumes/{userId}/{parseId}{ext}
// 各段原样拼接，不做路径清理
func ResumeObjectKey(userID, parseID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.Join([]string{constants.ArchiveObjectPrefix, userID, parseID + ext}, "/")
}

// MinIO 提供对象存储功能
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	logger zerolog.Logger
}

// NewMinIO 创建MinIO客户端，确保存储桶存在并设置过期规则
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		logger: logger.Component("minio"),
	}

	if err := m.ensureBucketExists(ctx, cfg.BucketName, cfg.Location); err != nil {
		return nil, err
	}
	if cfg.OriginalFileExpireDays > 0 {
		// 生命周期规则设置失败不影响归档
		if err := m.setupBucketLifecycle(ctx, cfg.BucketName, "expire-resume-originals", cfg.OriginalFileExpireDays); err != nil {
			m.logger.Warn().Err(err).Str("bucket", cfg.BucketName).Msg("设置生命周期规则失败")
		}
	}

	m.logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(ctx context.Context, bucketName, location string) error {
	exists, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
	}
	m.logger.Info().Str("bucket", bucketName).Msg("已创建存储桶")
	return nil
}

// setupBucketLifecycle 为存储桶设置过期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	cfg := lifecycle.NewConfiguration()
	cfg.Rules = []lifecycle.Rule{
		{
			ID:         ruleID,
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: constants.ArchiveObjectPrefix + "/"},
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}
	return m.client.SetBucketLifecycle(ctx, bucketName, cfg)
}

// ArchiveOriginal 实现 ResumeArchive
func (m *MinIO) ArchiveOriginal(ctx context.Context, userID, parseID, filename string, data []byte, contentType string) (string, error) {
	objectName := ResumeObjectKey(userID, parseID, filename)
	sum := md5.Sum(data)

	info, err := m.client.PutObject(ctx, m.cfg.BucketName, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"user-id":           userID,
			"parse-id":          parseID,
			"original-filename": filename,
			"md5":               hex.EncodeToString(sum[:]),
		},
	})
	if err != nil {
		return "", fmt.Errorf("上传原始文件 %s 失败: %w", objectName, err)
	}

	m.logger.Debug().Str("object", objectName).Int64("size", info.Size).Msg("原始文件已归档")
	return m.cfg.BucketName + "/" + objectName, nil
}

var _ ResumeArchive = (*MinIO)(nil)

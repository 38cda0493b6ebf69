// Package backend describes the remote state backend of a cluster and checks
// that the AWS account and state bucket are usable before synthesis.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/jmcastellanojimenez/ekscompose/internal/naming"
)

// ErrAccountMismatch is returned when the caller is not in the configured account
var ErrAccountMismatch = errors.New("aws account mismatch")

// S3Client defines the S3 operations needed to check the state bucket
type S3Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// STSClient defines the STS operations needed to get account information
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3Backend holds the S3 state backend settings of a cluster
type S3Backend struct {
	Bucket        string `json:"bucket" yaml:"bucket"`
	Key           string `json:"key" yaml:"key"`
	Region        string `json:"region" yaml:"region"`
	DynamoDBTable string `json:"dynamodb_table,omitempty" yaml:"dynamodb_table,omitempty"`
}

// New returns the backend settings for a cluster
func New(bucket, lockTable, region, clusterID string) S3Backend {
	return S3Backend{
		Bucket:        bucket,
		Key:           naming.StateKey(clusterID),
		Region:        region,
		DynamoDBTable: lockTable,
	}
}

// LoadAWSConfig loads the default AWS configuration for a region
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// VerifyBucket checks that the state bucket exists and is reachable
func VerifyBucket(ctx context.Context, client S3Client, b S3Backend) error {
	_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(b.Bucket),
	})
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return fmt.Errorf("state bucket %s does not exist", b.Bucket)
		case "Forbidden", "AccessDenied":
			return fmt.Errorf("state bucket %s is not accessible", b.Bucket)
		}
	}

	return fmt.Errorf("head state bucket %s: %w", b.Bucket, err)
}

// CheckAccount verifies that the caller credentials belong to the expected account
func CheckAccount(ctx context.Context, client STSClient, account string) (string, error) {
	output, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}

	callerAccount := aws.ToString(output.Account)
	if callerAccount != account {
		return "", fmt.Errorf("%w: credentials belong to %s, config targets %s", ErrAccountMismatch, callerAccount, account)
	}

	return aws.ToString(output.Arn), nil
}

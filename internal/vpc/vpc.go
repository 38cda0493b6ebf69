// Package vpc looks up the private subnets of an existing VPC.
package vpc

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"golang.org/x/time/rate"
)

// DefaultNamePattern matches the Name tag of private subnets
const DefaultNamePattern = "*priv*"

// Lookup returns the private subnet IDs of a VPC
type Lookup interface {
	PrivateSubnets(ctx context.Context, vpcID string) ([]string, error)
}

// EC2Lookup implements Lookup with EC2 DescribeSubnets
type EC2Lookup struct {
	client      ec2.DescribeSubnetsAPIClient
	limiter     *rate.Limiter
	namePattern string
}

// Option configures an EC2Lookup
type Option func(*EC2Lookup)

// WithNamePattern overrides the Name tag filter
func WithNamePattern(pattern string) Option {
	return func(l *EC2Lookup) {
		l.namePattern = pattern
	}
}

// WithLimiter overrides the request rate limiter
func WithLimiter(limiter *rate.Limiter) Option {
	return func(l *EC2Lookup) {
		l.limiter = limiter
	}
}

// NewEC2Lookup creates a subnet lookup backed by EC2
func NewEC2Lookup(client ec2.DescribeSubnetsAPIClient, opts ...Option) *EC2Lookup {
	l := &EC2Lookup{
		client:      client,
		limiter:     rate.NewLimiter(rate.Limit(5), 1),
		namePattern: DefaultNamePattern,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewFromConfig creates a subnet lookup from an AWS config
func NewFromConfig(cfg aws.Config, opts ...Option) *EC2Lookup {
	return NewEC2Lookup(ec2.NewFromConfig(cfg), opts...)
}

// PrivateSubnets returns the sorted IDs of the subnets in the VPC whose Name
// tag matches the private pattern
func (l *EC2Lookup) PrivateSubnets(ctx context.Context, vpcID string) ([]string, error) {
	if vpcID == "" {
		return nil, fmt.Errorf("lookup subnets: vpc id is required")
	}

	input := &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{vpcID}},
			{Name: aws.String("tag:Name"), Values: []string{l.namePattern}},
		},
	}

	ids := []string{}
	paginator := ec2.NewDescribeSubnetsPaginator(l.client, input)
	for paginator.HasMorePages() {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("lookup subnets of %s: %w", vpcID, err)
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("describe subnets of %s: %w", vpcID, err)
		}

		for _, subnet := range page.Subnets {
			ids = append(ids, aws.ToString(subnet.SubnetId))
		}
	}

	sort.Strings(ids)
	return ids, nil
}

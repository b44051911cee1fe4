//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"storefront/internal/auth/store/revocation"
	"storefront/pkg/testutil/containers"
)

type RedisTRLSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	trl   *revocation.RedisTRL
}

func TestRedisTRLSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTRLSuite))
}

func (s *RedisTRLSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.trl = revocation.NewRedisTRL(s.redis.Client)
}

func (s *RedisTRLSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisTRLSuite) TestRevocationIsSharedAcrossInstances() {
	ctx := context.Background()
	jti := uuid.NewString()
	other := revocation.NewRedisTRL(s.redis.Client)

	s.Require().NoError(s.trl.RevokeToken(ctx, jti, time.Minute))

	revoked, err := other.IsRevoked(ctx, jti)
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *RedisTRLSuite) TestRevocationExpires() {
	ctx := context.Background()
	jti := uuid.NewString()

	s.Require().NoError(s.trl.RevokeToken(ctx, jti, time.Second))
	s.Eventually(func() bool {
		revoked, err := s.trl.IsRevoked(ctx, jti)
		return err == nil && !revoked
	}, 5*time.Second, 100*time.Millisecond)
}

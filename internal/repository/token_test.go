package repository

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"calendar-relay-backend/internal/auth"
	"calendar-relay-backend/internal/database/models"
	"calendar-relay-backend/internal/testutils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TokenRepositoryTestSuite struct {
	suite.Suite
	base *testutils.BaseTestSuite
	repo *TokenRepository
}

func (s *TokenRepositoryTestSuite) SetupSuite() {
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	s.Require().NoError(err)
	s.Require().NoError(auth.SetTokenSecret(base64.StdEncoding.EncodeToString(raw)))

	s.base = testutils.SetupTestSuite(s.T())
	s.repo = NewTokenRepository(s.base.DB)
}

func (s *TokenRepositoryTestSuite) TearDownSuite() {
	if s.base != nil {
		s.base.TeardownTestSuite()
	}
}

func (s *TokenRepositoryTestSuite) SetupTest() {
	s.Require().NoError(s.base.DB.Exec("DELETE FROM ms_tokens").Error)
}

func (s *TokenRepositoryTestSuite) TestUpsertAndGet() {
	userID := uuid.New()
	expiresAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	s.Require().NoError(s.repo.Upsert(userID, "access-1", "refresh-1", &expiresAt))

	tok, err := s.repo.Get(userID)
	s.Require().NoError(err)
	s.Equal("access-1", tok.AccessToken)
	s.Equal("refresh-1", tok.RefreshToken)
	s.Require().NotNil(tok.ExpiresAt)
	s.WithinDuration(expiresAt, *tok.ExpiresAt, time.Second)
}

func (s *TokenRepositoryTestSuite) TestTokensEncryptedAtRest() {
	userID := uuid.New()
	s.Require().NoError(s.repo.Upsert(userID, "access-1", "refresh-1", nil))

	var row models.MicrosoftToken
	s.Require().NoError(s.base.DB.Where("user_id = ?", userID).First(&row).Error)

	s.True(strings.HasPrefix(row.AccessToken, "enc:v1:"))
	s.True(strings.HasPrefix(row.RefreshToken, "enc:v1:"))
	s.NotContains(row.AccessToken, "access-1")
	s.NotContains(row.RefreshToken, "refresh-1")
}

func (s *TokenRepositoryTestSuite) TestUpsertReplacesExistingRecord() {
	userID := uuid.New()
	first := time.Now().Add(time.Hour).UTC()
	s.Require().NoError(s.repo.Upsert(userID, "access-1", "refresh-1", &first))

	second := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	s.Require().NoError(s.repo.Upsert(userID, "access-2", "refresh-2", &second))

	tok, err := s.repo.Get(userID)
	s.Require().NoError(err)
	s.Equal("access-2", tok.AccessToken)
	s.Equal("refresh-2", tok.RefreshToken)
	s.WithinDuration(second, *tok.ExpiresAt, time.Second)

	var count int64
	s.Require().NoError(s.base.DB.Model(&models.MicrosoftToken{}).Where("user_id = ?", userID).Count(&count).Error)
	s.EqualValues(1, count, "upsert must not accumulate rows")
}

func (s *TokenRepositoryTestSuite) TestAbsentRefreshTokenAndExpiry() {
	userID := uuid.New()
	s.Require().NoError(s.repo.Upsert(userID, "access-1", "", nil))

	tok, err := s.repo.Get(userID)
	s.Require().NoError(err)
	s.Equal("access-1", tok.AccessToken)
	s.Empty(tok.RefreshToken)
	s.Nil(tok.ExpiresAt)
}

func (s *TokenRepositoryTestSuite) TestGetNotFound() {
	_, err := s.repo.Get(uuid.New())
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *TokenRepositoryTestSuite) TestExists() {
	userID := uuid.New()

	exists, err := s.repo.Exists(userID)
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.repo.Upsert(userID, "access-1", "refresh-1", nil))

	exists, err = s.repo.Exists(userID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *TokenRepositoryTestSuite) TestDeleteIsIdempotent() {
	userID := uuid.New()
	s.Require().NoError(s.repo.Upsert(userID, "access-1", "refresh-1", nil))

	s.Require().NoError(s.repo.Delete(userID))
	exists, err := s.repo.Exists(userID)
	s.Require().NoError(err)
	s.False(exists)

	// Deleting again is not an error
	s.Require().NoError(s.repo.Delete(userID))
}

func TestTokenRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TokenRepositoryTestSuite))
}

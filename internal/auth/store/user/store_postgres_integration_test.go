//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trialreg/internal/auth/models"
	"trialreg/internal/auth/store/user"
	id "trialreg/pkg/domain"
	"trialreg/pkg/platform/sentinel"
	"trialreg/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresUserStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newUser(username string) *models.User {
	return &models.User{
		ID:           id.NewUserID(),
		Username:     username,
		FullName:     "Jane Doe",
		PasswordHash: []byte("$2a$04$abcdefghijklmnopqrstuv"),
		IsStaff:      true,
		CreatedAt:    time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresUserStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	u := newUser("jdoe")
	s.Require().NoError(s.store.Save(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Username, byID.Username)
	s.Equal(u.PasswordHash, byID.PasswordHash)
	s.True(byID.IsStaff)

	byName, err := s.store.FindByUsername(ctx, " JDoe ")
	s.Require().NoError(err)
	s.Equal(u.ID, byName.ID)

	_, err = s.store.FindByUsername(ctx, "nobody")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresUserStoreSuite) TestUsernameIsUnique() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newUser("jdoe")))

	err := s.store.Save(ctx, newUser("jdoe"))
	s.ErrorIs(err, user.ErrUsernameTaken)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresUserStoreSuite) TestSaveUpdatesExistingUser() {
	ctx := context.Background()
	u := newUser("jdoe")
	s.Require().NoError(s.store.Save(ctx, u))

	u.FullName = "Jane Q. Doe"
	u.IsStaff = false
	s.Require().NoError(s.store.Save(ctx, u))

	found, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal("Jane Q. Doe", found.FullName)
	s.False(found.IsStaff)

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *PostgresUserStoreSuite) TestListOrdersByUsername() {
	ctx := context.Background()
	users, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Empty(users)

	for _, name := range []string{"mario", "ana", "zoe"} {
		s.Require().NoError(s.store.Save(ctx, newUser(name)))
	}

	users, err = s.store.List(ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal("ana", users[0].Username)
	s.Equal("mario", users[1].Username)
	s.Equal("zoe", users[2].Username)
	s.NotEmpty(users[0].PasswordHash)
	s.True(users[0].IsStaff)
}

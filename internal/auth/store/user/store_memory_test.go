package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trialreg/internal/auth/models"
	id "trialreg/pkg/domain"
	"trialreg/pkg/platform/sentinel"
)

type InMemoryUserStoreSuite struct {
	suite.Suite
	store *InMemoryUserStore
}

func (s *InMemoryUserStoreSuite) SetupTest() {
	s.store = New()
}

func TestInMemoryUserStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryUserStoreSuite))
}

func newUser(username string) *models.User {
	return &models.User{
		ID:           id.NewUserID(),
		Username:     username,
		FullName:     "Jane Doe",
		PasswordHash: []byte("hash"),
		CreatedAt:    time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
	}
}

// TestLookupBehavior tests user retrieval by ID and username.
func (s *InMemoryUserStoreSuite) TestLookupBehavior() {
	ctx := context.Background()

	s.Run("returns user by ID when exists", func() {
		user := newUser("jdoe")
		s.Require().NoError(s.store.Save(ctx, user))

		found, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal(user, found)
	})

	s.Run("returns user by username ignoring case", func() {
		user := newUser("lookup")
		s.Require().NoError(s.store.Save(ctx, user))

		found, err := s.store.FindByUsername(ctx, "  LookUp ")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})

	s.Run("returns ErrNotFound when user ID does not exist", func() {
		_, err := s.store.FindByID(ctx, id.NewUserID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound when username does not exist", func() {
		_, err := s.store.FindByUsername(ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned user is a copy", func() {
		user := newUser("copy")
		s.Require().NoError(s.store.Save(ctx, user))

		found, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		found.FullName = "changed"

		again, err := s.store.FindByID(ctx, user.ID)
		s.Require().NoError(err)
		s.Equal("Jane Doe", again.FullName)
	})
}

func (s *InMemoryUserStoreSuite) TestUsernameUniqueness() {
	ctx := context.Background()

	s.Run("rejects a second user with the same username", func() {
		s.Require().NoError(s.store.Save(ctx, newUser("taken")))

		err := s.store.Save(ctx, newUser("taken"))
		s.Require().ErrorIs(err, ErrUsernameTaken)
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("renaming releases the old username", func() {
		user := newUser("before")
		s.Require().NoError(s.store.Save(ctx, user))

		user.Username = "after"
		s.Require().NoError(s.store.Save(ctx, user))

		_, err := s.store.FindByUsername(ctx, "before")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		s.Require().NoError(s.store.Save(ctx, newUser("before")))
	})
}

func (s *InMemoryUserStoreSuite) TestCount() {
	ctx := context.Background()
	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.Require().NoError(s.store.Save(ctx, newUser("one")))
	s.Require().NoError(s.store.Save(ctx, newUser("two")))

	n, err = s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *InMemoryUserStoreSuite) TestList() {
	ctx := context.Background()

	s.Run("empty store lists nothing", func() {
		users, err := s.store.List(ctx)
		s.Require().NoError(err)
		s.Empty(users)
	})

	s.Run("orders by username and returns copies", func() {
		s.Require().NoError(s.store.Save(ctx, newUser("mario")))
		s.Require().NoError(s.store.Save(ctx, newUser("ana")))
		s.Require().NoError(s.store.Save(ctx, newUser("zoe")))

		users, err := s.store.List(ctx)
		s.Require().NoError(err)
		s.Require().Len(users, 3)
		s.Equal([]string{"ana", "mario", "zoe"}, []string{users[0].Username, users[1].Username, users[2].Username})

		users[0].FullName = "changed"
		again, err := s.store.FindByUsername(ctx, "ana")
		s.Require().NoError(err)
		s.Equal("Jane Doe", again.FullName)
	})
}

package policy

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"monochrome/internal/auth"
	"monochrome/internal/models"
)

var (
	anonymous = auth.Principal{}
	userU     = auth.Principal{ID: "u1", Role: models.RoleUser}
	userV     = auth.Principal{ID: "u2", Role: models.RoleUser}
	admin     = auth.Principal{ID: "a1", Role: models.RoleAdmin}
)

func post(author string, private, hidden bool) *models.Post {
	p := &models.Post{ID: "p", AuthorID: author, IsPrivate: private, HiddenByAdmin: hidden}
	if hidden {
		reason := "policy violation"
		p.TakedownReason = &reason
	}
	return p
}

func TestCanReadPost(t *testing.T) {
	cases := []struct {
		name      string
		principal auth.Principal
		post      *models.Post
		want      error
	}{
		{"anonymous public", anonymous, post("u1", false, false), nil},
		{"anonymous private", anonymous, post("u1", true, false), ErrPrivateContent},
		{"anonymous hidden", anonymous, post("u1", false, true), ErrContentRemoved},
		{"anonymous private hidden", anonymous, post("u1", true, true), ErrContentRemoved},

		{"owner public", userU, post("u1", false, false), nil},
		{"owner private", userU, post("u1", true, false), nil},
		{"owner hidden", userU, post("u1", false, true), nil},
		{"owner private hidden", userU, post("u1", true, true), nil},

		{"other user public", userV, post("u1", false, false), nil},
		{"other user private", userV, post("u1", true, false), ErrPrivateContent},
		{"other user hidden", userV, post("u1", false, true), ErrContentRemoved},

		{"admin public", admin, post("u1", false, false), nil},
		{"admin hidden", admin, post("u1", false, true), nil},
		{"admin private hidden", admin, post("u1", true, true), nil},
		{"admin private unflagged", admin, post("u1", true, false), ErrComplianceRestricted},
		{"admin own private", admin, post("a1", true, false), ErrComplianceRestricted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanReadPost(tc.principal, tc.post)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestFeedScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:feedscope?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}))

	seed := []*models.Post{
		{ID: "pub-u1", AuthorID: "u1"},
		{ID: "priv-u1", AuthorID: "u1", IsPrivate: true},
		{ID: "hid-u2", AuthorID: "u2", HiddenByAdmin: true},
		{ID: "priv-hid-u2", AuthorID: "u2", IsPrivate: true, HiddenByAdmin: true},
	}
	for _, p := range seed {
		p.Title, p.Content = "t", "c"
		require.NoError(t, db.Create(p).Error)
	}

	cases := []struct {
		name      string
		principal auth.Principal
		want      []string
	}{
		{"anonymous", anonymous, []string{"pub-u1"}},
		{"owner of private", userU, []string{"pub-u1", "priv-u1"}},
		{"owner of hidden", userV, []string{"pub-u1", "hid-u2", "priv-hid-u2"}},
		{"admin", admin, []string{"pub-u1", "hid-u2", "priv-hid-u2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var posts []models.Post
			require.NoError(t, db.Scopes(FeedScope(tc.principal)).Find(&posts).Error)
			ids := make([]string, 0, len(posts))
			for _, p := range posts {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tc.want, ids)
		})
	}
}

func TestMutationAuthorization(t *testing.T) {
	owned := post("u1", false, false)

	assert.ErrorIs(t, CanCreatePost(anonymous), ErrNotAuthenticated)
	assert.NoError(t, CanCreatePost(userU))

	assert.NoError(t, CanEditContent(userU, owned))
	assert.NoError(t, CanEditContent(admin, owned))
	assert.ErrorIs(t, CanEditContent(userV, owned), ErrNotAuthorized)
	assert.ErrorIs(t, CanEditContent(anonymous, owned), ErrNotAuthenticated)

	assert.NoError(t, CanSetPrivacy(userU, owned))
	assert.ErrorIs(t, CanSetPrivacy(admin, owned), ErrNotAuthorized)
	assert.ErrorIs(t, CanSetPrivacy(userV, owned), ErrNotAuthorized)

	assert.NoError(t, CanModerate(admin))
	assert.ErrorIs(t, CanModerate(userU), ErrNotAuthorized)
	assert.ErrorIs(t, CanModerate(anonymous), ErrNotAuthenticated)

	assert.NoError(t, CanDeletePost(userU, owned))
	assert.NoError(t, CanDeletePost(admin, owned))
	assert.ErrorIs(t, CanDeletePost(userV, owned), ErrNotAuthorized)

	comment := &models.Comment{ID: "c1", PostID: "p", UserID: "u2"}
	assert.NoError(t, CanDeleteComment(userV, comment))
	assert.NoError(t, CanDeleteComment(admin, comment))
	assert.ErrorIs(t, CanDeleteComment(userU, comment), ErrNotAuthorized)
}

func TestTakedownRequiresReason(t *testing.T) {
	p := post("u1", false, false)
	p.HiddenByAdmin = false
	p.TakedownReason = nil

	for _, reason := range []string{"", "   ", "\t\n"} {
		err := Takedown(p, reason)
		assert.ErrorIs(t, err, ErrValidation)
		assert.False(t, p.HiddenByAdmin)
		assert.Nil(t, p.TakedownReason)
	}
}

func TestTakedownAndRestoreLeavePrivacyAlone(t *testing.T) {
	for _, private := range []bool{false, true} {
		p := post("u1", private, false)
		p.TakedownReason = nil

		require.NoError(t, Takedown(p, "policy violation"))
		assert.True(t, p.HiddenByAdmin)
		require.NotNil(t, p.TakedownReason)
		assert.Equal(t, "policy violation", *p.TakedownReason)
		assert.Equal(t, private, p.IsPrivate)

		Restore(p)
		assert.False(t, p.HiddenByAdmin)
		assert.Nil(t, p.TakedownReason)
		assert.Equal(t, private, p.IsPrivate)
	}
}

func TestTakedownTrimsReason(t *testing.T) {
	p := post("u1", false, false)
	require.NoError(t, Takedown(p, "  spam  "))
	require.NotNil(t, p.TakedownReason)
	assert.Equal(t, "spam", *p.TakedownReason)
}

func TestTakedownReasonFor(t *testing.T) {
	hidden := post("u1", false, true)

	require.NotNil(t, TakedownReasonFor(userU, hidden))
	assert.Nil(t, TakedownReasonFor(userV, hidden))
	assert.Nil(t, TakedownReasonFor(admin, hidden))
	assert.Nil(t, TakedownReasonFor(anonymous, hidden))

	visible := post("u1", false, false)
	assert.Nil(t, TakedownReasonFor(userU, visible))
}

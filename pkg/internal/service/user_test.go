package service_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
)

func newUserService(t *testing.T) (*service.UserService, *service.MediaService, *gorm.DB) {
	t.Helper()

	db := newDB(t)
	ms := service.NewMediaService(db, newStore(t), nil)

	return service.NewUserService(db, ms), ms, db
}

func TestEnsureUser(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.EnsureUser(bg(), &types.Principal{})
	require.ErrorIs(t, err, service.ErrUnauthenticated)

	p := types.NewPrincipal("u-1", "carol@example.com", []string{"Member"}, adminRole)

	u, err := svc.EnsureUser(bg(), p)
	require.NoError(t, err)
	assert.Equal(t, "carol", u.UserName)
	assert.True(t, u.HasRole("member"))

	name := "Carol's Bakery"
	_, err = svc.UpdateProfile(bg(), p, "u-1", types.UpdateProfileRequest{DisplayName: &name})
	require.NoError(t, err)

	p = types.NewPrincipal("u-1", "owner@carols.example", []string{"Member", "Admin"}, adminRole)

	u, err = svc.EnsureUser(bg(), p)
	require.NoError(t, err)
	assert.Equal(t, "owner@carols.example", u.Email)
	assert.True(t, u.HasRole("Admin"))
	assert.Equal(t, "Carol's Bakery", u.Name())
}

func TestUpdateProfile(t *testing.T) {
	svc, _, db := newUserService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	bio := "Family run\nsince 1990"

	_, err := svc.UpdateProfile(bg(), bob, "alice", types.UpdateProfileRequest{Bio: &bio})
	require.ErrorIs(t, err, service.ErrForbidden)

	u, err := svc.UpdateProfile(bg(), alice, "alice", types.UpdateProfileRequest{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, u.Bio)

	profile, err := svc.GetProfile(bg(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Family run<br />since 1990", profile.BioHTML)

	_, err = svc.GetProfile(bg(), "nobody")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestFollow(t *testing.T) {
	svc, _, db := newUserService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	_, err := svc.Follow(bg(), alice, "alice")
	require.ErrorIs(t, err, service.ErrSelfFollow)

	_, err = svc.Follow(bg(), alice, "nobody")
	require.ErrorIs(t, err, service.ErrUserNotFound)

	ok, err := svc.Follow(bg(), bob, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Follow(bg(), bob, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Follow(bg(), carol, "alice")
	require.NoError(t, err)
	_, err = svc.Follow(bg(), alice, "carol")
	require.NoError(t, err)

	profile, err := svc.GetProfile(bg(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.Followers)
	assert.Equal(t, int64(1), profile.Following)

	followers, err := svc.Followers(bg(), "alice", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers.TotalCount)
	require.Len(t, followers.Items, 1)
	assert.Equal(t, "bob", followers.Items[0].ID)

	following, err := svc.Following(bg(), "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, following.Items, 1)
	assert.Equal(t, "carol", following.Items[0].ID)

	ok, err = svc.Unfollow(bg(), bob, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Unfollow(bg(), bob, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetProfilePicture(t *testing.T) {
	svc, ms, db := newUserService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	_, err := svc.SetProfilePicture(bg(), bob, "alice", pngFile(t, "me.png"))
	require.ErrorIs(t, err, service.ErrForbidden)

	doc, err := media.NewFile("cv.txt", 5, "text/plain", bytes.NewReader([]byte("hello")))
	require.NoError(t, err)
	_, err = svc.SetProfilePicture(bg(), alice, "alice", doc)
	require.ErrorIs(t, err, service.ErrInvalidArgument)

	u, err := svc.SetProfilePicture(bg(), alice, "alice", pngFile(t, "me.png"))
	require.NoError(t, err)

	var first model.Media
	require.NoError(t, db.Where("user_id = ?", "alice").First(&first).Error)
	assert.Equal(t, fmt.Sprintf("/Media/%d", first.ID), u.ProfilePictureURL)

	u, err = svc.SetProfilePicture(bg(), alice, "alice", pngFile(t, "me2.png"))
	require.NoError(t, err)
	assert.NotEqual(t, fmt.Sprintf("/Media/%d", first.ID), u.ProfilePictureURL)

	// 旧头像被删除
	_, err = ms.GetMedia(bg(), first.ID)
	assert.ErrorIs(t, err, service.ErrMediaNotFound)
	assert.False(t, fileExists(first.URL))
}

func TestMigrateProfilePictures(t *testing.T) {
	svc, ms, db := newUserService(t)

	require.NoError(t, db.Create(&model.User{ID: "legacy", UserName: "legacy", ProfilePicture: pngBytes}).Error)
	require.NoError(t, db.Create(&model.User{ID: "broken", UserName: "broken", ProfilePicture: []byte{0x00, 0x01, 0x02, 0xff}}).Error)
	require.NoError(t, db.Create(&model.User{ID: "modern", UserName: "modern"}).Error)

	res, err := svc.MigrateProfilePictures(bg(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Migrated)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "broken")

	var legacy model.User
	require.NoError(t, db.First(&legacy, "id = ?", "legacy").Error)
	assert.Empty(t, legacy.ProfilePicture)
	require.NotEmpty(t, legacy.ProfilePictureURL)

	page, err := ms.Search(bg(), types.MediaSearchRequest{UserID: "legacy"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "profile_legacy.png", page.Items[0].FileName)
	assert.Equal(t, service.MediaURL(&page.Items[0]), legacy.ProfilePictureURL)

	// 再次运行只会重试失败的用户
	res, err = svc.MigrateProfilePictures(bg(), 10)
	require.NoError(t, err)
	assert.Zero(t, res.Migrated)
	assert.Equal(t, 1, res.Failed)
}

package service_test

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/service"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

func newMediaService(t *testing.T) (*service.MediaService, *types.Principal) {
	t.Helper()

	db := newDB(t)
	owner := seedUser(t, db, "owner")

	return service.NewMediaService(db, newStore(t), nil), owner
}

func TestMediaURLs(t *testing.T) {
	local := &model.Media{ID: 7, StorageProvider: model.ProviderLocalStorage, URL: "/srv/uploads/a.png"}
	assert.Equal(t, "/Media/7", service.MediaURL(local))
	assert.Equal(t, "/Media/Thumbnail/7", service.ThumbnailURL(local))

	s3 := &model.Media{ID: 8, StorageProvider: model.ProviderAwsS3, URL: "s3://bucket/a.png"}
	assert.Equal(t, "/Media/8", service.MediaURL(s3))

	ext := &model.Media{ID: 9, StorageProvider: model.ProviderExternal, URL: "https://cdn.example.com/a.png"}
	assert.Equal(t, ext.URL, service.MediaURL(ext))
	assert.Equal(t, ext.URL, service.ThumbnailURL(ext))

	yt := &model.Media{ID: 10, StorageProvider: model.ProviderYouTube, URL: youtube.EmbedURL("dQw4w9WgXcQ")}
	assert.Equal(t, yt.URL, service.MediaURL(yt))
}

func TestUploadAndDelete(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	m, err := svc.Upload(ctx, owner, pngFile(t, "shop logo.png"), types.UploadMediaRequest{
		MediaMeta: types.MediaMeta{Description: "logo"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderLocalStorage, m.StorageProvider)
	assert.Equal(t, model.MediaTypeImage, m.MediaType)
	assert.Equal(t, "shop_logo.png", m.FileName)
	assert.Equal(t, int64(len(pngBytes)), m.Size())
	assert.True(t, fileExists(m.URL))
	assert.Equal(t, fmt.Sprintf("/Media/%d", m.ID), service.ToMediaResponse(m).URL)

	ok, err := svc.DeleteMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, fileExists(m.URL))

	_, err = svc.GetMedia(ctx, m.ID)
	assert.ErrorIs(t, err, service.ErrMediaNotFound)

	// 第二次删除不是错误
	ok, err = svc.DeleteMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUploadRejectsInvalidFile(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	f, err := media.NewFile("payload.exe", 10, "application/x-msdownload", io.LimitReader(zeroReader{}, 10))
	require.NoError(t, err)

	_, err = svc.Upload(ctx, owner, f, types.UploadMediaRequest{})
	require.ErrorIs(t, err, media.ErrInvalidFile)

	res, err := svc.Search(ctx, types.MediaSearchRequest{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

func TestUploadRejectsRenamedExtension(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	_, err := svc.Upload(ctx, owner, pngFile(t, "logo.png"), types.UploadMediaRequest{FileName: "payload.exe"})
	require.ErrorIs(t, err, media.ErrInvalidFile)

	res, err := svc.Search(ctx, types.MediaSearchRequest{})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)

	m, err := svc.Upload(ctx, owner, pngFile(t, "logo.png"), types.UploadMediaRequest{FileName: "storefront.png"})
	require.NoError(t, err)
	assert.Equal(t, "storefront.png", m.FileName)
}

func TestUploadRequiresLogin(t *testing.T) {
	svc, _ := newMediaService(t)

	_, err := svc.Upload(bg(), &types.Principal{}, pngFile(t, "a.png"), types.UploadMediaRequest{})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestDeletePermission(t *testing.T) {
	ctx := bg()
	db := newDB(t)
	owner := seedUser(t, db, "owner")
	other := seedUser(t, db, "other")
	admin := seedUser(t, db, "root", adminRole)
	svc := service.NewMediaService(db, newStore(t), nil)

	m, err := svc.Upload(ctx, owner, pngFile(t, "a.png"), types.UploadMediaRequest{})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, other, m.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	still, err := svc.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.URL, still.URL)
	assert.True(t, fileExists(m.URL))

	ok, err := svc.Delete(ctx, admin, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDeleteUnsupportedProviderDefersCleanup(t *testing.T) {
	ctx, cancel := context.WithTimeout(bg(), 5*time.Second)
	defer cancel()

	db := newDB(t)
	seedUser(t, db, "owner")

	events, sub := newEvents(t)
	msgs, err := sub.Subscribe(ctx, queue.TopicMediaCleanupRequested)
	require.NoError(t, err)

	svc := service.NewMediaService(db, newStore(t), events)

	m := &model.Media{
		FileName:        "legacy.png",
		MediaType:       model.MediaTypeImage,
		StorageProvider: model.ProviderAzureBlob,
		URL:             "https://account.blob.core.windows.net/media/legacy.png",
		UserID:          "owner",
		CreatedID:       "owner",
	}
	require.NoError(t, svc.CreateMedia(ctx, m))

	ok, err := svc.DeleteMedia(ctx, m.ID)
	require.ErrorIs(t, err, media.ErrUnsupportedProvider)
	assert.False(t, ok)

	row, err := svc.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, row.CleanupPending)
	assert.Equal(t, 1, row.CleanupAttempts)
	assert.Contains(t, row.CleanupError, "unsupported storage provider")
	assert.True(t, service.ToMediaResponse(row).CleanupPending)

	select {
	case msg := <-msgs:
		msg.Ack()

		env, err := queue.ParseMediaCleanupRequested(msg)
		require.NoError(t, err)
		assert.Equal(t, m.ID, env.Payload.Media.ID)
		assert.Equal(t, 1, env.Payload.Attempts)
		assert.Equal(t, queue.TopicMediaCleanupRequested, env.Header.Topic)
	case <-ctx.Done():
		t.Fatal("cleanup request was not published")
	}
}

func TestProcessPendingCleanup(t *testing.T) {
	ctx := bg()
	db := newDB(t)
	seedUser(t, db, "owner")
	store := newStore(t)
	svc := service.NewMediaService(db, store, nil)

	// 路径越出媒体根目录，第一次删除必然失败
	broken := &model.Media{
		FileName:        "broken.png",
		MediaType:       model.MediaTypeImage,
		StorageProvider: model.ProviderLocalStorage,
		URL:             "../outside.png",
		UserID:          "owner",
	}
	require.NoError(t, svc.CreateMedia(ctx, broken))

	azure := &model.Media{
		FileName:        "azure.png",
		MediaType:       model.MediaTypeImage,
		StorageProvider: model.ProviderAzureBlob,
		URL:             "azure://media/azure.png",
		UserID:          "owner",
	}
	require.NoError(t, svc.CreateMedia(ctx, azure))

	for _, id := range []uint{broken.ID, azure.ID} {
		_, err := svc.DeleteMedia(ctx, id)
		require.Error(t, err)
	}

	// 修复路径后重试应当成功
	fixed := filepath.Join(store.Config().UploadsPath(), "gone.png")
	require.NoError(t, db.Model(&model.Media{}).Where("id = ?", broken.ID).Update("url", fixed).Error)

	res, err := svc.ProcessPendingCleanup(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, types.CleanupResult{Processed: 2, Deleted: 1, Failed: 1}, res)

	_, err = svc.GetMedia(ctx, broken.ID)
	assert.ErrorIs(t, err, service.ErrMediaNotFound)

	// MaxCleanupAttempts 为 3：第三次失败后放弃，之后不再处理
	res, err = svc.ProcessPendingCleanup(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, types.CleanupResult{Processed: 1, GaveUp: 1}, res)

	res, err = svc.ProcessPendingCleanup(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)

	row, err := svc.GetMedia(ctx, azure.ID)
	require.NoError(t, err)
	assert.True(t, row.CleanupPending)
	assert.Equal(t, 3, row.CleanupAttempts)
}

func TestCleanupMedia(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	m, err := svc.Upload(ctx, owner, pngFile(t, "a.png"), types.UploadMediaRequest{})
	require.NoError(t, err)

	// 未标记待清理的行不做任何事
	done, err := svc.CleanupMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, fileExists(m.URL))

	// 已删除的行视为完成
	done, err = svc.CleanupMedia(ctx, 9999)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestUpdateMediaOptimisticConcurrency(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	m, err := svc.Upload(ctx, owner, pngFile(t, "a.png"), types.UploadMediaRequest{})
	require.NoError(t, err)

	first, err := svc.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	second, err := svc.GetMedia(ctx, m.ID)
	require.NoError(t, err)

	first.Description = "first"
	assert.True(t, svc.UpdateMedia(ctx, first))

	second.Description = "second"
	assert.False(t, svc.UpdateMedia(ctx, second))

	got, err := svc.GetMedia(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Description)

	// 使用最新的 updated_at 可以继续修改
	first.Description = "third"
	assert.True(t, svc.UpdateMedia(ctx, first))
}

func TestUpdateMediaMissingRow(t *testing.T) {
	svc, _ := newMediaService(t)

	assert.False(t, svc.UpdateMedia(bg(), &model.Media{ID: 404, MediaType: model.MediaTypeImage}))
}

func TestRegisterExternalAndSwitchLink(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	ext, err := svc.RegisterExternal(ctx, owner, types.ExternalMediaRequest{URL: "https://cdn.example.com/docs/menu.pdf"})
	require.NoError(t, err)
	assert.Equal(t, model.ProviderExternal, ext.StorageProvider)
	assert.Equal(t, model.MediaTypeDocument, ext.MediaType)
	assert.Equal(t, "menu.pdf", ext.FileName)
	assert.Equal(t, ext.URL, service.MediaURL(ext))

	_, st, err := svc.OpenMedia(ctx, ext.ID)
	require.NoError(t, err)
	assert.True(t, st.Placeholder)
	_ = st.Close()

	_, err = svc.RegisterExternal(ctx, owner, types.ExternalMediaRequest{URL: "ftp://example.com/a"})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)

	local, err := svc.Upload(ctx, owner, pngFile(t, "a.png"), types.UploadMediaRequest{})
	require.NoError(t, err)

	switched, err := svc.SwitchLink(ctx, owner, local.ID, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderYouTube, switched.StorageProvider)
	assert.Equal(t, model.MediaTypeVideo, switched.MediaType)
	assert.Equal(t, youtube.EmbedURL("dQw4w9WgXcQ"), switched.URL)
	assert.Zero(t, switched.Size())
	assert.False(t, fileExists(local.URL))
}

func TestSearchMedia(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	for i := range 12 {
		_, err := svc.RegisterExternal(ctx, owner, types.ExternalMediaRequest{
			URL:       fmt.Sprintf("https://cdn.example.com/bakery-%d.jpg", i),
			MediaMeta: types.MediaMeta{Description: "Fresh Bread 100%"},
		})
		require.NoError(t, err)
	}

	_, err := svc.RegisterExternal(ctx, owner, types.ExternalMediaRequest{URL: "https://cdn.example.com/other.jpg"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, types.MediaSearchRequest{Query: "Bread", PageSize: 5, PageNumber: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.TotalCount)
	assert.Equal(t, 3, res.TotalPages)
	assert.Len(t, res.Items, 2)

	res, err = svc.Search(ctx, types.MediaSearchRequest{Query: "100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.TotalCount)

	res, err = svc.Search(ctx, types.MediaSearchRequest{Query: "_"})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)

	res, err = svc.Search(ctx, types.MediaSearchRequest{MediaType: "video"})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)

	_, err = svc.Search(ctx, types.MediaSearchRequest{StorageProvider: "Dropbox"})
	assert.ErrorIs(t, err, service.ErrInvalidArgument)
}

func TestOpenThumbnail(t *testing.T) {
	ctx := bg()
	svc, owner := newMediaService(t)

	m, err := svc.Upload(ctx, owner, pngFile(t, "a.png"), types.UploadMediaRequest{})
	require.NoError(t, err)

	_, st, err := svc.OpenThumbnail(ctx, m.ID, 4, 4)
	require.NoError(t, err)
	defer st.Close()

	assert.False(t, st.Placeholder)
	assert.Equal(t, "image/png", st.ContentType)

	_, _, err = svc.OpenThumbnail(ctx, 404, 0, 0)
	assert.ErrorIs(t, err, service.ErrMediaNotFound)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestSearchMediaKeepsTermCase(t *testing.T) {
	ctx := bg()
	db := newDB(t)
	owner := seedUser(t, db, "owner")
	svc := service.NewMediaService(db, newStore(t), nil)

	// sqlite 默认 LIKE 对 ASCII 不区分大小写，这里切换为区分
	require.NoError(t, db.Exec("PRAGMA case_sensitive_like = ON").Error)

	_, err := svc.RegisterExternal(ctx, owner, types.ExternalMediaRequest{
		URL:       "https://cdn.example.com/cake.jpg",
		MediaMeta: types.MediaMeta{Description: "Wedding Cake"},
	})
	require.NoError(t, err)

	res, err := svc.Search(ctx, types.MediaSearchRequest{Query: "Wedding"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.TotalCount)

	res, err = svc.Search(ctx, types.MediaSearchRequest{Query: "wedding"})
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount)
}

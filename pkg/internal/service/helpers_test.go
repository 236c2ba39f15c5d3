package service_test

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/disintegration/imaging"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/sharesmallbiz/pkg/configs"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	"github.com/yeisme/sharesmallbiz/pkg/queue"
)

const adminRole = "Admin"

// pngBytes 8x8 的纯色 PNG.
var pngBytes = func() []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, imaging.New(8, 8, color.NRGBA{R: 0x20, G: 0x80, B: 0xc0, A: 0xff}))

	return buf.Bytes()
}()

func newDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))

	return db
}

func mediaConfig(t *testing.T) *configs.MediaConfig {
	t.Helper()

	return &configs.MediaConfig{
		RootDir:             t.TempDir(),
		MaxFileSize:         1024 * 1024,
		AllowedExtensions:   []string{".png", ".jpg", ".jpeg", ".gif", ".txt", ".pdf"},
		AllowedContentTypes: []string{"image/png", "image/jpeg", "image/gif", "text/plain", "application/pdf"},
		ThumbnailWidth:      32,
		ThumbnailHeight:     32,
		DefaultProvider:     configs.DefaultMediaProvider,
		UploadsDir:          configs.DefaultMediaUploadsDir,
		ThumbnailsDir:       configs.DefaultMediaThumbnailsDir,
		ProfilesDir:         configs.DefaultMediaProfilesDir,
		MaxCleanupAttempts:  3,
	}
}

func newStore(t *testing.T) *media.Store {
	t.Helper()

	cfg := mediaConfig(t)

	return media.NewStore(cfg, media.NewLocalProvider(cfg), media.NewExternalProvider(), media.NewYouTubeProvider())
}

// newEvents 返回进程内事件总线，所有开关打开.
func newEvents(t *testing.T) (*queue.Events, message.Subscriber) {
	t.Helper()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = ps.Close() })

	cfg := configs.EventsConfig{
		Enabled: true,
		Media:   configs.MediaEventsConfig{Created: true, Deleted: true, CleanupRequested: true},
		Post:    configs.PostEventsConfig{Created: true, Liked: true, Commented: true},
	}

	return queue.NewEvents(ps, cfg), ps
}

func seedUser(t *testing.T, db *gorm.DB, id string, roles ...string) *types.Principal {
	t.Helper()

	u := &model.User{ID: id, UserName: id, Email: id + "@example.com"}
	for i, r := range roles {
		if i > 0 {
			u.Roles += ","
		}

		u.Roles += r
	}

	require.NoError(t, db.Create(u).Error)

	return types.NewPrincipal(id, u.Email, roles, adminRole)
}

func seedKeywords(t *testing.T, db *gorm.DB, names ...string) {
	t.Helper()

	for _, n := range names {
		require.NoError(t, db.Create(&model.Keyword{Name: n}).Error)
	}
}

func pngFile(t *testing.T, name string) *media.File {
	t.Helper()

	f, err := media.NewFile(name, int64(len(pngBytes)), "image/png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	return f
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func bg() context.Context { return context.Background() }

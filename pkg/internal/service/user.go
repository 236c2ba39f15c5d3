package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/storage/media"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// UserService 用户资料、关注关系与头像.
type UserService struct {
	db    *gorm.DB
	media *MediaService
}

// NewUserService 创建服务，ms 仅头像相关操作需要.
func NewUserService(db *gorm.DB, ms *MediaService) *UserService {
	return &UserService{db: db, media: ms}
}

// EnsureUser 按外部身份创建或同步用户记录.
func (s *UserService) EnsureUser(ctx context.Context, p *types.Principal) (*model.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	u := model.User{
		ID:       p.UserID,
		UserName: firstNonEmpty(p.Name, emailLocalPart(p.Email), p.UserID),
		Email:    p.Email,
		Roles:    strings.Join(p.Roles, ","),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "roles"}),
	}).Create(&u).Error
	if err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", p.UserID, err)
	}

	return s.Get(ctx, p.UserID)
}

func emailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}

	return email
}

// Get 按 ID 读取.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	return &u, nil
}

// GetProfile 用户资料与统计.
func (s *UserService) GetProfile(ctx context.Context, id string) (*types.ProfileResponse, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &types.ProfileResponse{
		ID:                u.ID,
		UserName:          u.UserName,
		DisplayName:       u.Name(),
		Bio:               u.Bio,
		BioHTML:           toHTML(u.Bio),
		WebsiteURL:        u.WebsiteURL,
		ProfilePictureURL: u.ProfilePictureURL,
		LikeCount:         u.LikeCount,
		CreatedAt:         u.CreatedAt,
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&model.UserFollow{}).Where("following_id = ?", id).Count(&resp.Followers).Error; err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}

	if err := db.Model(&model.UserFollow{}).Where("follower_id = ?", id).Count(&resp.Following).Error; err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}

	if err := db.Model(&model.Post{}).Where("author_id = ? AND is_public = ?", id, true).Count(&resp.PostCount).Error; err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}

	return resp, nil
}

// UpdateProfile 本人或管理员修改资料，nil 字段保持不变.
func (s *UserService) UpdateProfile(ctx context.Context, p *types.Principal, id string, req types.UpdateProfileRequest) (*model.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	if !p.CanModify(id) {
		return nil, ErrForbidden
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
		fields["display_name"] = u.DisplayName
	}

	if req.Bio != nil {
		u.Bio = *req.Bio
		fields["bio"] = u.Bio
	}

	if req.WebsiteURL != nil {
		u.WebsiteURL = strings.TrimSpace(*req.WebsiteURL)
		fields["website_url"] = u.WebsiteURL
	}

	if len(fields) == 0 {
		return u, nil
	}

	if err := s.db.WithContext(ctx).Model(u).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("update profile %s: %w", id, err)
	}

	return u, nil
}

// Follow 关注，重复关注返回 false.
func (s *UserService) Follow(ctx context.Context, p *types.Principal, targetID string) (bool, error) {
	me, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	if me.ID == targetID {
		return false, ErrSelfFollow
	}

	if _, err := s.Get(ctx, targetID); err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UserFollow{FollowerID: me.ID, FollowingID: targetID})
	if res.Error != nil {
		return false, fmt.Errorf("follow %s: %w", targetID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Unfollow 取消关注.
func (s *UserService) Unfollow(ctx context.Context, p *types.Principal, targetID string) (bool, error) {
	me, err := resolveUser(ctx, s.db, p)
	if err != nil {
		return false, err
	}

	res := s.db.WithContext(ctx).Where("follower_id = ? AND following_id = ?", me.ID, targetID).Delete(&model.UserFollow{})
	if res.Error != nil {
		return false, fmt.Errorf("unfollow %s: %w", targetID, res.Error)
	}

	return res.RowsAffected > 0, nil
}

// Followers 关注该用户的人.
func (s *UserService) Followers(ctx context.Context, id string, pageNumber, pageSize int) (*types.PaginatedResult[model.User], error) {
	return s.follows(ctx, "following_id", "follower_id", id, pageNumber, pageSize)
}

// Following 该用户关注的人.
func (s *UserService) Following(ctx context.Context, id string, pageNumber, pageSize int) (*types.PaginatedResult[model.User], error) {
	return s.follows(ctx, "follower_id", "following_id", id, pageNumber, pageSize)
}

func (s *UserService) follows(ctx context.Context, matchCol, pickCol, id string, pageNumber, pageSize int) (*types.PaginatedResult[model.User], error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	page, size := types.ClampPage(pageNumber, pageSize)
	sub := s.db.Model(&model.UserFollow{}).Select(pickCol).Where(matchCol+" = ?", id)
	q := s.db.WithContext(ctx).Model(&model.User{}).Where("id IN (?)", sub)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", pickCol, err)
	}

	var users []model.User
	if err := q.Order("user_name ASC, id ASC").Offset(types.Offset(page, size)).Limit(size).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", pickCol, err)
	}

	return types.NewPaginatedResult(users, page, size, total), nil
}

// SetProfilePicture 把图片上传为媒体并让头像地址指向它，旧头像媒体尽力删除.
func (s *UserService) SetProfilePicture(ctx context.Context, p *types.Principal, id string, f *media.File) (*model.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}

	if !p.CanModify(id) {
		return nil, ErrForbidden
	}

	if model.InferMediaType(f.ContentType) != model.MediaTypeImage {
		return nil, fmt.Errorf("%w: profile picture must be an image, got %q", ErrInvalidArgument, f.ContentType)
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	owner := &types.Principal{UserID: u.ID}

	m, err := s.media.Upload(ctx, owner, f, types.UploadMediaRequest{
		MediaMeta: types.MediaMeta{
			Description: "Profile picture of " + u.Name(),
			MediaType:   model.MediaTypeImage.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	previous := u.ProfilePictureURL
	u.ProfilePictureURL = MediaURL(m)

	if err := s.db.WithContext(ctx).Model(u).Update("profile_picture_url", u.ProfilePictureURL).Error; err != nil {
		return nil, fmt.Errorf("set profile picture %s: %w", id, err)
	}

	s.removePreviousPicture(ctx, u.ID, previous)

	return u, nil
}

// removePreviousPicture 只删除属于本人的 /Media/{id} 头像.
func (s *UserService) removePreviousPicture(ctx context.Context, userID, prevURL string) {
	const prefix = "/Media/"

	if !strings.HasPrefix(prevURL, prefix) {
		return
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(prevURL, prefix), 10, 64)
	if err != nil {
		return
	}

	old, err := s.media.GetMedia(ctx, uint(id))
	if err != nil || old.UserID != userID {
		return
	}

	if _, err := s.media.DeleteMedia(ctx, old.ID); err != nil {
		nlog.Logger().Warn().Err(err).Uint("media_id", old.ID).Msg("remove previous profile picture failed")
	}
}

// MigrateProfilePictures 把旧版内联头像转存为媒体记录并清空内联字节.
func (s *UserService) MigrateProfilePictures(ctx context.Context, batch int) (types.MigrationResult, error) {
	var res types.MigrationResult

	if batch <= 0 {
		batch = 100
	}

	lastID := ""

	for {
		var users []model.User

		err := s.db.WithContext(ctx).
			Where("profile_picture IS NOT NULL AND id > ?", lastID).
			Order("id ASC").Limit(batch).Find(&users).Error
		if err != nil {
			return res, fmt.Errorf("list legacy profile pictures: %w", err)
		}

		if len(users) == 0 {
			return res, nil
		}

		for i := range users {
			u := &users[i]
			lastID = u.ID

			if len(u.ProfilePicture) == 0 {
				continue
			}

			if err := s.migrateOne(ctx, u); err != nil {
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("user %s: %v", u.ID, err))

				continue
			}

			res.Migrated++
		}
	}
}

func (s *UserService) migrateOne(ctx context.Context, u *model.User) error {
	mt := mimetype.Detect(u.ProfilePicture)

	f, err := media.NewFile("profile_"+u.ID+mt.Extension(), int64(len(u.ProfilePicture)), mt.String(), bytes.NewReader(u.ProfilePicture))
	if err != nil {
		return err
	}

	m, err := s.media.Upload(ctx, &types.Principal{UserID: u.ID}, f, types.UploadMediaRequest{
		MediaMeta: types.MediaMeta{
			Description: "Profile picture of " + u.Name(),
			MediaType:   model.MediaTypeImage.String(),
		},
	})
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"profile_picture_url": MediaURL(m),
		"profile_picture":     nil,
	}).Error
	if err != nil {
		if _, derr := s.media.DeleteMedia(ctx, m.ID); derr != nil && !errors.Is(derr, ErrMediaNotFound) {
			nlog.Logger().Warn().Err(derr).Uint("media_id", m.ID).Msg("rollback migrated profile picture failed")
		}

		return fmt.Errorf("point user at migrated picture: %w", err)
	}

	return nil
}

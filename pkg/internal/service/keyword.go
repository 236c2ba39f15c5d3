package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/sharesmallbiz/pkg/cache"
	"github.com/yeisme/sharesmallbiz/pkg/internal/model"
	"github.com/yeisme/sharesmallbiz/pkg/internal/types"
	nlog "github.com/yeisme/sharesmallbiz/pkg/log"
)

// KeywordNamesKey 关键词名称列表的缓存键.
const KeywordNamesKey = "keywords:names"

// KeywordService 管理员维护的关键词.
type KeywordService struct {
	db    *gorm.DB
	cache *cache.Cache
	ttl   time.Duration
}

// NewKeywordService 创建服务，c 为 nil 时不使用缓存.
func NewKeywordService(db *gorm.DB, c *cache.Cache, ttl time.Duration) *KeywordService {
	return &KeywordService{db: db, cache: c, ttl: ttl}
}

// List 全部关键词，按名称排序.
func (s *KeywordService) List(ctx context.Context) ([]model.Keyword, error) {
	var kws []model.Keyword
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&kws).Error; err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}

	return kws, nil
}

// Names 关键词名称列表，优先读缓存.
func (s *KeywordService) Names(ctx context.Context) ([]string, error) {
	if s.cache == nil {
		return s.loadNames(ctx)
	}

	names, err := cache.GetOrSet(ctx, s.cache, KeywordNamesKey, func() ([]string, error) {
		return s.loadNames(ctx)
	}, s.ttl)
	if err != nil {
		nlog.Logger().Warn().Err(err).Msg("keyword names cache unavailable, reading database")
		return s.loadNames(ctx)
	}

	return names, nil
}

// RefreshNames 重新加载并写入缓存，返回名称数量.
func (s *KeywordService) RefreshNames(ctx context.Context) (int, error) {
	names, err := s.loadNames(ctx)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := cache.Set(ctx, s.cache, KeywordNamesKey, names, s.ttl); err != nil {
			return 0, fmt.Errorf("cache keyword names: %w", err)
		}
	}

	return len(names), nil
}

func (s *KeywordService) loadNames(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.WithContext(ctx).Model(&model.Keyword{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("load keyword names: %w", err)
	}

	return names, nil
}

func (s *KeywordService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, KeywordNamesKey); err != nil {
		nlog.Logger().Warn().Err(err).Msg("invalidate keyword names cache failed")
	}
}

// Get 按 ID 读取.
func (s *KeywordService) Get(ctx context.Context, id uint) (*model.Keyword, error) {
	var k model.Keyword
	if err := s.db.WithContext(ctx).First(&k, id).Error; err != nil {
		return nil, notFound(err, ErrKeywordNotFound)
	}

	return &k, nil
}

func (s *KeywordService) nameTaken(ctx context.Context, name string, exceptID uint) (bool, error) {
	var n int64

	q := s.db.WithContext(ctx).Model(&model.Keyword{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

// Create 新建关键词，名称大小写不敏感地唯一.
func (s *KeywordService) Create(ctx context.Context, p *types.Principal, in types.KeywordInput) (*model.Keyword, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: keyword name is required", ErrInvalidArgument)
	}

	taken, err := s.nameTaken(ctx, name, 0)
	if err != nil {
		return nil, fmt.Errorf("check keyword name: %w", err)
	}

	if taken {
		return nil, fmt.Errorf("%w: keyword %q already exists", ErrConflict, name)
	}

	k := &model.Keyword{Name: name, Description: strings.TrimSpace(in.Description)}
	if err := s.db.WithContext(ctx).Create(k).Error; err != nil {
		return nil, fmt.Errorf("create keyword: %w", err)
	}

	s.invalidate(ctx)

	return k, nil
}

// Update 修改名称与描述.
func (s *KeywordService) Update(ctx context.Context, p *types.Principal, id uint, in types.KeywordInput) (*model.Keyword, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}

	k, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: keyword name is required", ErrInvalidArgument)
	}

	taken, err := s.nameTaken(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("check keyword name: %w", err)
	}

	if taken {
		return nil, fmt.Errorf("%w: keyword %q already exists", ErrConflict, name)
	}

	k.Name = name
	k.Description = strings.TrimSpace(in.Description)

	if err := s.db.WithContext(ctx).Save(k).Error; err != nil {
		return nil, fmt.Errorf("update keyword %d: %w", id, err)
	}

	s.invalidate(ctx)

	return k, nil
}

// Delete 删除关键词及其与帖子的关联.
func (s *KeywordService) Delete(ctx context.Context, p *types.Principal, id uint) (bool, error) {
	if !p.IsAdmin() {
		return false, ErrForbidden
	}

	k, err := s.Get(ctx, id)
	if errors.Is(err, ErrKeywordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(k).Association("Posts").Clear(); err != nil {
			return err
		}

		return tx.Delete(&model.Keyword{}, k.ID).Error
	})
	if err != nil {
		return false, fmt.Errorf("delete keyword %d: %w", id, err)
	}

	s.invalidate(ctx)

	return true, nil
}

// ImportCSV 导入 name,description 两列的 CSV；首行为表头时跳过，已存在的名称计入 Skipped.
func (s *KeywordService) ImportCSV(ctx context.Context, p *types.Principal, r io.Reader) (types.ImportResult, error) {
	var res types.ImportResult

	if !p.IsAdmin() {
		return res, ErrForbidden
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	seen := map[string]struct{}{}
	line := 0

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		line++

		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if len(rec) == 0 {
			continue
		}

		name := strings.TrimSpace(rec[0])
		if line == 1 && strings.EqualFold(name, "name") {
			continue
		}

		if name == "" {
			res.Skipped++
			continue
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			res.Skipped++
			continue
		}

		seen[key] = struct{}{}

		desc := ""
		if len(rec) > 1 {
			desc = strings.TrimSpace(rec[1])
		}

		created, err := s.importOne(ctx, name, desc)
		switch {
		case err != nil:
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
		case created:
			res.Created++
		default:
			res.Skipped++
		}
	}

	if res.Created > 0 {
		s.invalidate(ctx)
	}

	return res, nil
}

func (s *KeywordService) importOne(ctx context.Context, name, desc string) (bool, error) {
	taken, err := s.nameTaken(ctx, name, 0)
	if err != nil {
		return false, err
	}

	if taken {
		return false, nil
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.Keyword{Name: name, Description: desc})

	return res.RowsAffected > 0, res.Error
}

package store

import (
	"context"
	"errors"

	"Paggo/backend/go/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound 表示记录不存在，或不属于请求的用户。
var ErrNotFound = errors.New("record not found")

// Store 封装了所有与文档服务相关的数据库操作。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate 自动迁移文档服务用到的表结构。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Document{}, &models.Interaction{})
}

// 问答记录按创建时间升序加载，保证对话历史的顺序。
// created_at 相同时按 ID (UUIDv7) 排序，即写入顺序。
func orderedInteractions(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Document Management ---

// CreateDocument 持久化一份已完成文本提取的文档。
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.DB.WithContext(ctx).Create(doc).Error
}

// FindDocument 按 ID 和所属用户查找文档，并预加载其问答记录。
func (s *Store) FindDocument(ctx context.Context, id, ownerID string) (*models.Document, error) {
	var doc models.Document
	err := s.DB.WithContext(ctx).
		Preload("Interactions", orderedInteractions).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&doc).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &doc, nil
}

// ListDocuments 返回用户的全部文档 (含问答记录)，最新的在前。
func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	var docs []models.Document
	err := s.DB.WithContext(ctx).
		Preload("Interactions", orderedInteractions).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&docs).Error
	return docs, err
}

// ListHistory 只查询历史列表需要的列。
func (s *Store) ListHistory(ctx context.Context, ownerID string) ([]models.DocumentSummary, error) {
	var rows []models.DocumentSummary
	err := s.DB.WithContext(ctx).
		Model(&models.Document{}).
		Select("id", "file_name", "size", "created_at").
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// AppendInteraction 追加一条问答记录。问答记录只增不改。
func (s *Store) AppendInteraction(ctx context.Context, it *models.Interaction) error {
	return s.DB.WithContext(ctx).Create(it).Error
}

// DeleteDocument 在事务中删除文档及其全部问答记录。
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&models.Interaction{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// --- User Management ---

// CreateUser 在数据库中创建一个新用户。
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.DB.WithContext(ctx).Create(user).Error
}

// FindUserByEmail 通过邮箱地址查找用户。
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

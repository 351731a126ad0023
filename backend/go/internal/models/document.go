package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document 代表一份上传的文档及其提取出的文本。
type Document struct {
	ID            string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FileURL       string         `gorm:"size:1024;not null" json:"fileUrl"`        // 上传文件在本地的存放路径
	FileName      string         `gorm:"size:255;not null" json:"fileName"`        // 用户上传时的原始文件名
	ContentType   string         `gorm:"size:127" json:"contentType"`              // 嗅探出的 MIME 类型
	Size          int64          `json:"size"`                                     // 文件字节数
	ExtractedText string         `gorm:"type:longtext" json:"extractedText"`       // 规范化后的提取文本
	Confidence    float64        `json:"confidence"`                               // 提取置信度 (0-100)
	Extraction    datatypes.JSON `json:"extraction,omitempty"`                     // 提取参数 (语言等)
	ObjectKey     string         `gorm:"size:255" json:"-"`                        // MinIO 中的归档对象名
	UserID        string         `gorm:"index;type:varchar(36);not null" json:"userId"`
	CreatedAt     time.Time      `json:"createdAt"`
	Interactions  []Interaction  `gorm:"constraint:OnDelete:CASCADE" json:"interactions,omitempty"`
}

// Interaction 是针对文档的一次问答。
type Interaction struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DocumentID string    `gorm:"index;type:varchar(36);not null" json:"documentId"`
	Prompt     string    `gorm:"type:text;not null" json:"prompt"`
	Response   string    `gorm:"type:text;not null" json:"response"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// 问答记录使用 UUIDv7：按时间单调递增，同一毫秒内写入的记录也能按 ID 排出先后。
func (i *Interaction) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		i.ID = id.String()
	}
	return nil
}

func (Document) TableName() string {
	return "documents"
}

func (Interaction) TableName() string {
	return "interactions"
}

// DocumentSummary 是历史列表中的一行。
type DocumentSummary struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

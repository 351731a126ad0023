package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"Paggo/backend/go/internal/conversation"
	"Paggo/backend/go/internal/document_service/store"
	"Paggo/backend/go/internal/extraction"
	"Paggo/backend/go/internal/models"
	"Paggo/backend/go/internal/report"
	"Paggo/backend/go/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	// ErrNotFound 表示文档不存在或不属于当前用户。
	ErrNotFound = store.ErrNotFound
	// ErrUnsupportedType 表示文件内容既不是图片也不是 PDF。
	ErrUnsupportedType = errors.New("only image or PDF files are allowed")
	// ErrFileTooLarge 表示文件超过上传上限。
	ErrFileTooLarge = errors.New("file exceeds the upload size limit")
	// ErrOriginalMissing 表示生成报告时找不到原始文件。
	ErrOriginalMissing = errors.New("original file not found")
)

// ExtractionError 包装文本提取失败的原因。
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("text extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// 面向用户的固定回复，对应 conversation.Outcome 的三类失败。
const (
	SafetyApology   = "I'm sorry, I cannot provide a response to that due to safety guidelines."
	ThrottleApology = "I'm a bit busy right now. Please try again in a moment."
	GenericApology  = "I apologize, but I encountered an issue while trying to process your request. Could you please try asking again in a moment?"

	uploadMessage = "Document uploaded and text extracted. You can now chat with it."
)

// Store 是服务依赖的持久化接口，由 store.Store 实现。
type Store interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	FindDocument(ctx context.Context, id, ownerID string) (*models.Document, error)
	ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error)
	ListHistory(ctx context.Context, ownerID string) ([]models.DocumentSummary, error)
	AppendInteraction(ctx context.Context, it *models.Interaction) error
	DeleteDocument(ctx context.Context, id string) error
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Extractor 由 extraction.Extractor 实现。
type Extractor interface {
	Extract(ctx context.Context, path, mimeType string, opts extraction.Options) (extraction.Result, error)
}

// Answerer 由 conversation.Answerer 实现。
type Answerer interface {
	Answer(ctx context.Context, documentText string, history []conversation.Turn, question string) (conversation.Outcome, error)
}

// Renderer 由 report.Renderer 实现。
type Renderer interface {
	Render(spec report.Spec) (report.Report, error)
}

// Archive 是原始文件的对象存储镜像 (可选)。
type Archive interface {
	Put(ctx context.Context, key, path, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}

// Publisher 发布文档生命周期事件 (可选)。
type Publisher interface {
	Publish(ctx context.Context, event models.DocumentEvent) error
}

// Config 汇总 Service 的全部依赖。Archive 和 Publisher 可以为空。
type Config struct {
	Store     Store
	Extractor Extractor
	Answerer  Answerer
	Renderer  Renderer
	Archive   Archive
	Publisher Publisher
	JwtSecret string
	TokenTTL  time.Duration
	MaxBytes  int64
	Logger    *logger.Logger
}

// Service 封装了文档上传、问答、报告和删除的业务逻辑。
type Service struct {
	store     Store
	extractor Extractor
	answerer  Answerer
	renderer  Renderer
	archive   Archive
	publisher Publisher
	jwtSecret []byte
	tokenTTL  time.Duration
	maxBytes  int64
	logger    *logger.Logger
	now       func() time.Time
}

// NewService 创建一个新的 Service 实例。
func NewService(cfg Config) *Service {
	s := &Service{
		store:     cfg.Store,
		extractor: cfg.Extractor,
		answerer:  cfg.Answerer,
		renderer:  cfg.Renderer,
		archive:   cfg.Archive,
		publisher: cfg.Publisher,
		jwtSecret: []byte(cfg.JwtSecret),
		tokenTTL:  cfg.TokenTTL,
		maxBytes:  cfg.MaxBytes,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 7 * 24 * time.Hour
	}
	return s
}

// --- Upload ---

// UploadedFile 描述已经落盘的上传文件。
type UploadedFile struct {
	Path         string
	OriginalName string
	MimeType     string // 客户端声明的类型，仅供参考
	Size         int64
}

// UploadResult 是上传成功后的返回体。
type UploadResult struct {
	Message       string  `json:"message"`
	DocumentID    string  `json:"documentId"`
	ExtractedText string  `json:"extractedText"`
	Confidence    float64 `json:"confidence"`
}

// Upload 提取文件文本并创建文档记录。任何一步失败都会删除已落盘的文件，
// 不会留下半成品记录。lang 形如 "eng+por"，为空时使用引擎默认语言。
func (s *Service) Upload(ctx context.Context, ownerID string, f UploadedFile, lang string) (*UploadResult, error) {
	log := s.logger.WithTrace("", ownerID)
	committed := false
	defer func() {
		if !committed {
			removeFile(f.Path, log)
		}
	}()

	if s.maxBytes > 0 && f.Size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	// 以文件内容为准，不信任客户端声明的类型
	mime, err := sniff(f.Path)
	if err != nil {
		return nil, err
	}
	kind, err := extraction.KindFor(mime, f.Path)
	if err != nil {
		return nil, ErrUnsupportedType
	}

	opts := extraction.Options{Languages: extraction.ParseLanguages(lang)}
	result, err := s.extractor.Extract(ctx, f.Path, mime, opts)
	if err != nil {
		log.WithErr(err).WithPayload(map[string]interface{}{
			"file_name": f.OriginalName,
			"kind":      string(kind),
		}).Error("文本提取失败")
		return nil, &ExtractionError{Err: err}
	}

	objectKey := s.archiveOriginal(ctx, ownerID, f.Path, mime, log)

	meta, _ := json.Marshal(map[string]interface{}{
		"kind":      kind,
		"languages": opts.Languages,
	})
	doc := &models.Document{
		FileURL:       f.Path,
		FileName:      f.OriginalName,
		ContentType:   mime,
		Size:          f.Size,
		ExtractedText: result.Text,
		Confidence:    result.Confidence,
		Extraction:    datatypes.JSON(meta),
		ObjectKey:     objectKey,
		UserID:        ownerID,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		if objectKey != "" {
			if rmErr := s.archive.Remove(ctx, objectKey); rmErr != nil {
				log.WithErr(rmErr).Warn("删除归档对象失败")
			}
		}
		return nil, fmt.Errorf("保存文档失败: %w", err)
	}
	committed = true

	s.publish(ctx, models.DocumentEvent{
		Type:       "document.processed",
		DocumentID: doc.ID,
		UserID:     ownerID,
		FileName:   doc.FileName,
		Kind:       string(kind),
		Confidence: result.Confidence,
		TextLength: len(result.Text),
	})
	log.WithPayload(map[string]interface{}{
		"document_id": doc.ID,
		"kind":        string(kind),
		"confidence":  result.Confidence,
	}).Info("文档处理完成")

	return &UploadResult{
		Message:       uploadMessage,
		DocumentID:    doc.ID,
		ExtractedText: result.Text,
		Confidence:    result.Confidence,
	}, nil
}

func sniff(path string) (string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("读取上传文件失败: %w", err)
	}
	for _, allowed := range []string{"application/pdf", "image/jpeg", "image/png"} {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", ErrUnsupportedType
}

// archiveOriginal 把原始文件镜像到对象存储，失败只记录日志。
func (s *Service) archiveOriginal(ctx context.Context, ownerID, path, mime string, log *logger.Logger) string {
	if s.archive == nil {
		return ""
	}
	key := fmt.Sprintf("%s/%s%s", ownerID, uuid.NewString(), strings.ToLower(filepath.Ext(path)))
	if err := s.archive.Put(ctx, key, path, mime); err != nil {
		log.WithErr(err).WithPayload(map[string]interface{}{"object_key": key}).Warn("归档原始文件失败")
		return ""
	}
	return key
}

func removeFile(path string, log *logger.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithErr(err).WithPayload(map[string]interface{}{"path": path}).Warn("删除上传文件失败")
	}
}

func (s *Service) publish(ctx context.Context, ev models.DocumentEvent) {
	if s.publisher == nil {
		return
	}
	ev.OccurredAt = s.now().UnixMilli()
	// 事件发布失败不影响主流程
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		s.logger.WithErr(err).WithPayload(map[string]interface{}{"event": ev.Type}).Warn("发布文档事件失败")
	}
}

// --- Chat ---

// Reply 把分类后的模型结果转换成给用户的文本。
func Reply(out conversation.Outcome) string {
	switch out.Kind {
	case conversation.Answer:
		return out.Text
	case conversation.SafetyRefusal:
		return SafetyApology
	case conversation.ThrottleRefusal:
		return ThrottleApology
	default:
		return GenericApology
	}
}

// Chat 基于文档内容和已有问答回答新问题，并把本轮问答追加到记录中。
// 模型拒答或失败时返回固定的道歉文本，同样会被记录。
func (s *Service) Chat(ctx context.Context, ownerID, documentID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", conversation.ErrEmptyQuestion
	}

	doc, err := s.store.FindDocument(ctx, documentID, ownerID)
	if err != nil {
		return "", err
	}

	history := make([][2]string, 0, len(doc.Interactions))
	for _, it := range doc.Interactions {
		history = append(history, [2]string{it.Prompt, it.Response})
	}

	out, err := s.answerer.Answer(ctx, doc.ExtractedText, conversation.HistoryFromPairs(history), question)
	if err != nil {
		return "", err
	}
	answer := Reply(out)

	it := &models.Interaction{DocumentID: doc.ID, Prompt: question, Response: answer}
	if err := s.store.AppendInteraction(ctx, it); err != nil {
		return "", fmt.Errorf("保存问答记录失败: %w", err)
	}
	s.publish(ctx, models.DocumentEvent{
		Type:       "document.chatted",
		DocumentID: doc.ID,
		UserID:     ownerID,
		FileName:   doc.FileName,
	})
	return answer, nil
}

// --- Queries ---

// DocumentView 是单个文档的详情，问答记录放在 chatInteractions 中。
type DocumentView struct {
	models.Document
	ChatInteractions []models.Interaction `json:"chatInteractions"`
}

// Get 返回文档详情。还没有任何问答时返回一条欢迎消息。
func (s *Service) Get(ctx context.Context, ownerID, id string) (*DocumentView, error) {
	doc, err := s.store.FindDocument(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	chat := doc.Interactions
	if len(chat) == 0 {
		chat = []models.Interaction{{
			ID:         "welcome",
			DocumentID: doc.ID,
			Response: fmt.Sprintf("Hello! I've analyzed your document \"%s\" and extracted the text content. "+
				"I'm ready to answer questions about it, what would you like to know?", doc.FileName),
			CreatedAt: s.now(),
		}}
	}
	doc.Interactions = nil
	return &DocumentView{Document: *doc, ChatInteractions: chat}, nil
}

// List 返回用户的全部文档及问答记录。
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, ownerID)
}

// History 返回用户的上传历史，最新的在前。
func (s *Service) History(ctx context.Context, ownerID string) ([]models.DocumentSummary, error) {
	return s.store.ListHistory(ctx, ownerID)
}

// --- Download ---

// Download 是生成好的报告。
type Download struct {
	FileName       string
	Data           []byte
	DegradedBlocks int
}

// Download 生成包含原图 (仅图片来源)、提取文本和全部问答的 PDF 报告。
func (s *Service) Download(ctx context.Context, ownerID, id string) (*Download, error) {
	doc, err := s.store.FindDocument(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	original, err := s.original(ctx, doc)
	if err != nil {
		return nil, err
	}

	spec := report.Spec{ExtractedText: doc.ExtractedText}
	for _, it := range doc.Interactions {
		spec.Interactions = append(spec.Interactions, report.QA{Question: it.Prompt, Answer: it.Response})
	}
	switch {
	case strings.HasPrefix(doc.ContentType, "image/"):
		spec.Image = &report.Image{Data: original}
	case doc.ContentType == "application/pdf":
		// 分析页追加在原 PDF 之后
		spec.SourcePDF = original
	}

	rep, err := s.renderer.Render(spec)
	if err != nil {
		s.logger.WithTrace("", ownerID).WithErr(err).
			WithPayload(map[string]interface{}{"document_id": doc.ID}).
			Error("生成报告失败")
		return nil, err
	}

	base := strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
	return &Download{
		FileName:       base + "_with_analysis.pdf",
		Data:           rep.Data,
		DegradedBlocks: rep.DegradedBlocks,
	}, nil
}

// original 读取原始文件，本地文件不存在时回退到对象存储。
func (s *Service) original(ctx context.Context, doc *models.Document) ([]byte, error) {
	data, err := os.ReadFile(doc.FileURL)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("读取原始文件失败: %w", err)
	}
	if s.archive == nil || doc.ObjectKey == "" {
		return nil, ErrOriginalMissing
	}
	data, err = s.archive.Get(ctx, doc.ObjectKey)
	if err != nil {
		s.logger.WithErr(err).WithPayload(map[string]interface{}{"object_key": doc.ObjectKey}).
			Warn("从对象存储读取原始文件失败")
		return nil, ErrOriginalMissing
	}
	return data, nil
}

// --- Delete ---

// Delete 删除文档记录、问答记录、本地文件和归档对象。
func (s *Service) Delete(ctx context.Context, ownerID, id string) (string, error) {
	doc, err := s.store.FindDocument(ctx, id, ownerID)
	if err != nil {
		return "", err
	}
	if err := s.store.DeleteDocument(ctx, doc.ID); err != nil {
		return "", err
	}

	log := s.logger.WithTrace("", ownerID)
	removeFile(doc.FileURL, log)
	if s.archive != nil && doc.ObjectKey != "" {
		if err := s.archive.Remove(ctx, doc.ObjectKey); err != nil {
			log.WithErr(err).Warn("删除归档对象失败")
		}
	}
	s.publish(ctx, models.DocumentEvent{
		Type:       "document.deleted",
		DocumentID: doc.ID,
		UserID:     ownerID,
		FileName:   doc.FileName,
	})
	return fmt.Sprintf("Document %s and its interactions deleted successfully", doc.FileName), nil
}

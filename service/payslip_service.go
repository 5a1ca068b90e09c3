package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/utils/payslip"
)

// TextRecognizer reads text from a rendered page.
type TextRecognizer interface {
	ExtractTextFromImage(img image.Image) (string, float64, error)
}

// Document is one uploaded or local PDF.
type Document struct {
	Name     string
	Data     []byte
	Password string
}

type PayslipService struct {
	pdfProcessor  PDFProcessor
	ocr           TextRecognizer
	validator     *ValidationService
	minTextLength int
	logger        *zap.Logger
}

// NewPayslipService wires the extraction pipeline. ocr may be nil to disable
// the fallback for scanned documents.
func NewPayslipService(
	pdfProcessor PDFProcessor,
	ocr TextRecognizer,
	validator *ValidationService,
	minTextLength int,
	logger *zap.Logger,
) *PayslipService {
	return &PayslipService{
		pdfProcessor:  pdfProcessor,
		ocr:           ocr,
		validator:     validator,
		minTextLength: minTextLength,
		logger:        logger,
	}
}

// LoadDocument extracts the text of doc and parses it into a FieldRecord.
func (s *PayslipService) LoadDocument(doc Document, kind dto.DocumentKind) (dto.FieldRecord, error) {
	log := s.logger.With(zap.String("document", doc.Name), zap.String("kind", string(kind)))

	pages, err := s.pdfProcessor.ExtractPages(doc.Data, doc.Password)
	if err != nil {
		return dto.FieldRecord{}, fmt.Errorf("failed to read %s: %w", doc.Name, err)
	}
	log.Debug("pdf text extracted", zap.Int("pages", len(pages)), zap.Int("chars", textLength(pages)))

	if textLength(pages) < s.minTextLength && s.ocr != nil {
		log.Info("document has minimal text, attempting OCR")
		ocrPages, err := s.recognize(doc)
		if err != nil {
			return dto.FieldRecord{}, fmt.Errorf("failed to read %s: %w", doc.Name, err)
		}
		pages = ocrPages
	}

	record, err := payslip.Parse(pages, kind)
	if err != nil {
		var extractionErr *payslip.ExtractionError
		if errors.As(err, &extractionErr) {
			extractionErr.Document = doc.Name
		}
		return dto.FieldRecord{}, err
	}
	record.SourceName = doc.Name
	log.Info("payslip parsed", zap.Stringer("period", record.Period))
	return record, nil
}

// recognize runs OCR on every image of a scanned PDF, one page per image.
func (s *PayslipService) recognize(doc Document) ([]string, error) {
	images, err := s.pdfProcessor.ExtractImages(doc.Data, doc.Password)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, errors.New("no text or images found in pdf")
	}

	pages := make([]string, 0, len(images))
	for i, img := range images {
		text, confidence, err := s.ocr.ExtractTextFromImage(img)
		if err != nil {
			s.logger.Warn("OCR failed for page", zap.String("document", doc.Name), zap.Int("page", i+1), zap.Error(err))
			continue
		}
		s.logger.Debug("page recognized", zap.Int("page", i+1), zap.Float64("confidence", confidence))
		pages = append(pages, text)
	}
	if len(pages) == 0 {
		return nil, errors.New("OCR produced no text")
	}
	return pages, nil
}

func textLength(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

// Verify extracts the regular payslip, then the optional stock payslip, and
// validates both in one pass. Extraction errors abort the run.
func (s *PayslipService) Verify(ctx context.Context, regular Document, stock *Document, vctx dto.ValidationContext) (*dto.Report, error) {
	regularRecord, err := s.LoadDocument(regular, dto.DocumentRegular)
	if err != nil {
		return nil, err
	}
	records := []dto.FieldRecord{regularRecord}

	var stockRecord *dto.FieldRecord
	if stock != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.LoadDocument(*stock, dto.DocumentStock)
		if err != nil {
			return nil, err
		}
		stockRecord = &r
		records = append(records, r)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &dto.Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Records:     records,
		Findings:    s.validator.Validate(regularRecord, stockRecord, vctx),
	}
	s.logger.Info("verification finished",
		zap.String("run_id", report.RunID),
		zap.Int("errors", report.Count(dto.SeverityError)),
		zap.Int("warnings", report.Count(dto.SeverityWarning)))
	return report, nil
}

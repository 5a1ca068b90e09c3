package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Aashish23092/payslip-verifier/dto"
	"github.com/Aashish23092/payslip-verifier/report"
	"github.com/Aashish23092/payslip-verifier/service"
	"github.com/Aashish23092/payslip-verifier/store"
	"github.com/Aashish23092/payslip-verifier/utils/payslip"
)

// ReportStore keeps finished reports for later retrieval.
type ReportStore interface {
	Save(ctx context.Context, r *dto.Report) error
	Get(ctx context.Context, runID string) (*dto.Report, error)
	List(ctx context.Context, limit int) ([]store.Summary, error)
}

type PayslipHandler struct {
	payslipService *service.PayslipService
	history        ReportStore
	tolerance      decimal.Decimal
	maxFileSize    int64
	logger         *zap.Logger
}

// NewPayslipHandler creates the handler. history may be nil, which disables
// the report endpoints.
func NewPayslipHandler(payslipService *service.PayslipService, history ReportStore, tolerance decimal.Decimal, maxFileSize int64, logger *zap.Logger) *PayslipHandler {
	return &PayslipHandler{
		payslipService: payslipService,
		history:        history,
		tolerance:      tolerance,
		maxFileSize:    maxFileSize,
		logger:         logger,
	}
}

// VerifyPayslip handles the POST /payslips/verify endpoint
func (h *PayslipHandler) VerifyPayslip(c *gin.Context) {
	var request dto.PayslipVerificationRequest
	if err := c.ShouldBind(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	vctx, err := request.ValidationContext(h.tolerance)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	regular, err := h.readDocument(request.Payslip, request.Password)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_FILE", err)
		return
	}
	var stock *service.Document
	if request.StockPayslip != nil {
		doc, err := h.readDocument(request.StockPayslip, request.StockPassword)
		if err != nil {
			h.sendError(c, http.StatusBadRequest, "INVALID_FILE", err)
			return
		}
		stock = &doc
	}

	h.logger.Info("received payslip verification request",
		zap.String("payslip", regular.Name),
		zap.Bool("stock_payslip", stock != nil))

	result, err := h.payslipService.Verify(c.Request.Context(), regular, stock, vctx)
	if err != nil {
		var extractionErr *payslip.ExtractionError
		if errors.As(err, &extractionErr) {
			h.sendError(c, http.StatusUnprocessableEntity, "EXTRACTION_FAILED", err)
			return
		}
		h.sendError(c, http.StatusUnprocessableEntity, "VERIFICATION_FAILED", err)
		return
	}

	if h.history != nil {
		if err := h.history.Save(c.Request.Context(), result); err != nil {
			// the verification itself succeeded
			h.logger.Error("failed to store report", zap.String("run_id", result.RunID), zap.Error(err))
		}
	}

	doc := report.NewDocument(result)
	c.JSON(http.StatusOK, dto.PayslipVerificationResponse{
		Report:   result,
		Passed:   doc.Passed,
		Errors:   doc.Summary.Errors,
		Warnings: doc.Summary.Warnings,
	})
}

// GetReport handles GET /reports/:id
func (h *PayslipHandler) GetReport(c *gin.Context) {
	result, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.sendError(c, http.StatusNotFound, "NOT_FOUND", err)
		return
	}
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "HISTORY_FAILED", err)
		return
	}
	c.JSON(http.StatusOK, report.NewDocument(result))
}

// ListReports handles GET /reports
func (h *PayslipHandler) ListReports(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	summaries, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "HISTORY_FAILED", err)
		return
	}
	if summaries == nil {
		summaries = []store.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": summaries})
}

// Health handles GET /health
func (h *PayslipHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Payslip Verifier",
	})
}

func (h *PayslipHandler) readDocument(fh *multipart.FileHeader, password string) (service.Document, error) {
	if fh.Size > h.maxFileSize {
		return service.Document{}, fmt.Errorf("file %s exceeds maximum size of %d bytes", fh.Filename, h.maxFileSize)
	}
	f, err := fh.Open()
	if err != nil {
		return service.Document{}, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxFileSize+1))
	if err != nil {
		return service.Document{}, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > h.maxFileSize {
		return service.Document{}, fmt.Errorf("file %s exceeds maximum size of %d bytes", fh.Filename, h.maxFileSize)
	}
	return service.Document{Name: fh.Filename, Data: data, Password: password}, nil
}

// sendError sends a structured error response
func (h *PayslipHandler) sendError(c *gin.Context, statusCode int, code string, err error) {
	response := dto.ErrorResponse{
		Error:   code,
		Message: err.Error(),
		Code:    statusCode,
	}
	var extractionErr *payslip.ExtractionError
	if errors.As(err, &extractionErr) {
		response.Field = string(extractionErr.Field)
	}
	h.logger.Warn("request failed", zap.Int("status", statusCode), zap.Error(err))
	c.JSON(statusCode, response)
}

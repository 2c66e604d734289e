package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tailorbook/internal/providers/pdf"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
	"go.uber.org/zap"
)

func (s *Server) ListBills(c *gin.Context) {
	s.listRecords(c, s.billSvc)
}

func (s *Server) CreateBill(c *gin.Context) {
	doc, err := recorddomain.DecodeDocument(c.Request.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.billSvc.Create(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Bill saved successfully",
		"billNumber": res.Identity,
		"key":        res.Key,
	})
}

func (s *Server) GetBill(c *gin.Context) {
	s.getRecord(c, s.billSvc)
}

func (s *Server) UpdateBill(c *gin.Context) {
	s.updateRecord(c, s.billSvc, "Bill updated successfully")
}

func (s *Server) DeleteBill(c *gin.Context) {
	s.deleteRecord(c, s.billSvc, "Bill deleted successfully")
}

// GetBillReceipt renders a stored bill as a printable PDF.
func (s *Server) GetBillReceipt(c *gin.Context) {
	ctx := c.Request.Context()
	doc, err := s.billSvc.Get(ctx, c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	receipt := pdf.ReceiptFromDocument(doc)
	body, err := s.pdf.GenerateReceipt(ctx, receipt)
	if err != nil {
		s.obsMetrics.RecordReceipt(ctx, "error")
		s.log.Error("render receipt failed", zap.String("record_key", c.Param("key")), zap.Error(err))
		AbortWithError(c, ErrInternal)
		return
	}
	s.obsMetrics.RecordReceipt(ctx, "ok")

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", pdf.ReceiptFilename(receipt)))
	c.Data(http.StatusOK, "application/pdf", body)
}

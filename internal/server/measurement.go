package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
)

func (s *Server) ListMeasurements(c *gin.Context) {
	s.listRecords(c, s.measurementSvc)
}

func (s *Server) CreateMeasurement(c *gin.Context) {
	doc, err := recorddomain.DecodeDocument(c.Request.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	res, err := s.measurementSvc.Create(c.Request.Context(), doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Measurement saved successfully",
		"serialNumber": res.Identity,
		"key":          res.Key,
	})
}

func (s *Server) GetMeasurement(c *gin.Context) {
	s.getRecord(c, s.measurementSvc)
}

func (s *Server) UpdateMeasurement(c *gin.Context) {
	s.updateRecord(c, s.measurementSvc, "Measurement updated successfully")
}

func (s *Server) DeleteMeasurement(c *gin.Context) {
	s.deleteRecord(c, s.measurementSvc, "Measurement deleted successfully")
}

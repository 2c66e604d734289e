package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	recorddomain "github.com/smallbiznis/tailorbook/internal/record/domain"
)

// recordService is the CRUD surface shared by measurements and bills.
type recordService interface {
	List(ctx context.Context, req recorddomain.ListRequest) ([]recorddomain.Document, error)
	Get(ctx context.Context, key string) (recorddomain.Document, error)
	Update(ctx context.Context, key string, doc recorddomain.Document) error
	Delete(ctx context.Context, key string) error
}

type listQuery struct {
	Query string `form:"q"`
	Sort  string `form:"sort"`
}

func (s *Server) listRecords(c *gin.Context, svc recordService) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	docs, err := svc.List(c.Request.Context(), recorddomain.ListRequest{
		Query: strings.TrimSpace(query.Query),
		Sort:  strings.TrimSpace(query.Sort),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if docs == nil {
		docs = []recorddomain.Document{}
	}

	c.JSON(http.StatusOK, docs)
}

func (s *Server) getRecord(c *gin.Context, svc recordService) {
	doc, err := svc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (s *Server) updateRecord(c *gin.Context, svc recordService, message string) {
	doc, err := recorddomain.DecodeDocument(c.Request.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := svc.Update(c.Request.Context(), c.Param("key"), doc); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (s *Server) deleteRecord(c *gin.Context, svc recordService, message string) {
	if err := svc.Delete(c.Request.Context(), c.Param("key")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

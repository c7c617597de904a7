package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/gin-gonic/gin"
)

type createAttachmentRequest struct {
	Filename string `json:"filename"`
}

// createAttachment handles POST /logs/:logId/attachments. It registers the
// metadata and returns a presigned PUT URL; the client uploads the body to
// object storage directly.
func (s *Server) createAttachment(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var req createAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.BadRequestf("invalid attachment payload: %v", err))
		return
	}
	a, url, err := s.attach.CreateUpload(c.Request.Context(), id, req.Filename)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attachment": attachmentToDTO(a),
		"uploadUrl":  url,
	})
}

func (s *Server) listAttachments(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	list, err := s.attach.ListForEntry(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]*AttachmentDTO, 0, len(list))
	for _, a := range list {
		result = append(result, attachmentToDTO(a))
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) completeAttachment(c *gin.Context) {
	if err := s.attach.CompleteUpload(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// getAttachmentURL returns a presigned GET URL instead of proxying the body.
func (s *Server) getAttachmentURL(c *gin.Context) {
	url, err := s.attach.DownloadURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (s *Server) deleteAttachment(c *gin.Context) {
	if err := s.attach.RemoveAttachment(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

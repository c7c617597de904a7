package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) listTags(c *gin.Context) {
	tags, err := s.manager.ListTags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]*TagDTO, 0, len(tags))
	for _, t := range tags {
		result = append(result, &TagDTO{Name: t.Name})
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getTag(c *gin.Context) {
	name := c.Param("tagName")
	tag, err := s.manager.FindTagByName(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	if tag == nil {
		writeError(c, common.NotFoundf("specified tag '%s' does not exist", name))
		return
	}
	c.JSON(http.StatusOK, tagToDTO(tag))
}

func (s *Server) createTag(c *gin.Context) {
	name := c.Param("tagName")
	var dto TagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid tag payload: %v", err))
		return
	}
	tag, err := s.manager.CreateOrReplaceTag(c.Request.Context(), name, tagPayload(&dto))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagToDTO(tag))
}

func (s *Server) createTags(c *gin.Context) {
	var dtos []*TagDTO
	if err := c.ShouldBindJSON(&dtos); err != nil {
		writeError(c, common.BadRequestf("invalid tags payload: %v", err))
		return
	}
	tags := make([]*models.Tag, 0, len(dtos))
	for _, d := range dtos {
		tags = append(tags, tagPayload(d))
	}
	if err := s.manager.CreateOrReplaceTags(c.Request.Context(), tags); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) updateTag(c *gin.Context) {
	name := c.Param("tagName")
	var dto TagDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid tag payload: %v", err))
		return
	}
	tag, err := s.manager.UpdateTag(c.Request.Context(), name, tagPayload(&dto))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagToDTO(tag))
}

func (s *Server) deleteTag(c *gin.Context) {
	if err := s.manager.RemoveExistingTag(c.Request.Context(), c.Param("tagName")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) addEntryToTag(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := s.manager.AddSingleTag(c.Request.Context(), c.Param("tagName"), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) removeEntryFromTag(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := s.manager.RemoveSingleTag(c.Request.Context(), c.Param("tagName"), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func tagPayload(d *TagDTO) *models.Tag {
	if d == nil {
		return nil
	}
	t := &models.Tag{Name: d.Name}
	for _, e := range d.Entries {
		t.Entries = append(t.Entries, &models.Entry{ID: e.ID})
	}
	return t
}

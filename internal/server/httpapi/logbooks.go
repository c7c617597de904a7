package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/gin-gonic/gin"
)

func (s *Server) listLogbooks(c *gin.Context) {
	logbooks, err := s.manager.ListLogbooks(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	result := make([]*LogbookDTO, 0, len(logbooks))
	for _, l := range logbooks {
		result = append(result, &LogbookDTO{Name: l.Name, Owner: l.Owner})
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) getLogbook(c *gin.Context) {
	name := c.Param("name")
	logbook, err := s.manager.FindLogbookByName(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}
	if logbook == nil {
		writeError(c, common.NotFoundf("specified logbook '%s' does not exist", name))
		return
	}
	c.JSON(http.StatusOK, logbookToDTO(logbook))
}

// createLogbook handles PUT /logbooks/:name: create or full replacement,
// including the membership list when entries are given.
func (s *Server) createLogbook(c *gin.Context) {
	name := c.Param("name")
	var dto LogbookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid logbook payload: %v", err))
		return
	}
	logbook, err := s.manager.CreateOrReplaceLogbook(c.Request.Context(), name, logbookPayload(&dto))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logbookToDTO(logbook))
}

func (s *Server) createLogbooks(c *gin.Context) {
	var dtos []*LogbookDTO
	if err := c.ShouldBindJSON(&dtos); err != nil {
		writeError(c, common.BadRequestf("invalid logbooks payload: %v", err))
		return
	}
	logbooks := make([]*models.Logbook, 0, len(dtos))
	for _, d := range dtos {
		logbooks = append(logbooks, logbookPayload(d))
	}
	if err := s.manager.CreateOrReplaceLogbooks(c.Request.Context(), logbooks); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// updateLogbook handles POST /logbooks/:name: additive update, existing
// memberships are kept.
func (s *Server) updateLogbook(c *gin.Context) {
	name := c.Param("name")
	var dto LogbookDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid logbook payload: %v", err))
		return
	}
	logbook, err := s.manager.UpdateLogbook(c.Request.Context(), name, logbookPayload(&dto))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, logbookToDTO(logbook))
}

func (s *Server) deleteLogbook(c *gin.Context) {
	if err := s.manager.RemoveExistingLogbook(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) addEntryToLogbook(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := s.manager.AddSingleLogbook(c.Request.Context(), c.Param("name"), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) removeEntryFromLogbook(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := s.manager.RemoveSingleLogbook(c.Request.Context(), c.Param("name"), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// logbookPayload converts an incoming DTO, carrying associated entry ids
// through so replacement can rebuild memberships.
func logbookPayload(d *LogbookDTO) *models.Logbook {
	if d == nil {
		return nil
	}
	l := &models.Logbook{Name: d.Name, Owner: d.Owner}
	for _, e := range d.Entries {
		l.Entries = append(l.Entries, &models.Entry{ID: e.ID})
	}
	return l
}

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/ologd/internal/common"
	"github.com/dmitrijs2005/ologd/internal/server/models"
	"github.com/dmitrijs2005/ologd/internal/server/store"
	"github.com/gin-gonic/gin"
)

func parseEntryID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("logId"), 10, 64)
	if err != nil {
		writeError(c, common.BadRequestf("invalid log entry id '%s'", c.Param("logId")))
		return 0, false
	}
	return id, true
}

// listEntries handles GET /logs. Query parameters become field match
// patterns; repeated parameters OR together, distinct parameters AND.
func (s *Server) listEntries(c *gin.Context) {
	matches := store.MultiMatch{}
	for field, patterns := range c.Request.URL.Query() {
		matches[field] = patterns
	}

	entries, err := s.manager.FindEntriesByMultiMatch(c.Request.Context(), matches)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entriesToDTO(entries))
}

func (s *Server) getEntry(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	entry, err := s.manager.FindEntryByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if entry == nil {
		writeError(c, common.NotFoundf("specified log entry '%d' does not exist", id))
		return
	}
	c.JSON(http.StatusOK, entryToDTO(entry))
}

// addEntry handles POST /logs: create a new entry, letting the store assign
// its id.
func (s *Server) addEntry(c *gin.Context) {
	var dto EntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid log entry payload: %v", err))
		return
	}
	entry, err := s.manager.CreateEntry(c.Request.Context(), dto.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToDTO(entry))
}

// createEntry handles PUT /logs/:logId: create or full replacement.
func (s *Server) createEntry(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var dto EntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid log entry payload: %v", err))
		return
	}
	entry, err := s.manager.CreateOrReplaceEntry(c.Request.Context(), id, dto.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToDTO(entry))
}

// createEntries handles PUT /logs: batch create or replacement.
func (s *Server) createEntries(c *gin.Context) {
	var dtos []*EntryDTO
	if err := c.ShouldBindJSON(&dtos); err != nil {
		writeError(c, common.BadRequestf("invalid log entries payload: %v", err))
		return
	}
	entries := make([]*models.Entry, 0, len(dtos))
	for _, d := range dtos {
		entries = append(entries, d.toModel())
	}
	if err := s.manager.CreateOrReplaceEntries(c.Request.Context(), entries); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entriesToDTO(entries))
}

// updateEntry handles POST /logs/:logId: merge the payload into the stored
// entry.
func (s *Server) updateEntry(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	var dto EntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeError(c, common.BadRequestf("invalid log entry payload: %v", err))
		return
	}
	entry, err := s.manager.UpdateEntry(c.Request.Context(), id, dto.toModel())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entryToDTO(entry))
}

func (s *Server) deleteEntry(c *gin.Context) {
	id, ok := parseEntryID(c)
	if !ok {
		return
	}
	if err := s.manager.RemoveExistingEntry(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

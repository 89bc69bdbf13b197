// Search HTTP handler.
//
// Exposes GET /indexes/{indexUid}/search. The query string is parsed
// strictly: a present but unparsable parameter is a client error, never a
// silent default. Search terms arrive via `q` and are matched against the
// in-memory ranking registry, then hydrated from storage.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-index-backend/internal/httperr"
	"github.com/tbourn/go-index-backend/internal/payload"
)

// SearchDocuments godoc
// @ID          searchDocuments
// @Summary     Search an index
// @Description Ranks the index's documents against the query and returns the top matches with scores. An empty query returns no hits.
// @Tags        Search
// @Produce     json
//
// @Param       indexUid  path   string  true   "Index UID"  example(movies)
// @Param       q         query  string  false  "Search terms"  example(dune sandworm)
// @Param       limit     query  int     false  "Maximum number of hits"  minimum(1) default(20)
//
// @Success     200  {object} services.SearchResult
// @Failure     400  {object} handlers.ErrorResponse "Invalid uid or query parameter"
// @Failure     404  {object} handlers.ErrorResponse "Index not found"
// @Router      /indexes/{indexUid}/search [get]
func (h *Handlers) SearchDocuments(c *gin.Context) {
	values := c.Request.URL.Query()

	limit, qerr := payload.QueryInt(values, "limit", 0)
	if qerr != nil {
		failErr(c, httperr.FromPayload(httperr.FromQuery(qerr)))
		return
	}

	res, err := h.searchSvc.Search(c.Request.Context(), c.Param("indexUid"), values.Get("q"), limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

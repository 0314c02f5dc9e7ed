package controller

import (
	"net/http"

	"github.com/watchalong/server/pkg/rest"
)

func (c controller) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "query parameter q is required"})
		return
	}

	results, err := c.searchClient.Search(r.Context(), query)
	if err != nil {
		c.logger.ErrorContext(r.Context(), "failed to search videos", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "search failed"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"results": results})
}

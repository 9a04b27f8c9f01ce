package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/http/response"
	"github.com/yungbote/coursegen-backend/internal/modules/coursegen/normmatch"
	"github.com/yungbote/coursegen-backend/internal/normcorpus"
)

type NormHandler struct {
	registry *normcorpus.Registry
	matcher  *normmatch.Matcher
}

func NewNormHandler(registry *normcorpus.Registry, matcher *normmatch.Matcher) *NormHandler {
	return &NormHandler{registry: registry, matcher: matcher}
}

type normSummary struct {
	NormID    string `json:"normId"`
	Title     string `json:"title"`
	RuleCount int    `json:"ruleCount"`
}

func (h *NormHandler) List(c *gin.Context) {
	out := make([]normSummary, 0, h.registry.Len())
	for _, n := range h.registry.All() {
		out = append(out, normSummary{NormID: n.NormID, Title: n.Title, RuleCount: len(n.Rules)})
	}
	response.RespondOK(c, gin.H{"norms": out})
}

func (h *NormHandler) Sommaire(c *gin.Context) {
	n, ok := h.registry.Get(c.Param("id"))
	if !ok {
		response.RespondError(c, http.StatusNotFound, "norm_not_found", nil)
		return
	}
	sommaire := n.Sommaire
	if sommaire == nil {
		sommaire = []domain.SommaireNode{}
	}
	response.RespondOK(c, gin.H{"normId": n.NormID, "title": n.Title, "sommaire": sommaire})
}

type searchHit struct {
	Rule      domain.NormRule     `json:"rule"`
	MatchType normmatch.MatchType `json:"matchType"`
	Score     int                 `json:"score"`
}

// Search ranks rules against a free-text query, optionally within one norm.
func (h *NormHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_query", nil)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	res := h.matcher.Search(q, strings.TrimSpace(c.Query("normId")), limit)
	hits := make([]searchHit, 0, len(res.Matches))
	for _, m := range res.Matches {
		hits = append(hits, searchHit{Rule: m.Rule, MatchType: m.MatchType, Score: m.Score})
	}
	response.RespondOK(c, gin.H{"results": hits, "corpusFound": res.CorpusFound})
}

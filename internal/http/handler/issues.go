package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trackerbot.app/relay/internal/http/dto"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/service"
)

type IssueHandler struct {
	issues       service.IssueService
	defaultLabel string
}

// NewIssueHandler builds the issue endpoints. defaultLabel is used for
// contributor queries that do not pass ?label=.
func NewIssueHandler(issues service.IssueService, defaultLabel string) *IssueHandler {
	return &IssueHandler{issues: issues, defaultLabel: defaultLabel}
}

func (h *IssueHandler) MissedDeadlines(c *gin.Context) {
	repos, err := h.issues.MissedDeadlines(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		respondError(c, err, "failed to list missed deadlines")
		return
	}
	c.JSON(http.StatusOK, dto.MissedDeadlinesResponse{Repositories: repos})
}

func (h *IssueHandler) AvailableIssues(c *gin.Context) {
	repos, err := h.issues.AvailableIssues(c.Request.Context(), c.Param("telegram_id"))
	if err != nil {
		respondError(c, err, "failed to list available issues")
		return
	}
	c.JSON(http.StatusOK, dto.AvailableIssuesResponse{Repositories: repos})
}

// ContributorIssues accepts ?open=false to include closed issues and ?label= to
// override the label pattern. An explicit empty label disables filtering.
func (h *IssueHandler) ContributorIssues(c *gin.Context) {
	username := c.Param("username")

	openOnly := true
	if raw, ok := c.GetQuery("open"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "open must be a boolean"})
			return
		}
		openOnly = v
	}

	label := h.defaultLabel
	if raw, ok := c.GetQuery("label"); ok {
		label = raw
	}

	issues, err := h.issues.ContributorIssues(c.Request.Context(), username, openOnly, label)
	if err != nil {
		respondError(c, err, "failed to list contributor issues")
		return
	}
	c.JSON(http.StatusOK, dto.ContributorIssuesResponse{Username: username, Issues: issues})
}

func (h *IssueHandler) Deadline(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue number must be a positive integer"})
		return
	}

	repo := model.RepositoryRef{Author: c.Param("owner"), Name: c.Param("repo")}
	status, err := h.issues.Deadline(c.Request.Context(), repo, number)
	if err != nil {
		respondError(c, err, "failed to evaluate deadline")
		return
	}
	c.JSON(http.StatusOK, dto.ToDeadlineResponse(repo, number, status))
}

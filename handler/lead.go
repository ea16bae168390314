package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/amarkiccha/lead/model"
	"github.com/amarkiccha/lead/pkg/datetime"
	"github.com/amarkiccha/lead/pkg/logger"
	"github.com/amarkiccha/lead/service"
	"github.com/gin-gonic/gin"
)

const notifyTimeout = 15 * time.Second

type LeadHandler struct {
	gateway      service.Gateway
	directory    *service.Directory
	notifier     service.Notifier
	location     *time.Location
	refreshDelay time.Duration
	now          func() time.Time
}

func NewLeadHandler(gateway service.Gateway, directory *service.Directory, notifier service.Notifier, loc *time.Location, refreshDelay time.Duration) *LeadHandler {
	if notifier == nil {
		notifier = service.NopNotifier{}
	}
	return &LeadHandler{
		gateway:      gateway,
		directory:    directory,
		notifier:     notifier,
		location:     loc,
		refreshDelay: refreshDelay,
		now:          time.Now,
	}
}

// LeadView is a lead with its date and time formatted for display.
type LeadView struct {
	model.Lead
	DisplayDate string `json:"displayDate"`
	DisplayTime string `json:"displayTime"`
}

func newLeadView(l model.Lead) LeadView {
	return LeadView{
		Lead:        l,
		DisplayDate: datetime.FormatDisplayDate(l.Date),
		DisplayTime: datetime.FormatDisplayTime(l.Time),
	}
}

func newLeadViews(leads []model.Lead) []LeadView {
	views := make([]LeadView, len(leads))
	for i, l := range leads {
		views[i] = newLeadView(l)
	}
	return views
}

// SubmitRequest is the public capture form. Date and time are stamped by
// the server.
type SubmitRequest struct {
	Name        string `json:"name" binding:"required"`
	ProjectName string `json:"projectName" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// AdminLeadRequest is the dashboard form, where every field is entered by hand.
type AdminLeadRequest struct {
	Name        string `json:"name" binding:"required"`
	ProjectName string `json:"projectName" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Time        string `json:"time" binding:"required"`
}

// criteriaFromQuery reads name, project and date (YYYY-MM-DD) filters.
func criteriaFromQuery(c *gin.Context) (model.FilterCriteria, error) {
	criteria := model.FilterCriteria{
		SearchName: c.Query("name"),
		Project:    c.DefaultQuery("project", model.AllProjects),
	}
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		day, err := datetime.ParseCriteriaDate(raw)
		if err != nil {
			return criteria, err
		}
		criteria.Date = &day
	}
	return criteria, nil
}

// List fetches the directory and applies the query filters
func (h *LeadHandler) List(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	leads, err := h.directory.Refresh(c.Request.Context())
	if err != nil {
		respondListError(c, err)
		return
	}

	matched := service.ApplyFilters(leads, criteria)
	c.JSON(http.StatusOK, gin.H{
		"leads":    newLeadViews(matched),
		"projects": service.UniqueProjects(leads),
		"total":    len(leads),
		"matched":  len(matched),
	})
}

// Submit appends a lead from the public form
func (h *LeadHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, project and phone number are required"})
		return
	}

	lead := model.Lead{
		Name:        strings.TrimSpace(req.Name),
		ProjectName: strings.TrimSpace(req.ProjectName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	}
	if lead.Name == "" || lead.ProjectName == "" || lead.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, project and phone number are required"})
		return
	}

	now := h.now().In(h.location)
	lead.Date = datetime.FormatWireDate(now)
	lead.Time = datetime.FormatWireTime(now)

	h.appendLead(c, lead)
}

// AdminCreate appends a lead entered on the dashboard
func (h *LeadHandler) AdminCreate(c *gin.Context) {
	var req AdminLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	lead := model.Lead{
		Name:        strings.TrimSpace(req.Name),
		ProjectName: strings.TrimSpace(req.ProjectName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Date:        strings.TrimSpace(req.Date),
		Time:        strings.TrimSpace(req.Time),
	}
	if lead.Name == "" || lead.ProjectName == "" || lead.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}
	if _, ok := datetime.ParseDate(lead.Date); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date"})
		return
	}
	if _, ok := datetime.ParseClock(lead.Time); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid time"})
		return
	}

	h.appendLead(c, lead)
}

func (h *LeadHandler) appendLead(c *gin.Context, lead model.Lead) {
	ctx := c.Request.Context()

	if _, err := h.gateway.AppendLead(ctx, lead); err != nil {
		respondAppendError(c, err)
		return
	}

	logger.Info(ctx, "lead appended", "project", lead.ProjectName, "date", lead.Date)
	h.directory.RefreshAfter(h.refreshDelay)
	go h.notify(context.WithoutCancel(ctx), lead)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Lead added",
		"lead":    newLeadView(lead),
	})
}

func (h *LeadHandler) notify(ctx context.Context, lead model.Lead) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := h.notifier.NotifyNewLead(ctx, lead); err != nil {
		logger.Warn(ctx, "new lead notification failed", "error", err)
	}
}

// Stats summarizes the last loaded directory
func (h *LeadHandler) Stats(c *gin.Context) {
	snap, err := h.directory.Current(c.Request.Context())
	if err != nil {
		respondListError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":      len(snap.Leads),
		"today":      service.CountOnDay(snap.Leads, h.now().In(h.location)),
		"projects":   len(service.UniqueProjects(snap.Leads)),
		"generation": snap.Generation,
		"fetched_at": snap.FetchedAt.Format(time.RFC3339),
	})
}

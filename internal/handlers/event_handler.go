package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/farellandr/eventease/internal/helpers"
	"github.com/farellandr/eventease/internal/identity"
	"github.com/farellandr/eventease/internal/middleware"
	"github.com/farellandr/eventease/internal/models"
)

var maxPrice = decimal.RequireFromString("99999999.99")

type EventRequest struct {
	Theme           string           `json:"theme" binding:"required,max=255"`
	Description     string           `json:"description" binding:"max=500"`
	LongDescription string           `json:"long_description"`
	Category        string           `json:"category" binding:"max=100"`
	Location        string           `json:"location" binding:"max=255"`
	StartDate       time.Time        `json:"start_date" binding:"required"`
	Price           *decimal.Decimal `json:"price" binding:"required"`
	IsPublished     bool             `json:"is_published"`
	// Only admins may create or move events on behalf of an organizer.
	OrganizerID uint `json:"organizer_id"`
}

func (r *EventRequest) validate() map[string]string {
	fields := map[string]string{}
	if r.Price.IsNegative() {
		fields["price"] = "price must not be negative."
	} else if r.Price.GreaterThan(maxPrice) {
		fields["price"] = "price is too large."
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func (r *EventRequest) apply(e *models.Event) {
	e.Theme = strings.TrimSpace(r.Theme)
	e.Description = r.Description
	e.LongDescription = r.LongDescription
	e.Category = r.Category
	e.Location = r.Location
	e.StartDate = r.StartDate
	e.Price = r.Price.Round(2)
	e.IsPublished = r.IsPublished
}

func bindEvent(c *gin.Context) (*EventRequest, bool) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithBindingError(c, err)
		return nil, false
	}
	if fields := req.validate(); fields != nil {
		helpers.RespondWithValidation(c, fields)
		return nil, false
	}
	return &req, true
}

// loadManagedEvent loads the event in :id and checks the caller manages it.
func loadManagedEvent(c *gin.Context, gormDB *gorm.DB, p identity.Principal) (*models.Event, bool) {
	eventID, ok := parseID(c, "id", "event")
	if !ok {
		return nil, false
	}

	var event models.Event
	if err := gormDB.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return nil, false
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error finding event.")
		return nil, false
	}
	if !identity.CanManageEvent(p, &event) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to manage this event.")
		return nil, false
	}
	return &event, true
}

func organizerFor(c *gin.Context, gormDB *gorm.DB, p identity.Principal, requested uint) (uint, bool) {
	if requested == 0 || requested == p.UserID {
		return p.UserID, true
	}
	if !p.IsAdmin() {
		helpers.RespondWithError(c, http.StatusForbidden, "Only admins can assign events to another organizer.")
		return 0, false
	}

	var organizer models.User
	if err := gormDB.Where("id = ? AND role = ?", requested, models.RoleOrganizer).First(&organizer).Error; err != nil {
		helpers.RespondWithValidation(c, map[string]string{"organizer_id": "organizer_id must reference an organizer."})
		return 0, false
	}
	return organizer.ID, true
}

func CreateEvent(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	req, ok := bindEvent(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	organizerID, ok := organizerFor(c, gormDB, p, req.OrganizerID)
	if !ok {
		return
	}

	event := models.Event{OrganizerID: organizerID}
	req.apply(&event)

	if err := gormDB.Create(&event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create event.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Event created successfully.",
		"event_id": event.ID,
		"event":    event,
	})
}

// GetEvent shows a published event.
func GetEvent(c *gin.Context) {
	eventID, ok := parseID(c, "id", "event")
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var event models.Event
	if err := gormDB.Preload("Organizer").Where("id = ? AND is_published = ?", eventID, true).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving event.")
		return
	}

	c.JSON(http.StatusOK, event)
}

func listEvents(c *gin.Context, query *gorm.DB) {
	page, err := helpers.GetPagination(c)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if location := c.Query("location"); location != "" {
		query = query.Where("location LIKE ?", "%"+location+"%")
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("theme LIKE ? OR description LIKE ?", "%"+q+"%", "%"+q+"%")
	}
	if c.Query("upcoming") == "true" {
		query = query.Where("start_date >= ?", time.Now())
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	var events []models.Event
	err = query.Preload("Organizer").
		Offset(page.Offset()).
		Limit(page.Limit).
		Order("start_date ASC").
		Find(&events).Error
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":      events,
		"total":       totalCount,
		"page":        page.Page,
		"limit":       page.Limit,
		"total_pages": page.TotalPages(totalCount),
	})
}

// ListEvents lists published events, soonest first.
func ListEvents(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	listEvents(c, gormDB.Model(&models.Event{}).Where("is_published = ?", true))
}

// ListMyEvents lists the caller's events, drafts included. Admins see all.
func ListMyEvents(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	query := gormDB.Model(&models.Event{})
	if !p.IsAdmin() {
		query = query.Where("organizer_id = ?", p.UserID)
	}
	listEvents(c, query)
}

func UpdateEvent(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}
	req, ok := bindEvent(c)
	if !ok {
		return
	}

	if req.OrganizerID != 0 && req.OrganizerID != event.OrganizerID {
		organizerID, ok := organizerFor(c, gormDB, p, req.OrganizerID)
		if !ok {
			return
		}
		event.OrganizerID = organizerID
	}
	req.apply(event)

	if err := gormDB.Save(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event updated successfully.",
		"event":   event,
	})
}

// DeleteEvent removes the event with its tickets, transactions and guests.
func DeleteEvent(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}

	var codes []string
	if err := gormDB.Model(&models.Ticket{}).Where("event_id = ?", event.ID).Pluck("qr_code", &codes).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	if err := gormDB.Delete(event).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to delete event.")
		return
	}

	if svc := middleware.GetTicketing(c); svc != nil {
		svc.RemoveImages(c.Request.Context(), codes)
	}
	if s := middleware.GetServices(c); s != nil {
		dir := filepath.Join(s.StorageRoot, helpers.EventImageDir)
		for _, name := range []string{event.ThumbnailPath, event.HeroPath} {
			if err := helpers.DeleteFile(dir, name); err != nil {
				log.Warn().Err(err).Uint("event_id", event.ID).Msg("failed to delete event image")
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Event deleted successfully.",
	})
}

// UploadEventImages accepts "thumbnail" and "hero" multipart files.
func UploadEventImages(c *gin.Context) {
	p, ok := getPrincipal(c)
	if !ok {
		return
	}
	gormDB, ok := getDB(c)
	if !ok {
		return
	}
	s := middleware.GetServices(c)
	if s == nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Storage not configured.")
		return
	}
	event, ok := loadManagedEvent(c, gormDB, p)
	if !ok {
		return
	}

	cfg := helpers.EventImageUploadConfig(s.StorageRoot)
	updates := map[string]interface{}{}
	var stale []string

	slots := []struct {
		field  string
		target *string
	}{
		{"thumbnail", &event.ThumbnailPath},
		{"hero", &event.HeroPath},
	}
	for _, slot := range slots {
		fileHeader, err := c.FormFile(slot.field)
		if err != nil {
			continue
		}
		name, err := helpers.UploadFile(c, fileHeader, cfg)
		if err != nil {
			helpers.RespondWithValidation(c, map[string]string{slot.field: err.Error()})
			return
		}
		stale = append(stale, *slot.target)
		*slot.target = name
		updates[slot.field+"_path"] = name
	}

	if len(updates) == 0 {
		helpers.RespondWithValidation(c, map[string]string{"_": "Provide a thumbnail or hero image."})
		return
	}

	if err := gormDB.Model(event).Updates(updates).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update event.")
		return
	}
	for _, name := range stale {
		if err := helpers.DeleteFile(cfg.UploadBasePath, name); err != nil {
			log.Warn().Err(err).Uint("event_id", event.ID).Msg("failed to delete old event image")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Event images updated successfully.",
		"thumbnail_path": event.ThumbnailPath,
		"hero_path":      event.HeroPath,
	})
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mealcoach-backend/internal/http/response"
	"github.com/yungbote/mealcoach-backend/internal/pkg/ctxutil"
	"github.com/yungbote/mealcoach-backend/internal/pkg/logger"
	"github.com/yungbote/mealcoach-backend/internal/services"
)

// MaxMealPhotoBytes caps uploaded meal photos.
const MaxMealPhotoBytes = 10 << 20

type MealLogHandler struct {
	log     *logger.Logger
	service services.MealLogService
}

func NewMealLogHandler(log *logger.Logger, service services.MealLogService) *MealLogHandler {
	return &MealLogHandler{log: log.With("handler", "MealLogHandler"), service: service}
}

// POST /meal-logs/check-in
// body: { "planned_meal_id": 42 } or { "food_name": "...", "category": "...", "calories": 300, "day_number": 2 }
func (h *MealLogHandler) CheckIn(c *gin.Context) {
	var req services.CheckInInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	row, err := h.service.RecordCheckIn(c.Request.Context(), ctxutil.UserID(c.Request.Context()), req)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"log": row})
}

// POST /meal-logs/analyze
// multipart: image=<file>, planned_meal_id, category
// json: { "image_url": "https://...", "planned_meal_id": 42, "category": "lunch" }
func (h *MealLogHandler) Analyze(c *gin.Context) {
	in, err := h.analyzeInput(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.service.AnalyzeAndLog(c.Request.Context(), ctxutil.UserID(c.Request.Context()), in)
	if err != nil {
		response.RespondDomainError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"analysis": res})
}

func (h *MealLogHandler) analyzeInput(c *gin.Context) (services.AnalyzeInput, error) {
	var in services.AnalyzeInput
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxMealPhotoBytes+1<<20)
		fh, err := c.FormFile("image")
		if err != nil {
			return in, errors.New("image file required")
		}
		if fh.Size > MaxMealPhotoBytes {
			return in, errors.New("image too large")
		}
		f, err := fh.Open()
		if err != nil {
			return in, err
		}
		defer f.Close()
		raw, err := io.ReadAll(io.LimitReader(f, MaxMealPhotoBytes+1))
		if err != nil {
			return in, err
		}
		in.ImageBytes = raw
		in.ContentType = fh.Header.Get("Content-Type")
		if v := strings.TrimSpace(c.PostForm("planned_meal_id")); v != "" {
			id, err := strconv.ParseUint(v, 10, 64)
			if err != nil || id == 0 {
				return in, errors.New("planned_meal_id must be a positive integer")
			}
			pm := uint(id)
			in.PlannedMealID = &pm
		}
		if v := strings.TrimSpace(c.PostForm("category")); v != "" {
			in.Category = &v
		}
		return in, nil
	}

	var req struct {
		ImageURL      string  `json:"image_url"`
		PlannedMealID *uint   `json:"planned_meal_id"`
		Category      *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		return in, err
	}
	in.ImageURL = req.ImageURL
	in.PlannedMealID = req.PlannedMealID
	in.Category = req.Category
	return in, nil
}

package handler

import (
	"io"
	"time"

	apptrip "github.com/dpnk/backend/internal/application/trip"
	"github.com/dpnk/backend/internal/domain/trip"
	"github.com/dpnk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// maxGPXSize bounds the uploaded track file
const maxGPXSize = 10 << 20

// LogTripRequest represents one logged commute
type LogTripRequest struct {
	Date              string          `json:"date" binding:"required,datetime=2006-01-02" example:"2026-05-04"`
	Direction         string          `json:"direction" binding:"required,trip_direction" example:"trip_to"`
	CommuteMode       string          `json:"commute_mode" binding:"required,commute_mode" example:"bicycle"`
	Distance          decimal.Decimal `json:"distance" swaggertype:"number" example:"7.5"`
	DurationSeconds   int             `json:"duration" binding:"min=0" example:"1500"`
	SourceApplication string          `json:"source_application" binding:"max=100"`
	SourceID          string          `json:"source_id" binding:"max=255"`
	Description       string          `json:"description" binding:"max=500"`
}

// TripHandler serves the rides log of the current participant
type TripHandler struct {
	BaseHandler
	tripService *apptrip.TripService
}

// NewTripHandler creates a new trip handler
func NewTripHandler(tripService *apptrip.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// force reports whether a staff member asked to skip the editability window
func force(c *gin.Context) bool {
	return c.Query("force") == "true" && middleware.IsStaff(c)
}

// ListTrips godoc
// @Summary      List my trips
// @Tags         trips
// @Produce      json
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to   query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]apptrip.TripResponse]
// @Security     BearerAuth
// @Router       /trips [get]
func (h *TripHandler) ListTrips(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	trips, err := h.tripService.ListTrips(c.Request.Context(), campaignID, userID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trips)
}

// Calendar godoc
// @Summary      Rides calendar
// @Description  Competition days with their trips and whether they can still be edited
// @Tags         trips
// @Produce      json
// @Param        from query string false "First day (YYYY-MM-DD)"
// @Param        to   query string false "Last day (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]apptrip.CalendarDayResponse]
// @Security     BearerAuth
// @Router       /trips/calendar [get]
func (h *TripHandler) Calendar(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	days, err := h.tripService.RidesCalendar(c.Request.Context(), campaignID, userID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, days)
}

// LogTrip godoc
// @Summary      Log a trip
// @Description  Creates or replaces the trip of the day and direction; the day must lie in the editable window
// @Tags         trips
// @Accept       json
// @Produce      json
// @Param        request body LogTripRequest true "Trip"
// @Param        force   query bool false "Skip the editable window (staff only)"
// @Success      200 {object} APIResponse[apptrip.TripResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trips [post]
func (h *TripHandler) LogTrip(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	var req LogTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleValidation(c, err)
		return
	}
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "Invalid date")
		return
	}

	result, err := h.tripService.LogTrip(c.Request.Context(), campaignID, userID, apptrip.LogTripInput{
		Date:              day,
		Direction:         trip.Direction(req.Direction),
		CommuteMode:       trip.CommuteMode(req.CommuteMode),
		Distance:          req.Distance,
		DurationSeconds:   req.DurationSeconds,
		SourceApplication: req.SourceApplication,
		SourceID:          req.SourceID,
		Description:       req.Description,
		Force:             force(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// DeleteTrip godoc
// @Summary      Delete a trip
// @Tags         trips
// @Param        id    path  string true  "Trip ID"
// @Param        force query bool   false "Skip the editable window (staff only)"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	tripID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.tripService.DeleteTrip(c.Request.Context(), campaignID, userID, tripID, force(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ImportGPX godoc
// @Summary      Upload a GPX track
// @Description  Logs a bicycle trip whose distance is measured from the track
// @Tags         trips
// @Accept       multipart/form-data
// @Produce      json
// @Param        date      formData string true "Day (YYYY-MM-DD)"
// @Param        direction formData string true "trip_to, trip_from or recreational"
// @Param        file      formData file   true "GPX file"
// @Success      200 {object} APIResponse[apptrip.TripResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trips/gpx [post]
func (h *TripHandler) ImportGPX(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}

	day, err := time.Parse(dateLayout, c.PostForm("date"))
	if err != nil {
		h.BadRequest(c, "Invalid date, expected "+dateLayout)
		return
	}
	direction := trip.Direction(c.PostForm("direction"))
	if !direction.IsValid() {
		h.BadRequest(c, "Invalid direction")
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "GPX file is required")
		return
	}
	if header.Size > maxGPXSize {
		h.BadRequest(c, "GPX file is too large")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxGPXSize))
	if err != nil {
		h.BadRequest(c, "Unable to read the uploaded file")
		return
	}

	result, err := h.tripService.ImportGPX(c.Request.Context(), campaignID, userID, apptrip.ImportGPXInput{
		Date:      day,
		Direction: direction,
		FileName:  header.Filename,
		Data:      data,
		Force:     force(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// TrackURL godoc
// @Summary      Link to the stored track of a trip
// @Tags         trips
// @Produce      json
// @Param        id path string true "Trip ID"
// @Success      200 {object} APIResponse[URLData]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /trips/{id}/track [get]
func (h *TripHandler) TrackURL(c *gin.Context) {
	campaignID, userID, ok := h.participant(c)
	if !ok {
		return
	}
	tripID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	url, err := h.tripService.TrackURL(c.Request.Context(), campaignID, userID, tripID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, URLData{URL: url})
}

package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/TelesEntrega/youtube-channel-ranking/internal/middleware"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/model"
	"github.com/TelesEntrega/youtube-channel-ranking/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
	defaultHistory  = 30
	maxHistory      = 365
)

type RankingHandler struct {
	svc *service.RankingService
}

func NewRankingHandler(svc *service.RankingService) *RankingHandler {
	return &RankingHandler{svc: svc}
}

// GetRanking handles GET /api/ranking
func (h *RankingHandler) GetRanking(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "limit out of range")
	}
	offset := fiber.Query[int](c, "offset", 0)
	if offset < 0 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "offset must not be negative")
	}
	search := c.Query("q")

	entries, err := h.svc.GlobalRanking(c.Context(), limit, offset, search)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ranking")
	}
	total, err := h.svc.TotalChannels(c.Context(), search)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch ranking")
	}

	return c.JSON(fiber.Map{
		"ranking": entries,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// Compare handles GET /api/compare
func (h *RankingHandler) Compare(c fiber.Ctx) error {
	method := model.Methodology(c.Query("method", string(model.MethodologyPublished)))
	if !method.Valid() {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD",
			"method must be one of: published, video_delta, channel_delta")
	}

	channelIDs, errMsg := middleware.ValidateChannelList(c.Query("channels"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	start, end, errMsg := middleware.ValidateDateRange(c.Query("start"), c.Query("end"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	rows, err := h.svc.Compare(c.Context(), method, channelIDs, start, end)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute comparison")
	}

	return c.JSON(fiber.Map{
		"method":  method,
		"start":   start,
		"end":     end,
		"results": rows,
	})
}

// GetChannel handles GET /api/channels/:channelId
func (h *RankingHandler) GetChannel(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	details, err := h.svc.ChannelDetails(c.Context(), channelID)
	if err != nil {
		var nfErr *model.NotFoundError
		if errors.As(err, &nfErr) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch channel")
	}

	return c.JSON(details)
}

// GetHistory handles GET /api/channels/:channelId/history
func (h *RankingHandler) GetHistory(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	days := fiber.Query[int](c, "days", defaultHistory)
	if days < 1 || days > maxHistory {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "days out of range")
	}

	points, err := h.svc.ChannelHistory(c.Context(), channelID, days)
	if err != nil {
		var nfErr *model.NotFoundError
		if errors.As(err, &nfErr) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch history")
	}

	return c.JSON(fiber.Map{
		"channelId": channelID,
		"days":      days,
		"history":   points,
	})
}

package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/blossom-os/softwarehub/api"
	"github.com/blossom-os/softwarehub/events"
	"github.com/blossom-os/softwarehub/logger"
	"github.com/blossom-os/softwarehub/service"
)

type HttpService struct {
	api            api.API
	eventPublisher events.EventPublisher
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewHttpService(svc service.Service, eventPublisher events.EventPublisher) *HttpService {
	return &HttpService{
		api:            api.NewAPI(svc.GetStore(), svc.GetIconCache(), svc.GetSyncService()),
		eventPublisher: eventPublisher,
	}
}

func (httpSvc *HttpService) RegisterSharedRoutes(e *echo.Echo) {
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogHost:      true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			logger.HttpLogger.Info().
				Str("uri", values.URI).
				Int("status", values.Status).
				Str("remote_ip", values.RemoteIP).
				Str("user_agent", values.UserAgent).
				Str("host", values.Host).
				Str("request_id", values.RequestID).
				Msg("handled API request")
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/api/catalog/ready", httpSvc.readyHandler)
	e.GET("/api/catalog/apps", httpSvc.listAppsHandler)
	e.GET("/api/catalog/apps/:appId", httpSvc.getAppHandler)
	e.GET("/api/catalog/apps/:appId/icon", httpSvc.getAppIconHandler)
	e.POST("/api/catalog/apps/batch", httpSvc.getAppsBatchHandler)
	e.POST("/api/catalog/icons/batch", httpSvc.getIconsBatchHandler)
	e.GET("/api/catalog/categories", httpSvc.listCategoriesHandler)
	e.GET("/api/catalog/categories/:categoryId/collection", httpSvc.getCategoryCollectionHandler)
	e.GET("/api/catalog/categories/:categoryId/apps", httpSvc.getCategoryAppsPageHandler)
	e.GET("/api/catalog/collections/:name/apps", httpSvc.getCollectionAppsHandler)
	e.GET("/api/catalog/homepage", httpSvc.homepageHandler)
	e.GET("/api/catalog/search", httpSvc.searchHandler)
	e.GET("/api/logs", httpSvc.getLogOutputHandler)

	e.POST("/api/catalog/sync", httpSvc.syncHandler)
	e.POST("/api/catalog/collections/:name/sync", httpSvc.syncCollectionHandler)
	e.POST("/api/catalog/categories/:categoryId/sync", httpSvc.syncCategoryCollectionHandler)
}

func (httpSvc *HttpService) readyHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, httpSvc.api.CacheReady())
}

func (httpSvc *HttpService) listAppsHandler(c echo.Context) error {
	apps, err := httpSvc.api.ListApps()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, apps)
}

func (httpSvc *HttpService) getAppHandler(c echo.Context) error {
	app, err := httpSvc.api.GetApp(c.Param("appId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	if app == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "app not found"})
	}
	return c.JSON(http.StatusOK, app)
}

func (httpSvc *HttpService) getAppIconHandler(c echo.Context) error {
	icon, err := httpSvc.api.GetIconDataURL(c.Param("appId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	if icon.DataURL == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "no icon cached"})
	}
	return c.JSON(http.StatusOK, icon)
}

type batchRequest struct {
	AppIDs []string `json:"app_ids"`
}

func (httpSvc *HttpService) getAppsBatchHandler(c echo.Context) error {
	var request batchRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}
	apps, err := httpSvc.api.GetAppsBatch(request.AppIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, apps)
}

func (httpSvc *HttpService) getIconsBatchHandler(c echo.Context) error {
	var request batchRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}
	icons, err := httpSvc.api.GetIconDataURLBatch(request.AppIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, icons)
}

func (httpSvc *HttpService) listCategoriesHandler(c echo.Context) error {
	categories, err := httpSvc.api.ListCategories()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, categories)
}

func (httpSvc *HttpService) getCategoryCollectionHandler(c echo.Context) error {
	categoryID := c.Param("categoryId")

	if limitParam := c.QueryParam("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		response, err := httpSvc.api.GetCollectionWithApps(categoryID, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
		}
		if response == nil {
			return c.JSON(http.StatusNotFound, ErrorResponse{Message: "collection not cached"})
		}
		return c.JSON(http.StatusOK, response)
	}

	collection, err := httpSvc.api.GetCollection(categoryID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	if collection == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "collection not cached"})
	}
	return c.JSON(http.StatusOK, collection)
}

func (httpSvc *HttpService) getCategoryAppsPageHandler(c echo.Context) error {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	page, err := httpSvc.api.GetCollectionPage(c.Param("categoryId"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, page)
}

func (httpSvc *HttpService) getCollectionAppsHandler(c echo.Context) error {
	apps, err := httpSvc.api.GetCollectionApps(c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, apps)
}

func (httpSvc *HttpService) homepageHandler(c echo.Context) error {
	homepage, err := httpSvc.api.GetHomepage()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, homepage)
}

func (httpSvc *HttpService) searchHandler(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "missing query parameter q"})
	}
	results, err := httpSvc.api.Search(query)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, results)
}

func (httpSvc *HttpService) getLogOutputHandler(c echo.Context) error {
	var getLogRequest api.GetLogOutputRequest
	if err := c.Bind(&getLogRequest); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}

	getLogResponse, err := httpSvc.api.GetLogOutput(&getLogRequest)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, getLogResponse)
}

func (httpSvc *HttpService) syncHandler(c echo.Context) error {
	var request api.SyncRequest
	if err := c.Bind(&request); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	}
	// the workflow runs in the background; progress arrives as events
	httpSvc.api.Sync(request.ClearCache)
	return c.NoContent(http.StatusAccepted)
}

func (httpSvc *HttpService) syncCollectionHandler(c echo.Context) error {
	appIDs, err := httpSvc.api.SyncCollection(c.Request().Context(), c.Param("name"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, appIDs)
}

func (httpSvc *HttpService) syncCategoryCollectionHandler(c echo.Context) error {
	err := httpSvc.api.SyncCategoryCollection(c.Request().Context(), c.Param("categoryId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

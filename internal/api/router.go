package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cwj/useful_push/internal/storage"
)

type Server struct {
	store *storage.Store
	// trigger 异步执行一轮推送，由 daemon 注入
	trigger func()
}

func NewServer(store *storage.Store, trigger func()) *Server {
	return &Server{store: store, trigger: trigger}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/digest/latest", s.latestDigest)
		v1.POST("/run", s.runNow)
		v1.GET("/status", s.runStatus)

		v1.GET("/sources", s.listSources)
		v1.POST("/sources", s.addSource)
		v1.DELETE("/sources/:id", s.removeSource)

		v1.GET("/weather/cities", s.listWeatherCities)
		v1.POST("/weather/cities", s.addWeatherCity)
		v1.DELETE("/weather/cities/:city", s.removeWeatherCity)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// latestDigest 返回最近一轮的渲染结果（Redis 缓存，24 小时后过期）
func (s *Server) latestDigest(c *gin.Context) {
	payloads, ok := s.store.LatestDigest()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "暂无可用的推送内容",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    payloads,
	})
}

// runNow 手动触发一轮推送，立即返回不等执行完
func (s *Server) runNow(c *gin.Context) {
	if s.trigger != nil {
		go s.trigger()
	}
	c.JSON(http.StatusAccepted, gin.H{
		"code":    "ok",
		"message": "已触发执行",
	})
}

func (s *Server) runStatus(c *gin.Context) {
	status, err := s.store.GetRunStatus()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "尚未执行过推送",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    status,
	})
}

func (s *Server) listSources(c *gin.Context) {
	channels, err := s.store.ListSourceChannels()
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    channels,
	})
}

func (s *Server) addSource(c *gin.Context) {
	var req struct {
		Category string `json:"category" binding:"required"`
		Label    string `json:"label"`
		URL      string `json:"url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		})
		return
	}
	if req.Label == "" {
		req.Label = req.URL
	}

	ch, err := s.store.AddSource(req.Category, req.Label, req.URL)
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    ch,
	})
}

func (s *Server) removeSource(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "无效的源 ID",
		})
		return
	}
	if err := s.store.RemoveSource(uint(id)); err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func (s *Server) listWeatherCities(c *gin.Context) {
	locations, err := s.store.ListWeatherLocations()
	if err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    locations,
	})
}

func (s *Server) addWeatherCity(c *gin.Context) {
	var req struct {
		City string  `json:"city" binding:"required"`
		Lat  float64 `json:"lat" binding:"required"`
		Lon  float64 `json:"lon" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		})
		return
	}
	if err := s.store.AddWeatherCity(req.City, req.Lat, req.Lon); err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func (s *Server) removeWeatherCity(c *gin.Context) {
	city := c.Param("city")
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": "城市不能为空",
		})
		return
	}
	if err := s.store.RemoveWeatherCity(city); err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success"})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

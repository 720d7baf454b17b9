package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cwj/useful_push/internal/collector"
	"github.com/cwj/useful_push/internal/config"
	"github.com/cwj/useful_push/internal/digest"
)

// SourceChannel 一条新闻源配置；daemon 模式下取代 sources 文件
type SourceChannel struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Category string `gorm:"size:64;index" json:"category"`
	Label    string `gorm:"size:256" json:"label"`
	URL      string `gorm:"size:1024;uniqueIndex" json:"url"`
	Status   string `gorm:"size:32;index" json:"status"` // active / disabled

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WeatherCity 关注城市及坐标
type WeatherCity struct {
	City      string    `gorm:"primaryKey;size:100" json:"city"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	CreatedAt time.Time `json:"createdAt"`
}

// WeatherCache 按城市缓存 open-meteo 的原始 JSON，拉取失败时兜底
type WeatherCache struct {
	City      string    `gorm:"primaryKey;size:100" json:"city"`
	Data      string    `gorm:"type:text" json:"data"`
	FetchedAt time.Time `gorm:"index" json:"fetchedAt"`
}

// RunStatus 最近一轮推送的状态，单行覆盖写，不保留历史
type RunStatus struct {
	ID        uint              `gorm:"primaryKey" json:"-"`
	RanAt     time.Time         `json:"ranAt"`
	Sections  datatypes.JSONMap `gorm:"type:jsonb" json:"sections"`
	LastError string            `gorm:"size:1024" json:"lastError"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&SourceChannel{}, &WeatherCity{}, &WeatherCache{}, &RunStatus{}); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return &Store{DB: db, Redis: rdb}, nil
}

// ---------- 新闻源 ----------

// SeedDefaultSources 表为空时写入内置默认新闻源
func (s *Store) SeedDefaultSources() error {
	var count int64
	if err := s.DB.Model(&SourceChannel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, src := range config.DefaultNewsSources {
		ch := SourceChannel{
			Category: src.Category,
			Label:    src.Label,
			URL:      src.URL,
			Status:   "active",
		}
		if err := s.DB.Create(&ch).Error; err != nil {
			return err
		}
	}
	log.Printf("seeded %d default news sources", len(config.DefaultNewsSources))
	return nil
}

// ListSourceChannels 返回全部源记录（含禁用的），供管理接口展示
func (s *Store) ListSourceChannels() ([]SourceChannel, error) {
	var channels []SourceChannel
	err := s.DB.Order("category ASC, id ASC").Find(&channels).Error
	return channels, err
}

// GroupedSources 返回按类别分组的启用源，喂给采集流水线
func (s *Store) GroupedSources() (map[string][]config.NewsSource, error) {
	var channels []SourceChannel
	if err := s.DB.Where("status = ?", "active").Order("id ASC").Find(&channels).Error; err != nil {
		return nil, err
	}
	raw := make([]config.NewsSource, 0, len(channels))
	for _, ch := range channels {
		raw = append(raw, config.NewsSource{Category: ch.Category, Label: ch.Label, URL: ch.URL})
	}
	return config.GroupSources(raw), nil
}

// AddSource 按 URL 幂等新增
func (s *Store) AddSource(category, label, url string) (*SourceChannel, error) {
	ch := SourceChannel{
		Category: category,
		Label:    label,
		URL:      url,
		Status:   "active",
	}
	if err := s.DB.Where("url = ?", url).FirstOrCreate(&ch).Error; err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Store) RemoveSource(id uint) error {
	return s.DB.Delete(&SourceChannel{}, id).Error
}

// ---------- 天气城市与缓存 ----------

// SeedDefaultWeatherCities 表为空时写入内置关注城市
func (s *Store) SeedDefaultWeatherCities() error {
	var count int64
	if err := s.DB.Model(&WeatherCity{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, loc := range collector.DefaultWeatherLocations {
		city := WeatherCity{City: loc.City, Lat: loc.Lat, Lon: loc.Lon, CreatedAt: time.Now()}
		if err := s.DB.Create(&city).Error; err != nil {
			return err
		}
	}
	return nil
}

// ListWeatherLocations 返回关注城市，顺序与添加顺序一致
func (s *Store) ListWeatherLocations() ([]collector.WeatherLocation, error) {
	var cities []WeatherCity
	if err := s.DB.Order("created_at ASC").Find(&cities).Error; err != nil {
		return nil, err
	}
	locations := make([]collector.WeatherLocation, 0, len(cities))
	for _, c := range cities {
		locations = append(locations, collector.WeatherLocation{City: c.City, Lat: c.Lat, Lon: c.Lon})
	}
	return locations, nil
}

// AddWeatherCity 添加关注城市（已存在则忽略）
func (s *Store) AddWeatherCity(city string, lat, lon float64) error {
	c := WeatherCity{City: city, Lat: lat, Lon: lon, CreatedAt: time.Now()}
	return s.DB.Where("city = ?", city).FirstOrCreate(&c).Error
}

// RemoveWeatherCity 移除关注城市及其缓存
func (s *Store) RemoveWeatherCity(city string) error {
	s.DB.Where("city = ?", city).Delete(&WeatherCache{})
	return s.DB.Where("city = ?", city).Delete(&WeatherCity{}).Error
}

// GetWeatherCache 获取指定城市的天气缓存，不做过期判断
func (s *Store) GetWeatherCache(city string) (string, bool) {
	var cache WeatherCache
	if err := s.DB.Where("city = ?", city).First(&cache).Error; err != nil {
		return "", false
	}
	return cache.Data, true
}

// SaveWeatherCache 写入或更新指定城市的天气缓存
func (s *Store) SaveWeatherCache(city, data string) error {
	cache := WeatherCache{
		City:      city,
		Data:      data,
		FetchedAt: time.Now(),
	}
	return s.DB.Save(&cache).Error
}

// ---------- 运行状态 ----------

// SaveRunStatus 覆盖写最近一轮的运行状态（固定 ID=1 的单行）
func (s *Store) SaveRunStatus(ranAt time.Time, sections map[string]any, lastError string) error {
	status := RunStatus{
		ID:        1,
		RanAt:     ranAt,
		Sections:  datatypes.JSONMap(sections),
		LastError: lastError,
	}
	return s.DB.Save(&status).Error
}

// GetRunStatus 读取最近一轮的运行状态
func (s *Store) GetRunStatus() (*RunStatus, error) {
	var status RunStatus
	if err := s.DB.First(&status, 1).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// ---------- 最新一轮摘要缓存 ----------

const (
	digestCacheKey = "digest:latest"
	// 只留最近一轮做预览，到点自然过期；刻意不落库存历史
	digestCacheTTL = 24 * time.Hour
)

// CacheLatestDigest 把最近一轮渲染结果写进 Redis，供预览接口读取
func (s *Store) CacheLatestDigest(payloads []digest.Payload) error {
	if s.Redis == nil {
		return nil
	}
	data, err := json.Marshal(payloads)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.Redis.Set(ctx, digestCacheKey, data, digestCacheTTL).Err()
}

// LatestDigest 读取最近一轮渲染结果；没有或过期返回 false
func (s *Store) LatestDigest() ([]digest.Payload, bool) {
	if s.Redis == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	data, err := s.Redis.Get(ctx, digestCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var payloads []digest.Payload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, false
	}
	return payloads, true
}

package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cwj/useful_push/internal/config"
)

const openMeteoURL = "https://api.open-meteo.com/v1/forecast"

// WeatherLocation 一个关注城市及其经纬度
type WeatherLocation struct {
	City string
	Lat  float64
	Lon  float64
}

// DefaultWeatherLocations 内置关注城市，daemon 模式下可由数据库覆盖
var DefaultWeatherLocations = []WeatherLocation{
	{City: "厦门市", Lat: 24.4798, Lon: 118.0894},
	{City: "南平市浦城县", Lat: 27.9150, Lon: 118.5360},
}

// WeatherDay 一天的预报；指针字段表示接口可能缺失的值
type WeatherDay struct {
	Date         time.Time
	Weather      string
	TempMin      float64
	TempMax      float64
	ApparentMin  *float64
	ApparentMax  *float64
	PrecipChance *float64
	PrecipSum    *float64
	WindMax      *float64
	Sunrise      *time.Time
	Sunset       *time.Time
}

// CityForecast 按城市分组的未来三天预报，保持配置顺序
type CityForecast struct {
	City string
	Days []WeatherDay
}

// WeatherCache 按城市缓存原始预报 JSON；拉取失败时兜底用
type WeatherCache interface {
	GetWeatherCache(city string) (string, bool)
	SaveWeatherCache(city, data string) error
}

// FetchWeather 逐城市拉取 open-meteo 预报。单个城市失败时先试缓存，
// 缓存也没有就记日志跳过；cache 可以为 nil（单次运行模式）。
func FetchWeather(client *http.Client, locations []WeatherLocation, cache WeatherCache) []CityForecast {
	if client == nil {
		client = &http.Client{Timeout: httpTimeout}
	}

	var forecasts []CityForecast
	for _, loc := range locations {
		raw, err := fetchCityWeather(client, loc)
		if err != nil {
			log.Printf("warn: fetch weather for %s: %v", loc.City, err)
			if cache == nil {
				continue
			}
			cached, ok := cache.GetWeatherCache(loc.City)
			if !ok {
				continue
			}
			log.Printf("weather for %s served from cache", loc.City)
			raw = []byte(cached)
		} else if cache != nil {
			if err := cache.SaveWeatherCache(loc.City, string(raw)); err != nil {
				log.Printf("warn: cache weather for %s: %v", loc.City, err)
			}
		}

		days, err := parseWeatherDays(raw)
		if err != nil {
			log.Printf("warn: parse weather for %s: %v", loc.City, err)
			continue
		}
		forecasts = append(forecasts, CityForecast{City: loc.City, Days: days})
	}
	return forecasts
}

func fetchCityWeather(client *http.Client, loc WeatherLocation) ([]byte, error) {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	params.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	params.Set("daily", strings.Join([]string{
		"weathercode",
		"temperature_2m_max",
		"temperature_2m_min",
		"apparent_temperature_max",
		"apparent_temperature_min",
		"precipitation_probability_mean",
		"precipitation_sum",
		"windspeed_10m_max",
		"sunrise",
		"sunset",
	}, ","))
	params.Set("timezone", "Asia/Shanghai")

	req, err := http.NewRequest(http.MethodGet, openMeteoURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBodyBytes))
}

type openMeteoResponse struct {
	Daily struct {
		Time         []string   `json:"time"`
		WeatherCode  []*int     `json:"weathercode"`
		TempMax      []*float64 `json:"temperature_2m_max"`
		TempMin      []*float64 `json:"temperature_2m_min"`
		ApparentMax  []*float64 `json:"apparent_temperature_max"`
		ApparentMin  []*float64 `json:"apparent_temperature_min"`
		PrecipChance []*float64 `json:"precipitation_probability_mean"`
		PrecipSum    []*float64 `json:"precipitation_sum"`
		WindMax      []*float64 `json:"windspeed_10m_max"`
		Sunrise      []string   `json:"sunrise"`
		Sunset       []string   `json:"sunset"`
	} `json:"daily"`
}

func parseWeatherDays(raw []byte) ([]WeatherDay, error) {
	var resp openMeteoResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	daily := resp.Daily
	times := daily.Time
	if len(times) > 3 {
		times = times[:3]
	}

	days := make([]WeatherDay, 0, len(times))
	for idx, dateStr := range times {
		date, err := time.ParseInLocation("2006-01-02", dateStr, config.Location)
		if err != nil {
			date = config.Now().AddDate(0, 0, idx)
		}
		code := 0
		if c := indexOrNil(daily.WeatherCode, idx); c != nil {
			code = *c
		}
		days = append(days, WeatherDay{
			Date:         date,
			Weather:      weatherCodeToText(code),
			TempMin:      floatOrZero(indexOrNil(daily.TempMin, idx)),
			TempMax:      floatOrZero(indexOrNil(daily.TempMax, idx)),
			ApparentMin:  indexOrNil(daily.ApparentMin, idx),
			ApparentMax:  indexOrNil(daily.ApparentMax, idx),
			PrecipChance: indexOrNil(daily.PrecipChance, idx),
			PrecipSum:    indexOrNil(daily.PrecipSum, idx),
			WindMax:      indexOrNil(daily.WindMax, idx),
			Sunrise:      parseLocalISO(indexOrEmpty(daily.Sunrise, idx)),
			Sunset:       parseLocalISO(indexOrEmpty(daily.Sunset, idx)),
		})
	}
	return days, nil
}

func indexOrNil[T any](seq []*T, idx int) *T {
	if idx < 0 || idx >= len(seq) {
		return nil
	}
	return seq[idx]
}

func indexOrEmpty(seq []string, idx int) string {
	if idx < 0 || idx >= len(seq) {
		return ""
	}
	return seq[idx]
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// parseLocalISO 解析 open-meteo 的本地时间串（如 2025-01-02T06:43），按东八区处理
func parseLocalISO(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, config.Location); err == nil {
			return &t
		}
	}
	return nil
}

func weatherCodeToText(code int) string {
	table := map[int]string{
		0:  "晴",
		1:  "以晴为主",
		2:  "多云",
		3:  "阴",
		45: "有雾",
		48: "雾凇",
		51: "毛毛雨",
		53: "小雨",
		55: "中雨",
		56: "冻毛毛雨",
		57: "冻雨",
		61: "小雨",
		63: "中雨",
		65: "大雨",
		71: "小雪",
		73: "中雪",
		75: "大雪",
		80: "阵雨",
		81: "强阵雨",
		82: "暴雨",
		95: "雷阵雨",
		96: "雷阵雨伴冰雹",
		99: "强雷阵雨伴冰雹",
	}
	if text, ok := table[code]; ok {
		return text
	}
	return fmt.Sprintf("天气代码 %d", code)
}

package device

import (
	"github.com/mssola/user_agent"

	"github.com/arena-gg/esports-platform/services/auth-service/internal/domain/models"
)

// ParseUserAgent extracts a structured device record from a raw User-Agent
// header. An empty header yields a zero-value record with only Raw unset.
func ParseUserAgent(rawUA string) models.DeviceInfo {
	if rawUA == "" {
		return models.DeviceInfo{}
	}
	ua := user_agent.New(rawUA)
	browser, version := ua.Browser()
	return models.DeviceInfo{
		Browser:        browser,
		BrowserVersion: version,
		OS:             ua.OS(),
		Platform:       ua.Platform(),
		Mobile:         ua.Mobile(),
		Bot:            ua.Bot(),
		Raw:            rawUA,
	}
}

package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge  int
	Private bool
	NoStore bool
	Vary    []string
}

// NoStoreConfig keeps patient data out of shared and browser caches.
func NoStoreConfig() CacheConfig {
	return CacheConfig{
		Private: true,
		NoStore: true,
		Vary:    []string{"Authorization"},
	}
}

func (c CacheConfig) header() string {
	var parts []string
	if c.Private {
		parts = append(parts, "private")
	}
	if c.NoStore {
		parts = append(parts, "no-store")
	} else if c.MaxAge > 0 {
		parts = append(parts, "max-age="+strconv.Itoa(c.MaxAge))
	}
	return strings.Join(parts, ", ")
}

// CacheControl sets Cache-Control on every response of the group.
func CacheControl(config CacheConfig) gin.HandlerFunc {
	value := config.header()
	vary := strings.Join(config.Vary, ", ")
	return func(c *gin.Context) {
		if value != "" {
			c.Header("Cache-Control", value)
		}
		if vary != "" {
			c.Writer.Header().Add("Vary", vary)
		}
		c.Next()
	}
}

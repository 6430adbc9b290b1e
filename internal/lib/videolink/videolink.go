// Package videolink проверяет ссылки на видеоматериалы уроков.
package videolink

import (
	"fmt"
	"net/url"
)

// ErrNotYouTube описывает отклонённую ссылку: разрешены только youtube.com.
type ErrNotYouTube struct {
	Link string
}

func (e ErrNotYouTube) Error() string {
	return fmt.Sprintf("video link %q is not allowed: only youtube.com links are accepted", e.Link)
}

// Validate проверяет, что ссылка ведет на youtube.com.
// Пустая ссылка считается валидной.
func Validate(link string) error {
	if link == "" {
		return nil
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return ErrNotYouTube{Link: link}
	}
	if parsed.Host != "youtube.com" && parsed.Host != "www.youtube.com" {
		return ErrNotYouTube{Link: link}
	}
	return nil
}

package validation

import (
	"net/url"
	"strings"

	"vidfetch/config"
	"vidfetch/errors"
	"vidfetch/models"
)

type Validator struct {
	config *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// ValidateURL performs URL validation
func (v *Validator) ValidateURL(urlStr string) error {
	const op = "Validator.ValidateURL"

	if urlStr == "" {
		return errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return errors.InvalidInput(op, err, "Invalid URL format")
	}

	// Protocol validation
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return errors.InvalidInput(op, nil, "URL must use HTTP or HTTPS")
	}

	if parsedURL.Hostname() == "" {
		return errors.InvalidInput(op, nil, "URL must include a host")
	}

	return nil
}

// ValidateFormat checks the requested output format
func (v *Validator) ValidateFormat(format models.Format) error {
	const op = "Validator.ValidateFormat"

	if !format.Valid() {
		return errors.InvalidInput(op, nil, "Format must be 'mp3' or 'mp4'")
	}
	return nil
}

// DetectPlatform maps a URL to the source platform name.
func DetectPlatform(urlStr string) string {
	urlStr = strings.ToLower(urlStr)

	switch {
	case strings.Contains(urlStr, "youtube.com") || strings.Contains(urlStr, "youtu.be"):
		return "YouTube"
	case strings.Contains(urlStr, "bilibili.com"):
		return "Bilibili"
	case strings.Contains(urlStr, "tiktok.com"):
		return "TikTok"
	case strings.Contains(urlStr, "twitter.com") || strings.Contains(urlStr, "x.com"):
		return "Twitter"
	case strings.Contains(urlStr, "facebook.com") || strings.Contains(urlStr, "fb.com"):
		return "Facebook"
	case strings.Contains(urlStr, "instagram.com"):
		return "Instagram"
	}

	return "Unknown"
}

package queue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"cutout/internal/textutil"
)

// Descriptor is what a submitter supplies. Exactly one of URL or Data must be
// present; Name and SizeBytes are optional metadata.
type Descriptor struct {
	Name      string `json:"name,omitempty" validate:"omitempty,max=255"`
	URL       string `json:"url,omitempty" validate:"omitempty,max=8192"`
	Data      []byte `json:"-"`
	SizeBytes int64  `json:"size_bytes,omitempty" validate:"gte=0"`
}

var descriptorValidator = validator.New(validator.WithRequiredStructEnabled())

var allowedURLPrefixes = []string{"http://", "https://", "file://", "data:"}

// Validate checks the descriptor shape without touching the source.
func (d Descriptor) Validate() error {
	hasURL := strings.TrimSpace(d.URL) != ""
	hasData := len(d.Data) > 0
	switch {
	case !hasURL && !hasData:
		return invalidDescriptor("missing source")
	case hasURL && hasData:
		return invalidDescriptor("both url and data supplied")
	}
	if hasURL && !hasAllowedPrefix(strings.TrimSpace(d.URL)) {
		return invalidDescriptor(fmt.Sprintf("unsupported source url %q", truncateURL(d.URL, 64)))
	}
	if err := descriptorValidator.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return invalidDescriptor(fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return invalidDescriptor(err.Error())
	}
	return nil
}

func (d Descriptor) source() Source {
	if len(d.Data) > 0 {
		return Source{Data: d.Data}
	}
	return Source{URL: strings.TrimSpace(d.URL)}
}

func (d Descriptor) sizeBytes() int64 {
	if d.SizeBytes > 0 {
		return d.SizeBytes
	}
	return int64(len(d.Data))
}

func (d Descriptor) displayName() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	if len(d.Data) > 0 {
		return "image"
	}
	url := strings.TrimSpace(d.URL)
	if strings.HasPrefix(url, "data:") {
		return "image"
	}
	url = strings.TrimRight(url, "/")
	if idx := strings.IndexAny(url, "?#"); idx >= 0 {
		url = url[:idx]
	}
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		return url[idx+1:]
	}
	return "image"
}

func hasAllowedPrefix(value string) bool {
	lower := strings.ToLower(value)
	for _, prefix := range allowedURLPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

func truncateURL(value string, limit int) string {
	if short := textutil.Truncate(value, limit); short != value {
		return short + "..."
	}
	return value
}

package enums

import "fmt"

// WineSource records how a cellar entry was discovered.
type WineSource string

const (
	WineSourceRecommendation WineSource = "recommendation"
	WineSourceUpload         WineSource = "upload"
)

func (s WineSource) String() string {
	return string(s)
}

func (s WineSource) IsValid() bool {
	return s == WineSourceRecommendation || s == WineSourceUpload
}

// ParseWineSource converts raw input into a WineSource.
func ParseWineSource(value string) (WineSource, error) {
	src := WineSource(value)
	if !src.IsValid() {
		return "", fmt.Errorf("invalid wine source %q", value)
	}
	return src, nil
}

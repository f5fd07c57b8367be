package helpers

import (
	"errors"
	"net/url"
	"strings"
)

func GetSplitPart(target string, separate string, index int) (string, error) {
	parts := strings.Split(target, separate)
	if index >= len(parts) {
		return "", errors.New("index out of range")
	}
	return parts[index], nil
}

// VideoID extracts the video identifier from a shorts watch URL,
// e.g. https://www.youtube.com/shorts/SB4Rc6aq9Dg -> SB4Rc6aq9Dg.
func VideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	path := strings.Trim(u.Path, "/")
	id, err := GetSplitPart(path, "/", 1)
	if err != nil || id == "" {
		return "", errors.New("no video id in URL path: " + u.Path)
	}
	return id, nil
}

package utils

import (
	"net/url"
	"strings"
)

// JoinURL appends path segments to base, collapsing duplicate slashes at the
// joins. Segments are escaped; base is used verbatim.
func JoinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg == "" {
			continue
		}
		parts := strings.Split(seg, "/")
		for i, p := range parts {
			parts[i] = url.PathEscape(p)
		}
		out += "/" + strings.Join(parts, "/")
	}
	return out
}

// ShareLink returns the public link for a file: {webURL}/file/{id}.
func ShareLink(webURL, fileID string) string {
	return JoinURL(webURL, "file", fileID)
}

// EncodeURLWithSpaces encodes raw spaces in a URL's path and query, which
// users tend to paste unescaped.
func EncodeURLWithSpaces(rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	encoded := parsedURL.Scheme + "://" + parsedURL.Host + parsedURL.EscapedPath()
	if parsedURL.RawQuery != "" {
		encoded += "?" + strings.ReplaceAll(parsedURL.RawQuery, " ", "%20")
	}
	return encoded, nil
}

// FileIDFromLink extracts the file ID from a share link or download URL.
// A bare ID is returned unchanged.
func FileIDFromLink(link string) string {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		return strings.Trim(link, "/")
	}
	if encoded, err := EncodeURLWithSpaces(link); err == nil {
		link = encoded
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.Trim(parsed.Path, "/")
	idx := strings.LastIndex(path, "/")
	id := path[idx+1:]
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id
}

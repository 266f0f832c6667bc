package handlers

import (
	"html/template"
	"net/url"
	"strings"

	"github.com/pubgate/pubgate/store"
	"github.com/pubgate/pubgate/thumbs"
)

// ListingEntry is one row of a rendered directory listing.
type ListingEntry struct {
	Name string
	Href string
	// ThumbHref is set for entries the thumbnails view can render inline.
	ThumbHref string
	Size      int64
	IsDir     bool
}

// ListingPage is the data handed to the listing template.
type ListingPage struct {
	Path       string
	Dirs       []ListingEntry
	Files      []ListingEntry
	Thumbnails bool
}

func buildListingPage(path, token, show string, listing *store.Listing) *ListingPage {
	page := &ListingPage{
		Path:       "/" + path,
		Thumbnails: show == showThumbnails,
	}

	for _, prefix := range listing.CommonPrefixes {
		name := strings.TrimSuffix(strings.TrimPrefix(prefix, path), "/")
		if name == "" {
			continue
		}
		page.Dirs = append(page.Dirs, ListingEntry{
			Name:  name + "/",
			Href:  entryHref(prefix, token, show),
			IsDir: true,
		})
	}

	for _, obj := range listing.Objects {
		name := strings.TrimPrefix(obj.Key, path)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		entry := ListingEntry{
			Name: name,
			Href: entryHref(obj.Key, token, ""),
			Size: obj.Size,
		}
		if _, ok := thumbs.FamilyForPath(obj.Key); ok {
			entry.ThumbHref = entryHref(obj.Key, token, showThumbnails)
		}
		page.Files = append(page.Files, entry)
	}

	return page
}

// entryHref builds a link to a listed entry, propagating the capability
// token so that one signed directory URL keeps working while browsing.
func entryHref(key, token, show string) string {
	href := "/" + key
	query := url.Values{}
	if token != "" {
		query.Set(TokenParam, token)
	}
	if show != "" {
		query.Set(ShowParam, show)
	}
	if encoded := query.Encode(); encoded != "" {
		href += "?" + encoded
	}
	return href
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Index of {{.Path}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td { padding: 0.2em 1em 0.2em 0; }
.grid { display: flex; flex-wrap: wrap; gap: 1em; }
.grid figure { margin: 0; text-align: center; }
.grid img { max-width: 256px; max-height: 256px; display: block; }
</style>
</head>
<body>
<h1>Index of {{.Path}}</h1>
{{if .Thumbnails}}
<div class="grid">
{{range .Dirs}}<figure><a href="{{.Href}}">{{.Name}}</a></figure>
{{end}}{{range .Files}}<figure>
{{if .ThumbHref}}<a href="{{.Href}}"><img src="{{.ThumbHref}}" alt="{{.Name}}"></a>{{end}}
<figcaption><a href="{{.Href}}">{{.Name}}</a></figcaption>
</figure>
{{end}}</div>
{{else}}
<table>
{{range .Dirs}}<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td></td></tr>
{{end}}{{range .Files}}<tr><td><a href="{{.Href}}">{{.Name}}</a></td><td>{{.Size}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

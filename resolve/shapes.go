package resolve

import "github.com/tidwall/gjson"

// shape pulls media out of one known response layout. An empty url means
// the layout did not match.
type shape struct {
	name  string
	match func(body gjson.Result) media
}

// tiktokShapes are tried in order against every TikTok API response.
var tiktokShapes = []shape{
	{name: "videos", match: func(body gjson.Result) media {
		videos := body.Get("videos")
		if !videos.IsObject() {
			return media{}
		}
		return media{
			url:       firstValid(str(videos.Get("hd")), str(videos.Get("sd")), str(videos.Get("wm"))),
			title:     str(body.Get("title")),
			thumbnail: str(body.Get("cover")),
			author:    str(body.Get("author.nickname")),
		}
	}},
	{name: "data", match: func(body gjson.Result) media {
		data := body.Get("data")
		if !data.IsObject() {
			return media{}
		}
		return media{
			url:       firstValid(str(data.Get("play")), str(data.Get("wmplay"))),
			title:     str(data.Get("title")),
			thumbnail: str(data.Get("cover")),
			author:    str(data.Get("author.nickname")),
		}
	}},
	{name: "flat", match: flatShape("url")},
}

var instagramShape = shape{name: "instagram", match: flatShape("media")}

var twitterShape = shape{name: "twitter", match: func(body gjson.Result) media {
	m := flatShape("media")(body)
	m.url = firstValid(str(body.Get("videos.0.url")), m.url)
	return m
}}

func flatShape(urlField string) func(gjson.Result) media {
	return func(body gjson.Result) media {
		return media{
			url:       str(body.Get(urlField)),
			title:     str(body.Get("title")),
			thumbnail: str(body.Get("thumbnail")),
			author:    str(body.Get("author")),
		}
	}
}

// firstValid returns the first usable media url, keeping preference order.
func firstValid(urls ...string) string {
	for _, u := range urls {
		if u != "" && validMediaURL(u) == nil {
			return u
		}
	}
	return ""
}

// matchShapes returns the first shape result with a usable media url.
func matchShapes(body gjson.Result, shapes ...shape) (media, bool) {
	for _, s := range shapes {
		m := s.match(body)
		if m.url == "" || validMediaURL(m.url) != nil {
			continue
		}
		return m, true
	}
	return media{}, false
}

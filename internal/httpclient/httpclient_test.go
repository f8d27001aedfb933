package httpclient

import "testing"

func TestRedditThreadJSONURL(t *testing.T) {
	cases := map[string]string{
		"/r/golang/comments/abc123/title":                    "https://www.reddit.com/r/golang/comments/abc123/title.json?raw_json=1&context=0&depth=1&limit=50&sort=top",
		"r/golang/comments/abc123/title/":                    "https://www.reddit.com/r/golang/comments/abc123/title.json?raw_json=1&context=0&depth=1&limit=50&sort=top",
		"https://www.reddit.com/r/golang/comments/abc123/title": "https://www.reddit.com/r/golang/comments/abc123/title.json?raw_json=1&context=0&depth=1&limit=50&sort=top",
	}
	for input, want := range cases {
		got, err := RedditThreadJSONURL(input)
		if err != nil {
			t.Fatalf("RedditThreadJSONURL(%q) error: %v", input, err)
		}
		if got != want {
			t.Fatalf("RedditThreadJSONURL(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, s := range []int{408, 425, 429, 500, 503, 520, 530} {
		if !isRetryableStatus(s) {
			t.Errorf("status %d should be retryable", s)
		}
	}
	for _, s := range []int{200, 400, 401, 403, 404} {
		if isRetryableStatus(s) {
			t.Errorf("status %d should not be retryable", s)
		}
	}
}

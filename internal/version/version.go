package version

import (
	"context"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/nulzo/polymage/internal/httpclient"
)

// Version is stamped at build time with -ldflags "-X ...version.Version=v1.2.3".
var Version = "v0.0.0"

const ReleasesURL = "https://api.github.com/repos/nulzo/polymage/releases/latest"

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Update describes a newer published release.
type Update struct {
	Current string
	Latest  string
	URL     string
}

// Check asks the releases endpoint for the latest tag and returns an Update
// when it is newer than current, nil otherwise.
func Check(ctx context.Context, client httpclient.HTTPClient, url, current string) (*Update, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}

	var release GitHubRelease
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if err := httpclient.SendRequest(ctx, client, http.MethodGet, url, headers, nil, &release); err != nil {
		return nil, err
	}

	cur, err := goversion.NewVersion(current)
	if err != nil {
		return nil, err
	}
	latest, err := goversion.NewVersion(release.TagName)
	if err != nil {
		return nil, err
	}

	if !cur.LessThan(latest) {
		return nil, nil
	}
	return &Update{Current: current, Latest: release.TagName, URL: release.HTMLURL}, nil
}
